package finance

import (
	"testing"

	"voko-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCorrectionCredit(t *testing.T) {
	tests := []struct {
		name     string
		amount   int
		retail   string
		supplied int
		want     string
	}{
		// Half of one 1.07 unit is 0.535; the member gets 0.53, never 0.54.
		{"half delivered truncates down", 1, "1.07", 50, "0.53"},
		{"nothing delivered credits the full line", 2, "1.07", 0, "2.14"},
		{"fully delivered credits nothing", 3, "1.07", 100, "0.00"},
		{"quarter shortfall on a bigger line", 4, "2.50", 75, "2.50"},
		{"uneven percentage truncates", 3, "1.99", 33, "3.99"}, // 0.67 * 5.97 = 3.9999
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := &models.OrderProduct{Amount: tt.amount, RetailPrice: dec(tt.retail)}
			got := CorrectionCredit(line, tt.supplied)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
