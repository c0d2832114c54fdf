package ordering

import (
	"testing"

	"voko-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRetailPrice(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		markup string
		want   string
	}{
		{"seven percent on a euro", "1.00", "7.0", "1.07"},
		{"truncates the extra fraction", "1.05", "7.0", "1.12"}, // 1.1235 -> 1.12
		{"zero markup keeps the base", "2.50", "0", "2.50"},
		{"never rounds up", "0.99", "7.0", "1.05"}, // 1.0593 -> 1.05
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetailPrice(dec(tt.base), dec(tt.markup))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOrderTotal(t *testing.T) {
	lines := []models.OrderProduct{
		{Amount: 10, RetailPrice: dec("1.07")},
		{Amount: 2, RetailPrice: dec("2.50")},
	}
	assert.Equal(t, "15.70", OrderTotal(lines).StringFixed(2))
	assert.Equal(t, "0.00", OrderTotal(nil).StringFixed(2))
}

func TestSupplierTotal(t *testing.T) {
	lines := []models.OrderProduct{
		{Amount: 10, BasePrice: dec("1.00"), RetailPrice: dec("1.07")},
	}
	// The markup stays with the cooperative.
	assert.Equal(t, "10.00", SupplierTotal(lines).StringFixed(2))
}

func TestSupplierShortfall(t *testing.T) {
	tests := []struct {
		name     string
		amount   int
		base     string
		supplied int
		want     string
	}{
		{"half delivered at base price", 1, "1.00", 50, "0.50"},
		{"nothing delivered invoices the full base line", 2, "1.00", 0, "2.00"},
		{"fully delivered deducts nothing", 3, "1.00", 100, "0.00"},
		{"truncates like every amount", 3, "1.99", 33, "3.99"}, // 0.67 * 5.97
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SupplierShortfall(tt.amount, dec(tt.base), tt.supplied)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}

	// The member credit is retail-priced; the supplier deduction is not.
	// The markup on undelivered goods stays with the cooperative.
	t.Run("deduction stays below the retail credit", func(t *testing.T) {
		retailCredit := dec("0.53") // 50% of 1 x 1.07
		deduction := SupplierShortfall(1, dec("1.00"), 50)
		assert.True(t, deduction.LessThan(retailCredit))
		assert.Equal(t, "0.50", deduction.StringFixed(2))
	})
}

func TestMemberPayable(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		balance string
		want    string
	}{
		{"no credit pays the full total", "15.70", "0.00", "15.70"},
		{"credit reduces the charge", "15.70", "5.00", "10.70"},
		{"credit covering everything pays nothing", "15.70", "20.00", "0.00"},
		{"credit exactly matching pays nothing", "15.70", "15.70", "0.00"},
		{"debt never inflates the charge", "15.70", "-8.00", "15.70"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MemberPayable(dec(tt.total), dec(tt.balance))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
