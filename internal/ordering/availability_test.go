package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestPlanOrderLine(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		available *int
		want      LinePlan
	}{
		{"zero amount removes the line", 0, intPtr(10), LinePlan{Deleted: true}},
		{"negative amount removes the line", -3, intPtr(10), LinePlan{Deleted: true}},
		{"uncapped product takes any amount", 500, nil, LinePlan{Amount: 500}},
		{"within availability", 4, intPtr(10), LinePlan{Amount: 4}},
		{"exactly the last units", 10, intPtr(10), LinePlan{Amount: 10}},
		{"above availability clamps", 12, intPtr(10), LinePlan{Amount: 10, Clamped: true}},
		{"sold out drops the line", 3, intPtr(0), LinePlan{Deleted: true}},
		{"oversold stock drops the line", 3, intPtr(-2), LinePlan{Deleted: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanOrderLine(tt.requested, tt.available))
		})
	}
}

// Two members racing for the last units: the product row lock serializes
// them, so the second sees what the first already took.
func TestPlanOrderLineSequentialRace(t *testing.T) {
	remaining := 5

	first := PlanOrderLine(5, &remaining)
	assert.Equal(t, 5, first.Amount)
	assert.False(t, first.Clamped)

	remaining -= first.Amount

	second := PlanOrderLine(2, &remaining)
	assert.True(t, second.Deleted)
}

// Round-product availability only counts finalized orders, so two carts
// may each hold the last unit while neither is finalized. Checkout
// re-plans every line under a product lock right before finalizing; this
// walks that sequence for a cap of one.
func TestFinalizeReplanOneWinner(t *testing.T) {
	const supplierCap = 1
	finalized := 0 // units held by finalized orders

	availability := func() *int {
		avail := supplierCap - finalized
		return &avail
	}

	// Both carts were accepted at submission time: no finalized rivals.
	assert.Equal(t, 1, PlanOrderLine(1, availability()).Amount)
	assert.Equal(t, 1, PlanOrderLine(1, availability()).Amount)

	// First checkout re-plans, keeps the unit and finalizes.
	first := PlanOrderLine(1, availability())
	assert.Equal(t, LinePlan{Amount: 1}, first)
	finalized += first.Amount

	// Second checkout re-plans against the now-finalized rival: the line
	// is dropped, the cap is never oversold.
	second := PlanOrderLine(1, availability())
	assert.True(t, second.Deleted)
	assert.Equal(t, supplierCap, finalized)
}
