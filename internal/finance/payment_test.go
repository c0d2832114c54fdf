package finance

import (
	"testing"

	"voko-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func uintPtr(n uint) *uint { return &n }

func TestDecideConfirm(t *testing.T) {
	tests := []struct {
		name        string
		payment     models.Payment
		gatewayPaid bool
		orderPaid   bool
		roundOpen   bool
		want        ConfirmOutcome
	}{
		{
			name:        "fresh payment, gateway paid, round open",
			payment:     models.Payment{},
			gatewayPaid: true,
			roundOpen:   true,
			want:        ConfirmCompleted,
		},
		{
			name:        "fresh payment, gateway not paid",
			payment:     models.Payment{},
			gatewayPaid: false,
			roundOpen:   true,
			want:        ConfirmFailed,
		},
		{
			name:        "late success after the round closed",
			payment:     models.Payment{},
			gatewayPaid: true,
			roundOpen:   false,
			want:        ConfirmDeferred,
		},
		{
			name:        "webhook after the callback already booked the credit",
			payment:     models.Payment{Succeeded: true, BalanceID: uintPtr(9)},
			gatewayPaid: true,
			roundOpen:   true,
			want:        ConfirmAlreadyDone,
		},
		{
			name:        "credit exists even though succeeded flag lagged",
			payment:     models.Payment{BalanceID: uintPtr(9)},
			gatewayPaid: true,
			roundOpen:   true,
			want:        ConfirmAlreadyDone,
		},
		{
			name:        "already done wins even when the gateway now reports unpaid",
			payment:     models.Payment{Succeeded: true},
			gatewayPaid: false,
			roundOpen:   false,
			want:        ConfirmAlreadyDone,
		},
		{
			name:        "second pending payment of a settled order books credit only",
			payment:     models.Payment{},
			gatewayPaid: true,
			orderPaid:   true,
			roundOpen:   true,
			want:        ConfirmCreditOnly,
		},
		{
			name:        "paid order after round close still never settles twice",
			payment:     models.Payment{},
			gatewayPaid: true,
			orderPaid:   true,
			roundOpen:   false,
			want:        ConfirmCreditOnly,
		},
		{
			name:        "unpaid gateway verdict beats the paid order",
			payment:     models.Payment{},
			gatewayPaid: false,
			orderPaid:   true,
			roundOpen:   true,
			want:        ConfirmFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideConfirm(&tt.payment, tt.gatewayPaid, tt.orderPaid, tt.roundOpen)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Confirming twice in a row must be a no-op the second time, whatever
// order the callback and the webhook arrive in.
func TestDecideConfirmIdempotent(t *testing.T) {
	p := models.Payment{}

	first := decideConfirm(&p, true, false, true)
	assert.Equal(t, ConfirmCompleted, first)

	// bookPaymentCredit and settleOrder would have done this.
	p.Succeeded = true
	p.BalanceID = uintPtr(1)

	second := decideConfirm(&p, true, true, true)
	assert.Equal(t, ConfirmAlreadyDone, second)
}

// A member who started checkout twice ends up with two pending Payment
// rows. Once the first settles the order, the second may still bring real
// money, but it must never debit the order again.
func TestDecideConfirmDuplicateCheckout(t *testing.T) {
	firstPayment := models.Payment{}
	secondPayment := models.Payment{}

	assert.Equal(t, ConfirmCompleted, decideConfirm(&firstPayment, true, false, true))

	// First confirmation booked its credit and settled the order.
	firstPayment.Succeeded = true
	firstPayment.BalanceID = uintPtr(1)
	orderPaid := true

	got := decideConfirm(&secondPayment, true, orderPaid, true)
	assert.Equal(t, ConfirmCreditOnly, got, "a settled order must not be debited a second time")
}

func TestGatewayStatusPaid(t *testing.T) {
	const secret = "s3cret"

	paid := GatewayStatus{
		TransactionID: "tx-123",
		Status:        "Success",
	}
	paid.Checksum = checksum(secret, paid.TransactionID, paid.Status)

	assert.True(t, paid.Paid(secret))

	t.Run("non-success status never counts as paid", func(t *testing.T) {
		s := GatewayStatus{TransactionID: "tx-123", Status: "Cancelled"}
		s.Checksum = checksum(secret, s.TransactionID, s.Status)
		assert.False(t, s.Paid(secret))
	})

	t.Run("tampered checksum never counts as paid", func(t *testing.T) {
		s := paid
		s.Checksum = "deadbeef"
		assert.False(t, s.Paid(secret))
	})
}
