package finance

import (
	"testing"

	"voko-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewBalanceEntry(t *testing.T) {
	t.Run("valid credit", func(t *testing.T) {
		entry, err := NewBalanceEntry(7, models.BalanceTypeCredit, dec("12.50"), "iDeal payment")
		require.NoError(t, err)
		assert.Equal(t, uint(7), entry.UserID)
		assert.Equal(t, models.BalanceTypeCredit, entry.Type)
		assert.Equal(t, "12.50", entry.Amount.StringFixed(2))
	})

	t.Run("amount is truncated to cents", func(t *testing.T) {
		entry, err := NewBalanceEntry(7, models.BalanceTypeDebit, dec("3.999"), "")
		require.NoError(t, err)
		assert.Equal(t, "3.99", entry.Amount.StringFixed(2))
	})

	t.Run("zero amount is refused with the amount in the message", func(t *testing.T) {
		_, err := NewBalanceEntry(7, models.BalanceTypeCredit, decimal.Zero, "")
		require.Error(t, err)
		var npe *NonPositiveAmountError
		require.ErrorAs(t, err, &npe)
		assert.Contains(t, err.Error(), "0")
	})

	t.Run("negative amount is refused with the amount in the message", func(t *testing.T) {
		_, err := NewBalanceEntry(7, models.BalanceTypeDebit, dec("-4.20"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-4.2")
	})

	t.Run("sub-cent amount truncates to zero and is refused", func(t *testing.T) {
		_, err := NewBalanceEntry(7, models.BalanceTypeCredit, dec("0.004"), "")
		require.Error(t, err)
	})
}

func TestMemberFeeEntry(t *testing.T) {
	entry, err := MemberFeeEntry(7, dec("25.00"), 2026)
	require.NoError(t, err)
	assert.Equal(t, models.BalanceTypeDebit, entry.Type)
	assert.Equal(t, "25.00", entry.Amount.StringFixed(2))
	assert.Equal(t, "Membership fee 2026", entry.Notes)

	t.Run("a zero fee is refused like any other entry", func(t *testing.T) {
		_, err := MemberFeeEntry(7, decimal.Zero, 2026)
		require.Error(t, err)
	})
}

func TestSumEntries(t *testing.T) {
	entries := []models.Balance{
		{Type: models.BalanceTypeCredit, Amount: dec("25.00")},
		{Type: models.BalanceTypeDebit, Amount: dec("15.70")},
		{Type: models.BalanceTypeCredit, Amount: dec("0.53")},
	}
	assert.Equal(t, "9.83", SumEntries(entries).StringFixed(2))
	assert.Equal(t, "0.00", SumEntries(nil).StringFixed(2))

	t.Run("debits can push the balance negative", func(t *testing.T) {
		got := SumEntries([]models.Balance{
			{Type: models.BalanceTypeDebit, Amount: dec("25.00")},
		})
		assert.Equal(t, "-25.00", got.StringFixed(2))
	})
}
