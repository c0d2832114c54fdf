package finance

import (
	"fmt"

	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NonPositiveAmountError is raised when someone tries to book a ledger row
// of zero or negative value. Silently clamping would mask a bookkeeping
// bug, so construction fails loudly with the offending amount.
type NonPositiveAmountError struct {
	Amount decimal.Decimal
}

func (e *NonPositiveAmountError) Error() string {
	return fmt.Sprintf("balance amount must be positive, got %s", e.Amount)
}

// NewBalanceEntry validates and builds a ledger row without persisting it.
func NewBalanceEntry(userID uint, typ models.BalanceType, amount decimal.Decimal, notes string) (*models.Balance, error) {
	amount = money.Round(amount)
	if amount.Sign() <= 0 {
		return nil, &NonPositiveAmountError{Amount: amount}
	}
	return &models.Balance{
		UserID: userID,
		Type:   typ,
		Amount: amount,
		Notes:  notes,
	}, nil
}

// MemberFeeEntry builds the yearly membership fee debit for one member.
// The amount comes from configuration so the fee run and a manual entry
// can never disagree.
func MemberFeeEntry(userID uint, fee decimal.Decimal, year int) (*models.Balance, error) {
	return NewBalanceEntry(userID, models.BalanceTypeDebit, fee,
		fmt.Sprintf("Membership fee %d", year))
}

// AppendEntry books one guarded, append-only ledger row.
func AppendEntry(tx *gorm.DB, userID uint, typ models.BalanceType, amount decimal.Decimal, notes string) (*models.Balance, error) {
	entry, err := NewBalanceEntry(userID, typ, amount, notes)
	if err != nil {
		return nil, err
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Credit sums all CR rows for a member. Pure read, nothing cached.
func Credit(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	return sumEntries(tx, userID, models.BalanceTypeCredit)
}

// Debit sums all DR rows for a member.
func Debit(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	return sumEntries(tx, userID, models.BalanceTypeDebit)
}

// RunningBalance is sum(CR) - sum(DR), always derived from the rows so it
// can never drift from them.
func RunningBalance(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	cr, err := Credit(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	dr, err := Debit(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return cr.Sub(dr), nil
}

func sumEntries(tx *gorm.DB, userID uint, typ models.BalanceType) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.Model(&models.Balance{}).
		Where("user_id = ? AND type = ?", userID, typ).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumEntries folds loaded ledger rows into a signed running balance, used
// to annotate a member's history listing.
func SumEntries(entries []models.Balance) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Type == models.BalanceTypeCredit {
			total = total.Add(e.Amount)
		} else {
			total = total.Sub(e.Amount)
		}
	}
	return total
}
