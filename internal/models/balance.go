package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceType string

const (
	BalanceTypeCredit BalanceType = "CR"
	BalanceTypeDebit  BalanceType = "DR"
)

// Balance is an append-only ledger row. Amount is always positive, the
// sign lives in Type; the running balance per user is sum(CR) - sum(DR)
// and is never stored. Rows have no UpdatedAt on purpose: once written
// they are never touched again.
type Balance struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index;not null"`
	User      User
	Type      BalanceType     `gorm:"size:2;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Notes     string          `gorm:"size:255"`
	CreatedAt time.Time
}
