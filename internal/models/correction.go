package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderProductCorrection records that a supplier delivered only part of an
// ordered line. The member credit is computed once at creation and is
// immutable afterwards; a later dispute needs a new correction record.
type OrderProductCorrection struct {
	ID             uint `gorm:"primaryKey"`
	OrderProductID uint `gorm:"uniqueIndex;not null"`
	OrderProduct   OrderProduct
	// How much of the ordered amount actually arrived, 0..100.
	SuppliedPercentage int             `gorm:"not null"`
	CreditAmount       decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	// CreditID is nil when the shortfall rounds down to 0.00: the ledger
	// refuses non-positive rows, so no Balance entry is written then.
	CreditID *uint `gorm:"uniqueIndex"`
	Credit   *Balance
	// ChargeSupplier decides who absorbs the shortfall on the supplier
	// invoice; it never changes what the member is credited.
	ChargeSupplier bool   `gorm:"not null;default:true"`
	Notes          string `gorm:"size:500"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
