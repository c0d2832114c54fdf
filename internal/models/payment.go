package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records one iDeal transaction for an order. The Balance credit
// is created exactly once, upon confirmed success; re-confirmation (the
// redirect callback and the webhook race) must never create a second one.
type Payment struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"index;not null"`
	Order   Order
	Amount  decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	// TransactionID is the gateway-side identifier, TransactionCode our own
	// reference handed to the gateway when the transaction was created.
	TransactionID   string `gorm:"size:64;index"`
	TransactionCode string `gorm:"size:64;uniqueIndex"`
	Succeeded       bool   `gorm:"not null;default:false"`
	BalanceID       *uint  `gorm:"uniqueIndex"`
	Balance         *Balance
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
