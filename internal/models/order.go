package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one member's cart for one round. It is created lazily on the
// first visit to the round and becomes immutable once finalized.
type Order struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"index;not null"`
	User         User
	OrderRoundID uint `gorm:"index;not null"`
	OrderRound   OrderRound
	Finalized    bool `gorm:"not null;default:false"`
	Paid         bool `gorm:"not null;default:false"`
	// Debit links the settlement ledger row once the order is paid.
	DebitID   *uint `gorm:"uniqueIndex"`
	Debit     *Balance
	UserNotes string `gorm:"size:500"`
	Products  []OrderProduct
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderProduct is one line item. Base and retail price are captured at
// order time so later catalog price changes never alter historical orders.
type OrderProduct struct {
	ID          uint `gorm:"primaryKey"`
	OrderID     uint `gorm:"not null;uniqueIndex:idx_order_line"`
	Order       Order
	ProductID   uint `gorm:"not null;index;uniqueIndex:idx_order_line"`
	Product     Product
	Amount      int             `gorm:"not null"`
	BasePrice   decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	RetailPrice decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (op *OrderProduct) Total() decimal.Decimal {
	return op.RetailPrice.Mul(decimal.NewFromInt(int64(op.Amount)))
}
