package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRound is one recurring purchase cycle: members order between
// OpenForOrders and ClosedForOrders, supplier lists go out once after
// closing (OrderPlaced), goods arrive at CollectDatetime.
type OrderRound struct {
	ID               uint      `gorm:"primaryKey"`
	OpenForOrders    time.Time `gorm:"index;not null"`
	ClosedForOrders  time.Time `gorm:"not null"`
	CollectDatetime  time.Time `gorm:"index;not null"`
	MarkupPercentage decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	TransactionCosts decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	// OrderPlaced guards the one-shot supplier notification. Once true the
	// notification job must never fire again for this round.
	OrderPlaced bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *OrderRound) IsOpen(now time.Time) bool {
	return !now.Before(r.OpenForOrders) && now.Before(r.ClosedForOrders)
}

func (r *OrderRound) IsNotOpenYet(now time.Time) bool {
	return now.Before(r.OpenForOrders)
}

// IsCollected is implicit: there is no explicit field, a round counts as
// collected once its collect moment has passed.
func (r *OrderRound) IsCollected(now time.Time) bool {
	return now.After(r.CollectDatetime)
}
