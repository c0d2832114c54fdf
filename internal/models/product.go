package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;index"`
	Description string `gorm:"size:500"`
	Unit        string `gorm:"size:20;not null"` // kg, stuk, bos, liter
	UnitAmount  int    `gorm:"not null;default:1"`
	SupplierID  uint   `gorm:"index;not null"`
	Supplier    Supplier
	CategoryID  *uint `gorm:"index"`
	Category    *ProductCategory
	// A product without a round is a perpetual stock product; its
	// availability follows from ProductStock deltas, not the round calendar.
	OrderRoundID *uint `gorm:"index"`
	OrderRound   *OrderRound
	BasePrice    decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	// Nil means the supplier imposes no cap for this round.
	MaximumTotalOrder *int
	New               bool `gorm:"not null;default:false"`
	Enabled           bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Product) IsStockProduct() bool {
	return p.OrderRoundID == nil
}

type StockChangeType string

const (
	StockAdded StockChangeType = "added"
	StockLost  StockChangeType = "lost" // spoilage, breakage, counting errors
)

// ProductStock is an append-only stock delta for a stock product.
type ProductStock struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Type      StockChangeType `gorm:"size:10;not null"`
	Amount    int             `gorm:"not null"`
	Notes     string          `gorm:"size:255"`
	CreatedAt time.Time
}
