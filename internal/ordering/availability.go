package ordering

import (
	"errors"
	"fmt"

	"voko-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRoundStillOpen = errors.New("order round is still open for orders")

// LinePlan is the outcome of checking a requested amount against what is
// still purchasable. Exceeding availability is not an error but a business
// rule: the line is clamped when something remains and dropped when
// nothing does, each with its own member-facing warning.
type LinePlan struct {
	Amount  int
	Clamped bool
	Deleted bool
}

// PlanOrderLine resolves a requested amount against availability.
// available == nil means the product has no cap.
func PlanOrderLine(requested int, available *int) LinePlan {
	if requested <= 0 {
		return LinePlan{Deleted: true}
	}
	if available == nil {
		return LinePlan{Amount: requested}
	}
	if *available <= 0 {
		return LinePlan{Deleted: true}
	}
	if requested > *available {
		return LinePlan{Amount: *available, Clamped: true}
	}
	return LinePlan{Amount: requested}
}

// ProductAvailability computes how many units of a product can still be
// ordered, or nil for unlimited. excludeOrderID keeps a member's own cart
// out of the count while they edit it.
//
// Round products count finalized orders against the supplier cap; stock
// products derive availability from their stock deltas minus every current
// order line, finalized or not.
func ProductAvailability(tx *gorm.DB, p *models.Product, excludeOrderID uint) (*int, error) {
	if p.IsStockProduct() {
		var added, lost, ordered int64

		if err := tx.Model(&models.ProductStock{}).
			Where("product_id = ? AND type = ?", p.ID, models.StockAdded).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&added).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.ProductStock{}).
			Where("product_id = ? AND type = ?", p.ID, models.StockLost).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&lost).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.OrderProduct{}).
			Where("product_id = ? AND order_id <> ?", p.ID, excludeOrderID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&ordered).Error; err != nil {
			return nil, err
		}

		avail := int(added - lost - ordered)
		return &avail, nil
	}

	if p.MaximumTotalOrder == nil {
		return nil, nil
	}

	var ordered int64
	if err := tx.Model(&models.OrderProduct{}).
		Joins("JOIN orders ON orders.id = order_products.order_id").
		Where("order_products.product_id = ? AND orders.finalized = true AND orders.id <> ?", p.ID, excludeOrderID).
		Select("COALESCE(SUM(order_products.amount), 0)").
		Scan(&ordered).Error; err != nil {
		return nil, err
	}

	avail := *p.MaximumTotalOrder - int(ordered)
	return &avail, nil
}

// ReplanOrderLines re-checks every line of an order against current
// availability, clamping or deleting exactly as at submission. It must run
// right before the order finalizes: un-finalized rival carts are invisible
// to the round-product cap, so two carts can each hold the last unit until
// one of them finalizes. The product row locks serialize concurrent
// checkouts, and the loser's line is clamped or dropped here.
func ReplanOrderLines(tx *gorm.DB, order *models.Order) ([]string, error) {
	var lines []models.OrderProduct
	if err := tx.Where("order_id = ?", order.ID).Order("id asc").Find(&lines).Error; err != nil {
		return nil, err
	}

	var warnings []string
	for i := range lines {
		line := &lines[i]

		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, line.ProductID).Error; err != nil {
			return nil, err
		}

		available, err := ProductAvailability(tx, &product, order.ID)
		if err != nil {
			return nil, err
		}
		plan := PlanOrderLine(line.Amount, available)

		switch {
		case plan.Deleted:
			if err := tx.Delete(line).Error; err != nil {
				return nil, err
			}
			warnings = append(warnings, fmt.Sprintf("%s is sold out and was removed from your order", product.Name))
		case plan.Clamped:
			if err := tx.Model(line).Update("amount", plan.Amount).Error; err != nil {
				return nil, err
			}
			warnings = append(warnings, fmt.Sprintf("Only %d of %s left, your order was adjusted", plan.Amount, product.Name))
		}
	}
	return warnings, nil
}
