package ordering

import (
	"errors"
	"fmt"
	"time"

	"voko-backend/internal/auth"
	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errBadSubmission = errors.New("bad submission")

type CartLineRequest struct {
	ProductID uint `json:"product_id"`
	Amount    int  `json:"amount"`
}

type CartRequest struct {
	Lines     []CartLineRequest `json:"lines"`
	UserNotes string            `json:"user_notes"`
}

type CartLineResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Amount      int    `json:"amount"`
	RetailPrice string `json:"retail_price"`
	Total       string `json:"total"`
}

type CartResponse struct {
	OrderID   uint               `json:"order_id"`
	RoundID   uint               `json:"round_id"`
	Finalized bool               `json:"finalized"`
	Paid      bool               `json:"paid"`
	Lines     []CartLineResponse `json:"lines"`
	Total     string             `json:"total"`
	Warnings  []string           `json:"warnings"`
}

// POST /api/order-rounds/current/cart
// Replaces the member's cart for the current round with the submitted
// lines. Lines above availability are clamped or dropped with a warning;
// a submission naming an unknown product is rejected whole, nothing is
// applied.
func SubmitCartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Something went wrong, please retry")
		}

		var member models.User
		if err := database.DB.First(&member, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load member")
		}
		if !member.TakesPartInRounds() {
			return fiber.NewError(fiber.StatusForbidden, "Sleeping members do not take part in order rounds")
		}

		now := time.Now()
		round, err := CurrentOrderRound(database.DB, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not resolve order round")
		}
		// The resolver may hand back a closed or future round so the site
		// always has something to show; ordering needs an open one.
		if round == nil || !round.IsOpen(now) {
			return fiber.NewError(fiber.StatusForbidden, "There is no order round open right now")
		}

		var order models.Order
		var warnings []string

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Cart is created lazily on first interaction with the round.
			if err := tx.Where(models.Order{UserID: userID, OrderRoundID: round.ID}).
				FirstOrCreate(&order).Error; err != nil {
				return err
			}
			if order.Finalized {
				return ErrOrderFinalized
			}

			if body.UserNotes != "" {
				if err := tx.Model(&order).Update("user_notes", body.UserNotes).Error; err != nil {
					return err
				}
			}

			for _, lineReq := range body.Lines {
				warning, err := applyCartLine(tx, round, &order, lineReq)
				if err != nil {
					return err
				}
				if warning != "" {
					warnings = append(warnings, warning)
				}
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrOrderFinalized) {
				return fiber.NewError(fiber.StatusConflict, "This order is finalized and can no longer change")
			}
			// Tampered or stale product ids roll the whole submission back.
			// The message stays generic on purpose.
			return fiber.NewError(fiber.StatusBadRequest, "Something went wrong, please retry")
		}

		return c.JSON(cartResponse(&order, round, warnings))
	}
}

var ErrOrderFinalized = errors.New("order is finalized")

// applyCartLine upserts one cart line under a row lock on the product, so
// two members racing for the last units cannot both pass the availability
// check.
func applyCartLine(tx *gorm.DB, round *models.OrderRound, order *models.Order, req CartLineRequest) (string, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, req.ProductID).Error; err != nil {
		return "", errBadSubmission
	}
	if !product.Enabled {
		return "", errBadSubmission
	}
	// Round products must belong to the round being ordered in; stock
	// products are always orderable.
	if !product.IsStockProduct() && (product.OrderRoundID == nil || *product.OrderRoundID != round.ID) {
		return "", errBadSubmission
	}

	available, err := ProductAvailability(tx, &product, order.ID)
	if err != nil {
		return "", err
	}
	plan := PlanOrderLine(req.Amount, available)

	if plan.Deleted {
		if err := tx.Where("order_id = ? AND product_id = ?", order.ID, product.ID).
			Delete(&models.OrderProduct{}).Error; err != nil {
			return "", err
		}
		if req.Amount > 0 {
			return fmt.Sprintf("%s is sold out and was removed from your order", product.Name), nil
		}
		return "", nil
	}

	line := models.OrderProduct{
		OrderID:     order.ID,
		ProductID:   product.ID,
		Amount:      plan.Amount,
		BasePrice:   product.BasePrice,
		RetailPrice: RetailPrice(product.BasePrice, round.MarkupPercentage),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&line).Error; err != nil {
		return "", err
	}

	if plan.Clamped {
		return fmt.Sprintf("Only %d of %s left, your order was adjusted", plan.Amount, product.Name), nil
	}
	return "", nil
}

func cartResponse(order *models.Order, round *models.OrderRound, warnings []string) CartResponse {
	var lines []models.OrderProduct
	database.DB.Preload("Product").Where("order_id = ?", order.ID).Order("id asc").Find(&lines)

	resp := CartResponse{
		OrderID:   order.ID,
		RoundID:   round.ID,
		Finalized: order.Finalized,
		Paid:      order.Paid,
		Lines:     make([]CartLineResponse, 0, len(lines)),
		Total:     OrderTotal(lines).StringFixed(2),
		Warnings:  warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.Product.Name,
			Amount:      l.Amount,
			RetailPrice: l.RetailPrice.StringFixed(2),
			Total:       l.Total().StringFixed(2),
		})
	}
	return resp
}

// GET /api/order-rounds/current/cart
func GetCartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		now := time.Now()
		round, err := CurrentOrderRound(database.DB, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not resolve order round")
		}
		if round == nil {
			return c.Status(fiber.StatusNoContent).Send(nil)
		}

		var order models.Order
		res := database.DB.Where("user_id = ? AND order_round_id = ?", userID, round.ID).
			Limit(1).Find(&order)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load order")
		}
		if res.RowsAffected == 0 {
			return c.JSON(CartResponse{RoundID: round.ID, Lines: []CartLineResponse{}, Total: "0.00", Warnings: []string{}})
		}

		return c.JSON(cartResponse(&order, round, nil))
	}
}

// GET /api/orders/mine: order history across rounds.
func MyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var orders []models.Order
		if err := database.DB.Preload("Products").Preload("OrderRound").
			Where("user_id = ?", userID).
			Order("id desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list orders")
		}

		resp := make([]fiber.Map, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, fiber.Map{
				"order_id":   o.ID,
				"round_id":   o.OrderRoundID,
				"collect":    o.OrderRound.CollectDatetime.Format(time.RFC3339),
				"finalized":  o.Finalized,
				"paid":       o.Paid,
				"total":      OrderTotal(o.Products).StringFixed(2),
				"user_notes": o.UserNotes,
			})
		}
		return c.JSON(resp)
	}
}
