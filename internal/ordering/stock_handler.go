package ordering

import (
	"fmt"

	"voko-backend/internal/audit"
	"voko-backend/internal/auth"
	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AddStockRequest struct {
	Type   models.StockChangeType `json:"type"` // "added" | "lost"
	Amount int                    `json:"amount"`
	// BasePrice is only meaningful for "added". When it differs from the
	// product's current price, the delta lands on a fresh clone of the
	// product so every batch keeps its own purchase price.
	BasePrice *string `json:"base_price"`
	Notes     string  `json:"notes"`
}

// POST /api/admin/products/:id/stock
func AddStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var body AddStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Type != models.StockAdded && body.Type != models.StockLost {
			return fiber.NewError(fiber.StatusBadRequest, "type must be 'added' or 'lost'")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if !product.IsStockProduct() {
			return fiber.NewError(fiber.StatusBadRequest, "Stock deltas only apply to stock products")
		}

		targetID := product.ID
		cloned := false

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if body.Type == models.StockAdded && body.BasePrice != nil {
				price, err := parseMoney(*body.BasePrice)
				if err != nil || price.Sign() <= 0 {
					return fiber.NewError(fiber.StatusBadRequest, "base_price must be a positive amount")
				}
				if !price.Equal(product.BasePrice) {
					// Never average a new purchase price into the old batch.
					clone := models.Product{
						Name:        product.Name,
						Description: product.Description,
						Unit:        product.Unit,
						UnitAmount:  product.UnitAmount,
						SupplierID:  product.SupplierID,
						CategoryID:  product.CategoryID,
						BasePrice:   price,
						New:         product.New,
						Enabled:     product.Enabled,
					}
					if err := tx.Create(&clone).Error; err != nil {
						return err
					}
					// The old batch stops selling once its remaining stock
					// is what it is; new orders go to the clone.
					targetID = clone.ID
					cloned = true
				}
			}

			delta := models.ProductStock{
				ProductID: targetID,
				Type:      body.Type,
				Amount:    body.Amount,
				Notes:     body.Notes,
			}
			return tx.Create(&delta).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record stock change")
		}

		userID, _ := auth.CurrentUserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			EntityType:  "product_stock",
			EntityID:    targetID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Stock %s: %d x %s", body.Type, body.Amount, product.Name),
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"product_id": targetID,
			"cloned":     cloned,
		})
	}
}

// GET /api/admin/products/stock: current stock position per stock product.
func StockOverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Where("order_round_id IS NULL").
			Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock products")
		}

		resp := make([]fiber.Map, 0, len(products))
		for i := range products {
			p := &products[i]
			available, err := ProductAvailability(database.DB, p, 0)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not compute stock")
			}
			resp = append(resp, fiber.Map{
				"product_id": p.ID,
				"name":       p.Name,
				"base_price": p.BasePrice.StringFixed(2),
				"available":  available,
				"enabled":    p.Enabled,
			})
		}
		return c.JSON(resp)
	}
}
