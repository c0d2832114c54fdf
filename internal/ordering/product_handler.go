package ordering

import (
	"time"

	"voko-backend/internal/database"
	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func parseMoney(s string) (decimal.Decimal, error) {
	return money.Parse(s)
}

type CreateProductRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Unit              string `json:"unit"`
	UnitAmount        int    `json:"unit_amount"`
	SupplierID        uint   `json:"supplier_id"`
	CategoryID        *uint  `json:"category_id"`
	OrderRoundID      *uint  `json:"order_round_id"` // nil = stock product
	BasePrice         string `json:"base_price"`
	MaximumTotalOrder *int   `json:"maximum_total_order"`
	New               bool   `json:"new"`
}

type ProductResponse struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Unit              string `json:"unit"`
	UnitAmount        int    `json:"unit_amount"`
	SupplierID        uint   `json:"supplier_id"`
	SupplierName      string `json:"supplier_name"`
	CategoryID        *uint  `json:"category_id"`
	OrderRoundID      *uint  `json:"order_round_id"`
	BasePrice         string `json:"base_price"`
	RetailPrice       string `json:"retail_price"`
	MaximumTotalOrder *int   `json:"maximum_total_order"`
	// Available is nil for uncapped products.
	Available *int `json:"available"`
	New       bool `json:"new"`
	Enabled   bool `json:"enabled"`
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Name == "" || body.Unit == "" || body.SupplierID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Name, unit and supplier are required")
		}
		price, err := parseMoney(body.BasePrice)
		if err != nil || price.Sign() <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "base_price must be a positive amount")
		}
		if body.MaximumTotalOrder != nil && *body.MaximumTotalOrder < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "maximum_total_order cannot be negative")
		}

		unitAmount := body.UnitAmount
		if unitAmount < 1 {
			unitAmount = 1
		}

		product := models.Product{
			Name:              body.Name,
			Description:       body.Description,
			Unit:              body.Unit,
			UnitAmount:        unitAmount,
			SupplierID:        body.SupplierID,
			CategoryID:        body.CategoryID,
			OrderRoundID:      body.OrderRoundID,
			BasePrice:         price,
			MaximumTotalOrder: body.MaximumTotalOrder,
			New:               body.New,
			Enabled:           true,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": product.ID})
	}
}

// PUT /api/admin/products/:id: catalog fields only. Price and stock
// changes for stock products go through the stock endpoint, which clones
// the product on a price change to keep batches priced honestly.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var body struct {
			Name              *string `json:"name"`
			Description       *string `json:"description"`
			MaximumTotalOrder *int    `json:"maximum_total_order"`
			New               *bool   `json:"new"`
			Enabled           *bool   `json:"enabled"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updates := map[string]interface{}{}
		if body.Name != nil && *body.Name != "" {
			updates["name"] = *body.Name
		}
		if body.Description != nil {
			updates["description"] = *body.Description
		}
		if body.MaximumTotalOrder != nil {
			updates["maximum_total_order"] = *body.MaximumTotalOrder
		}
		if body.New != nil {
			updates["new"] = *body.New
		}
		if body.Enabled != nil {
			updates["enabled"] = *body.Enabled
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Nothing to update")
		}

		if err := database.DB.Model(&product).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}
		return c.JSON(fiber.Map{"id": product.ID})
	}
}

// GET /api/order-rounds/current/products
// The member-facing catalog: round products of the resolved round plus all
// stock products, each with its remaining availability and retail price.
func RoundProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		round, err := CurrentOrderRound(database.DB, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not resolve order round")
		}
		if round == nil {
			return c.JSON([]ProductResponse{})
		}

		var products []models.Product
		if err := database.DB.Preload("Supplier").
			Where("enabled = true AND (order_round_id = ? OR order_round_id IS NULL)", round.ID).
			Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			p := &products[i]
			available, err := ProductAvailability(database.DB, p, 0)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not compute availability")
			}
			resp = append(resp, ProductResponse{
				ID:                p.ID,
				Name:              p.Name,
				Description:       p.Description,
				Unit:              p.Unit,
				UnitAmount:        p.UnitAmount,
				SupplierID:        p.SupplierID,
				SupplierName:      p.Supplier.Name,
				CategoryID:        p.CategoryID,
				OrderRoundID:      p.OrderRoundID,
				BasePrice:         p.BasePrice.StringFixed(2),
				RetailPrice:       RetailPrice(p.BasePrice, round.MarkupPercentage).StringFixed(2),
				MaximumTotalOrder: p.MaximumTotalOrder,
				Available:         available,
				New:               p.New,
				Enabled:           p.Enabled,
			})
		}
		return c.JSON(resp)
	}
}
