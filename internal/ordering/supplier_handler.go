package ordering

import (
	"voko-backend/internal/database"
	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SupplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// POST /api/admin/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		supplier := models.Supplier{
			Name:    body.Name,
			Email:   body.Email,
			Phone:   body.Phone,
			Address: body.Address,
			Notes:   body.Notes,
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "A supplier with this name already exists")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": supplier.ID})
	}
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}
		return c.JSON(suppliers)
	}
}

// POST /api/admin/product-categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		category := models.ProductCategory{Name: body.Name}
		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "A category with this name already exists")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": category.ID})
	}
}

// GET /api/product-categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.ProductCategory
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}
		return c.JSON(categories)
	}
}

type SupplierSettlementRow struct {
	SupplierID   uint   `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	// OrderTotal is amount x base price over finalized+paid orders: what
	// the cooperative owes before corrections. The markup never reaches
	// the supplier.
	OrderTotal string `json:"order_total"`
	// CorrectionTotal is the credited shortfall charged back to the
	// supplier (charge_supplier corrections only).
	CorrectionTotal string `json:"correction_total"`
	Payable         string `json:"payable"`
}

type SupplierSettlementResponse struct {
	RoundID          uint                    `json:"round_id"`
	TransactionCosts string                  `json:"transaction_costs"`
	Suppliers        []SupplierSettlementRow `json:"suppliers"`
}

// GET /api/admin/order-rounds/:id/settlement
// Per-supplier totals for one round, the basis for paying suppliers out.
func SupplierSettlementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		var round models.OrderRound
		if err := database.DB.First(&round, roundID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order round not found")
		}

		type totalRow struct {
			SupplierID   uint            `gorm:"column:supplier_id"`
			SupplierName string          `gorm:"column:supplier_name"`
			Total        decimal.Decimal `gorm:"column:total"`
		}

		var totals []totalRow
		if err := database.DB.Model(&models.OrderProduct{}).
			Select("products.supplier_id AS supplier_id, suppliers.name AS supplier_name, COALESCE(SUM(order_products.amount * order_products.base_price), 0) AS total").
			Joins("JOIN orders ON orders.id = order_products.order_id").
			Joins("JOIN products ON products.id = order_products.product_id").
			Joins("JOIN suppliers ON suppliers.id = products.supplier_id").
			Where("orders.order_round_id = ? AND orders.finalized = true AND orders.paid = true", roundID).
			Group("products.supplier_id, suppliers.name").
			Scan(&totals).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute settlement")
		}

		// The deduction is valued at base price, not at the member's
		// retail-priced credit: the supplier is only invoiced for what it
		// charged the cooperative in the first place.
		type correctionRow struct {
			SupplierID         uint            `gorm:"column:supplier_id"`
			Amount             int             `gorm:"column:amount"`
			BasePrice          decimal.Decimal `gorm:"column:base_price"`
			SuppliedPercentage int             `gorm:"column:supplied_percentage"`
		}
		var corrections []correctionRow
		if err := database.DB.Model(&models.OrderProductCorrection{}).
			Select("products.supplier_id AS supplier_id, order_products.amount AS amount, order_products.base_price AS base_price, order_product_corrections.supplied_percentage AS supplied_percentage").
			Joins("JOIN order_products ON order_products.id = order_product_corrections.order_product_id").
			Joins("JOIN orders ON orders.id = order_products.order_id").
			Joins("JOIN products ON products.id = order_products.product_id").
			Where("orders.order_round_id = ? AND order_product_corrections.charge_supplier = true", roundID).
			Scan(&corrections).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute corrections")
		}

		correctionBySupplier := make(map[uint]decimal.Decimal, len(corrections))
		for _, r := range corrections {
			shortfall := SupplierShortfall(r.Amount, r.BasePrice, r.SuppliedPercentage)
			correctionBySupplier[r.SupplierID] = correctionBySupplier[r.SupplierID].Add(shortfall)
		}

		resp := SupplierSettlementResponse{
			RoundID:          round.ID,
			TransactionCosts: round.TransactionCosts.StringFixed(2),
			Suppliers:        make([]SupplierSettlementRow, 0, len(totals)),
		}
		for _, r := range totals {
			corr := correctionBySupplier[r.SupplierID]
			resp.Suppliers = append(resp.Suppliers, SupplierSettlementRow{
				SupplierID:      r.SupplierID,
				SupplierName:    r.SupplierName,
				OrderTotal:      money.Round(r.Total).StringFixed(2),
				CorrectionTotal: corr.StringFixed(2),
				Payable:         money.Round(r.Total.Sub(corr)).StringFixed(2),
			})
		}
		return c.JSON(resp)
	}
}
