package finance

import (
	"errors"

	"voko-backend/internal/auth"
	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateCorrectionRequest struct {
	OrderProductID     uint   `json:"order_product_id"`
	SuppliedPercentage *int   `json:"supplied_percentage"`
	ChargeSupplier     bool   `json:"charge_supplier"`
	Notes              string `json:"notes"`
}

type CorrectionResponse struct {
	ID                 uint   `json:"id"`
	OrderProductID     uint   `json:"order_product_id"`
	SuppliedPercentage int    `json:"supplied_percentage"`
	CreditAmount       string `json:"credit_amount"`
	CreditID           *uint  `json:"credit_id"`
	ChargeSupplier     bool   `json:"charge_supplier"`
	Notes              string `json:"notes"`
}

func correctionResponse(c *models.OrderProductCorrection) CorrectionResponse {
	return CorrectionResponse{
		ID:                 c.ID,
		OrderProductID:     c.OrderProductID,
		SuppliedPercentage: c.SuppliedPercentage,
		CreditAmount:       c.CreditAmount.StringFixed(2),
		CreditID:           c.CreditID,
		ChargeSupplier:     c.ChargeSupplier,
		Notes:              c.Notes,
	}
}

// POST /api/admin/corrections
func CreateCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCorrectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.OrderProductID == 0 || body.SuppliedPercentage == nil {
			return fiber.NewError(fiber.StatusBadRequest, "order_product_id and supplied_percentage are required")
		}
		if *body.SuppliedPercentage < 0 || *body.SuppliedPercentage > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "supplied_percentage must be between 0 and 100")
		}

		actorID, _ := auth.CurrentUserID(c)
		correction, err := CreateCorrection(database.DB, CorrectionOptions{
			OrderProductID:     body.OrderProductID,
			SuppliedPercentage: *body.SuppliedPercentage,
			ChargeSupplier:     body.ChargeSupplier,
			Notes:              body.Notes,
			ActorID:            actorID,
		})
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Order line not found")
		case errors.Is(err, ErrCorrectionExists):
			return fiber.NewError(fiber.StatusConflict, "This order line already has a correction")
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create correction")
		}

		return c.Status(fiber.StatusCreated).JSON(correctionResponse(correction))
	}
}

type UpdateCorrectionRequest struct {
	SuppliedPercentage *int    `json:"supplied_percentage"`
	Notes              *string `json:"notes"`
}

// PUT /api/admin/corrections/:id: notes only. Changing the percentage
// would silently change a credit the member already saw.
func UpdateCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid correction id")
		}

		var correction models.OrderProductCorrection
		if err := database.DB.First(&correction, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Correction not found")
		}

		var body UpdateCorrectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.SuppliedPercentage != nil && *body.SuppliedPercentage != correction.SuppliedPercentage {
			return fiber.NewError(fiber.StatusConflict, ErrCorrectionImmutable.Error())
		}
		if body.Notes == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Nothing to update")
		}

		if err := UpdateCorrectionNotes(database.DB, correction.ID, *body.Notes); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update correction")
		}
		correction.Notes = *body.Notes
		return c.JSON(correctionResponse(&correction))
	}
}

// GET /api/admin/order-rounds/:id/corrections
func ListCorrectionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		var corrections []models.OrderProductCorrection
		if err := database.DB.
			Joins("JOIN order_products ON order_products.id = order_product_corrections.order_product_id").
			Joins("JOIN orders ON orders.id = order_products.order_id").
			Where("orders.order_round_id = ?", roundID).
			Order("order_product_corrections.id asc").
			Find(&corrections).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list corrections")
		}

		resp := make([]CorrectionResponse, 0, len(corrections))
		for i := range corrections {
			resp = append(resp, correctionResponse(&corrections[i]))
		}
		return c.JSON(resp)
	}
}
