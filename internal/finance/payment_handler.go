package finance

import (
	"errors"
	"time"

	"voko-backend/internal/auth"
	"voko-backend/internal/config"
	"voko-backend/internal/database"
	"voko-backend/internal/logger"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	Bank string `json:"bank"`
}

// POST /api/orders/:id/checkout
func CheckoutHandler(gw Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := c.ParamsInt("id")
		if err != nil || orderID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CheckoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		result, err := Checkout(database.DB, gw, uint(orderID), userID, body.Bank, time.Now())
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		case errors.Is(err, ErrNotYourOrder):
			return fiber.NewError(fiber.StatusForbidden, "This order belongs to another member")
		case errors.Is(err, ErrAlreadyPaid):
			return fiber.NewError(fiber.StatusConflict, "The order is already paid")
		case errors.Is(err, ErrRoundClosed):
			return fiber.NewError(fiber.StatusForbidden, "The order round is closed")
		case errors.Is(err, ErrMemberSleeping):
			return fiber.NewError(fiber.StatusForbidden, "Sleeping members do not take part in order rounds")
		case errors.Is(err, ErrEmptyOrder):
			return fiber.NewError(fiber.StatusUnprocessableEntity, "The order has no lines")
		default:
			logger.L.Error("checkout failed", zap.Uint("order_id", uint(orderID)), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "Could not start the payment")
		}

		warnings := result.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		if result.Settled {
			return c.JSON(fiber.Map{
				"settled":  true,
				"payable":  result.Payable.StringFixed(2),
				"warnings": warnings,
			})
		}
		return c.JSON(fiber.Map{
			"settled":    false,
			"payable":    result.Payable.StringFixed(2),
			"payment_id": result.Payment.ID,
			"code":       result.Payment.TransactionCode,
			"issuer_url": result.IssuerURL,
			"warnings":   warnings,
		})
	}
}

// GET /api/payments/callback?code=...
// The browser redirect back from the bank. The code is our own reference,
// never the gateway transaction id, so a member cannot guess foreign
// transactions.
func PaymentCallbackHandler(gw Gateway, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Query("code")
		if code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code is required")
		}

		var payment models.Payment
		if err := database.DB.Where("transaction_code = ?", code).First(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Unknown payment")
		}

		status, err := gw.TransactionStatus(c.Context(), payment.TransactionID)
		if err != nil {
			logger.L.Error("gateway status lookup failed",
				zap.Uint("payment_id", payment.ID), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "Could not verify the payment")
		}

		outcome, err := ConfirmPayment(database.DB, payment.ID, status.Paid(cfg.GatewaySecret), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not process the payment")
		}
		return c.JSON(confirmJSON(outcome))
	}
}

type WebhookRequest struct {
	TransactionID string `json:"transaction_id"`
}

// POST /api/payments/webhook
// Server-to-server notification from the gateway. Always answers 200 once
// the notification is syntactically valid, otherwise the gateway keeps
// retrying a payment we have already handled.
func PaymentWebhookHandler(gw Gateway, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WebhookRequest
		if err := c.BodyParser(&body); err != nil || body.TransactionID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "transaction_id is required")
		}

		var payment models.Payment
		if err := database.DB.Where("transaction_id = ?", body.TransactionID).First(&payment).Error; err != nil {
			// Not ours; acknowledge so the gateway stops retrying.
			logger.L.Warn("webhook for unknown transaction",
				zap.String("transaction_id", body.TransactionID))
			return c.JSON(fiber.Map{"status": "ignored"})
		}

		status, err := gw.TransactionStatus(c.Context(), payment.TransactionID)
		if err != nil {
			logger.L.Error("gateway status lookup failed",
				zap.Uint("payment_id", payment.ID), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "Could not verify the payment")
		}

		outcome, err := ConfirmPayment(database.DB, payment.ID, status.Paid(cfg.GatewaySecret), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not process the payment")
		}
		return c.JSON(confirmJSON(outcome))
	}
}

func confirmJSON(outcome ConfirmOutcome) fiber.Map {
	switch outcome {
	case ConfirmAlreadyDone:
		return fiber.Map{"status": "already_processed"}
	case ConfirmFailed:
		return fiber.Map{"status": "not_paid"}
	case ConfirmCompleted:
		return fiber.Map{"status": "paid"}
	case ConfirmDeferred:
		return fiber.Map{"status": "received_pending_review"}
	case ConfirmCreditOnly:
		return fiber.Map{"status": "credited"}
	}
	return fiber.Map{"status": "unknown"}
}

// GET /api/payments/mine
func MyPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var payments []models.Payment
		if err := database.DB.
			Joins("JOIN orders ON orders.id = payments.order_id").
			Where("orders.user_id = ?", userID).
			Order("payments.id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payments")
		}

		resp := make([]fiber.Map, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, fiber.Map{
				"id":         p.ID,
				"order_id":   p.OrderID,
				"amount":     p.Amount.StringFixed(2),
				"succeeded":  p.Succeeded,
				"created_at": p.CreatedAt.Format(time.RFC3339),
			})
		}
		return c.JSON(resp)
	}
}
