package ordering

import (
	"errors"
	"time"

	"voko-backend/internal/audit"
	"voko-backend/internal/auth"
	"voko-backend/internal/config"
	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OrderRoundResponse struct {
	ID               uint   `json:"id"`
	OpenForOrders    string `json:"open_for_orders"`
	ClosedForOrders  string `json:"closed_for_orders"`
	CollectDatetime  string `json:"collect_datetime"`
	MarkupPercentage string `json:"markup_percentage"`
	TransactionCosts string `json:"transaction_costs"`
	OrderPlaced      bool   `json:"order_placed"`
	IsOpen           bool   `json:"is_open"`
	IsNotOpenYet     bool   `json:"is_not_open_yet"`
	IsCollected      bool   `json:"is_collected"`
}

func roundResponse(r *models.OrderRound, now time.Time) OrderRoundResponse {
	return OrderRoundResponse{
		ID:               r.ID,
		OpenForOrders:    r.OpenForOrders.Format(time.RFC3339),
		ClosedForOrders:  r.ClosedForOrders.Format(time.RFC3339),
		CollectDatetime:  r.CollectDatetime.Format(time.RFC3339),
		MarkupPercentage: r.MarkupPercentage.StringFixed(2),
		TransactionCosts: r.TransactionCosts.StringFixed(2),
		OrderPlaced:      r.OrderPlaced,
		IsOpen:           r.IsOpen(now),
		IsNotOpenYet:     r.IsNotOpenYet(now),
		IsCollected:      r.IsCollected(now),
	}
}

// GET /api/order-rounds/current
// Falls back from open to upcoming to most recent, so there is always a
// round to show as long as one ever existed.
func CurrentRoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		round, err := CurrentOrderRound(database.DB, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not resolve order round")
		}
		if round == nil {
			return c.Status(fiber.StatusNoContent).Send(nil)
		}
		return c.JSON(roundResponse(round, now))
	}
}

// GET /api/order-rounds
func ListRoundsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		var rounds []models.OrderRound
		if err := database.DB.Order("open_for_orders desc").Find(&rounds).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list order rounds")
		}
		resp := make([]OrderRoundResponse, 0, len(rounds))
		for i := range rounds {
			resp = append(resp, roundResponse(&rounds[i], now))
		}
		return c.JSON(resp)
	}
}

type CreateRoundRequest struct {
	OpenForOrders    string  `json:"open_for_orders"`   // RFC3339
	ClosedForOrders  string  `json:"closed_for_orders"` // RFC3339
	CollectDatetime  string  `json:"collect_datetime"`  // RFC3339
	MarkupPercentage *string `json:"markup_percentage"` // defaults from config
	TransactionCosts *string `json:"transaction_costs"`
}

// POST /api/admin/order-rounds: manual round creation.
func CreateRoundHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRoundRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		open, err1 := time.Parse(time.RFC3339, body.OpenForOrders)
		closed, err2 := time.Parse(time.RFC3339, body.ClosedForOrders)
		collect, err3 := time.Parse(time.RFC3339, body.CollectDatetime)
		if err1 != nil || err2 != nil || err3 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dates must be RFC3339 timestamps")
		}
		if !open.Before(closed) || !closed.Before(collect) {
			return fiber.NewError(fiber.StatusBadRequest, "Dates must satisfy open < closed < collect")
		}

		round := models.OrderRound{
			OpenForOrders:    open,
			ClosedForOrders:  closed,
			CollectDatetime:  collect,
			MarkupPercentage: cfg.MarkupPercentage,
			TransactionCosts: cfg.TransactionCosts,
		}
		if body.MarkupPercentage != nil {
			d, err := parseMoney(*body.MarkupPercentage)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "markup_percentage is not a valid amount")
			}
			round.MarkupPercentage = d
		}
		if body.TransactionCosts != nil {
			d, err := parseMoney(*body.TransactionCosts)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "transaction_costs is not a valid amount")
			}
			round.TransactionCosts = d
		}

		if err := database.DB.Create(&round).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create order round")
		}

		return c.Status(fiber.StatusCreated).JSON(roundResponse(&round, time.Now()))
	}
}

// POST /api/admin/order-rounds/ensure-next
// Endpoint for the periodic scheduler: creates the upcoming round when
// none is planned. Safe to call as often as you like.
func EnsureNextRoundHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		created, err := EnsureNextRound(database.DB, cfg, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not schedule next round")
		}
		now := time.Now()
		resp := make([]OrderRoundResponse, 0, len(created))
		for i := range created {
			resp = append(resp, roundResponse(&created[i], now))
		}
		return c.JSON(fiber.Map{"created": resp})
	}
}

// POST /api/admin/order-rounds/:id/place-order
// Trigger for the supplier-notification job. Guarded by the order_placed
// flag: firing twice is a silent no-op.
func PlaceOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		fired, err := MarkOrderPlaced(database.DB, uint(roundID), time.Now())
		if err != nil {
			if errors.Is(err, ErrRoundStillOpen) {
				return fiber.NewError(fiber.StatusConflict, "The round is still open for orders")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not mark order placed")
		}

		if fired {
			userID, _ := auth.CurrentUserID(c)
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				EntityType:  "order_round",
				EntityID:    uint(roundID),
				Action:      models.AuditActionUpdate,
				Description: "Supplier order lists dispatched",
			})
		}

		return c.JSON(fiber.Map{"order_placed": true, "dispatched_now": fired})
	}
}
