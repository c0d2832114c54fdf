package finance

import (
	"errors"
	"fmt"
	"time"

	"voko-backend/internal/audit"
	"voko-backend/internal/auth"
	"voko-backend/internal/config"
	"voko-backend/internal/database"
	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BalanceEntryResponse struct {
	ID        uint   `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	// Running is the balance after this row, oldest row first.
	Running string `json:"running"`
}

// GET /api/balance: the member's own credit, debit and history.
func MyBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		return balanceJSON(c, userID)
	}
}

// GET /api/admin/members/:id/balance
func MemberBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid member id")
		}
		return balanceJSON(c, uint(id))
	}
}

func balanceJSON(c *fiber.Ctx, userID uint) error {
	var entries []models.Balance
	if err := database.DB.Where("user_id = ?", userID).
		Order("id asc").Find(&entries).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load balance")
	}

	history := make([]BalanceEntryResponse, 0, len(entries))
	for i, e := range entries {
		running := SumEntries(entries[:i+1])
		history = append(history, BalanceEntryResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Amount:    e.Amount.StringFixed(2),
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
			Running:   running.StringFixed(2),
		})
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"balance": SumEntries(entries).StringFixed(2),
		"history": history,
	})
}

type CreateBalanceRequest struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"` // "CR" | "DR"
	Amount string `json:"amount"`
	Notes  string `json:"notes"`
}

// POST /api/admin/balances: manual ledger entry, e.g. the yearly member
// fee (DR) or a cash deposit (CR).
func CreateBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBalanceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		typ := models.BalanceType(body.Type)
		if typ != models.BalanceTypeCredit && typ != models.BalanceTypeDebit {
			return fiber.NewError(fiber.StatusBadRequest, "type must be CR or DR")
		}

		var member models.User
		if err := database.DB.First(&member, body.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Member not found")
		}

		amount, err := money.Parse(body.Amount)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "amount is not a valid amount")
		}

		entry, err := AppendEntry(database.DB, member.ID, typ, amount, body.Notes)
		if err != nil {
			var npe *NonPositiveAmountError
			if errors.As(err, &npe) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, npe.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create ledger entry")
		}

		actorID, _ := auth.CurrentUserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actorID,
			EntityType:  "balance",
			EntityID:    entry.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Manual %s of %s for member %d", body.Type, entry.Amount.StringFixed(2), member.ID),
			After:       entry,
		})

		balance, err := RunningBalance(database.DB, member.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute balance")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      entry.ID,
			"balance": balance.StringFixed(2),
		})
	}
}

// POST /api/admin/balances/member-fee
// Debits the configured yearly membership fee to every active member.
// Sleeping members are skipped; they pay again when they wake up.
func ChargeMemberFeeHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := time.Now().Year()

		var members []models.User
		if err := models.ActiveMembers(database.DB).Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list members")
		}

		charged := make([]uint, 0, len(members))
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			for _, m := range members {
				entry, err := MemberFeeEntry(m.ID, cfg.MemberFee, year)
				if err != nil {
					return err
				}
				if err := tx.Create(entry).Error; err != nil {
					return err
				}
				charged = append(charged, m.ID)
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not charge the membership fee")
		}

		actorID, _ := auth.CurrentUserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actorID,
			EntityType:  "balance",
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Membership fee %d of %s charged to %d members", year, cfg.MemberFee.StringFixed(2), len(charged)),
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"year":    year,
			"fee":     cfg.MemberFee.StringFixed(2),
			"charged": charged,
		})
	}
}
