package audit

import (
	"strconv"

	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/audit-logs?entity_type=balance&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}

		limit := 100
		if ls := c.Query("limit"); ls != "" {
			n, err := strconv.Atoi(ls)
			if err != nil || n < 1 || n > 1000 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
			}
			limit = n
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(logs)
	}
}
