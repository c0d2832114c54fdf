package logistics

import (
	"time"

	"voko-backend/internal/auth"
	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftRequest struct {
	OrderRoundID uint   `json:"order_round_id"`
	Start        string `json:"start"` // RFC3339
	End          string `json:"end"`
	Capacity     int    `json:"capacity"`
}

type ShiftResponse struct {
	ID           uint     `json:"id"`
	OrderRoundID uint     `json:"order_round_id"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Capacity     int      `json:"capacity"`
	Members      []string `json:"members"`
	SpotsLeft    int      `json:"spots_left"`
}

func shiftResponse(s *models.DistributionShift) ShiftResponse {
	members := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, m.Name)
	}
	return ShiftResponse{
		ID:           s.ID,
		OrderRoundID: s.OrderRoundID,
		Start:        s.Start.Format(time.RFC3339),
		End:          s.End.Format(time.RFC3339),
		Capacity:     s.Capacity,
		Members:      members,
		SpotsLeft:    s.Capacity - len(s.Members),
	}
}

// POST /api/admin/shifts
func CreateShiftHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		start, err := time.Parse(time.RFC3339, body.Start)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start must be RFC3339")
		}
		end, err := time.Parse(time.RFC3339, body.End)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end must be RFC3339")
		}
		if !start.Before(end) {
			return fiber.NewError(fiber.StatusBadRequest, "start must be before end")
		}
		if body.Capacity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "capacity must be at least 1")
		}

		var round models.OrderRound
		if err := database.DB.First(&round, body.OrderRoundID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order round not found")
		}

		shift := models.DistributionShift{
			OrderRoundID: round.ID,
			Start:        start,
			End:          end,
			Capacity:     body.Capacity,
		}
		if err := database.DB.Create(&shift).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create shift")
		}
		return c.Status(fiber.StatusCreated).JSON(shiftResponse(&shift))
	}
}

// GET /api/order-rounds/:id/shifts
func ListShiftsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		var shifts []models.DistributionShift
		if err := database.DB.Preload("Members").
			Where("order_round_id = ?", roundID).
			Order("start asc").Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list shifts")
		}

		resp := make([]ShiftResponse, 0, len(shifts))
		for i := range shifts {
			resp = append(resp, shiftResponse(&shifts[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/shifts/:id/signup: the member signs themselves up. The shift
// row is locked so two members cannot both take the last spot.
func ShiftSignupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shiftID, err := c.ParamsInt("id")
		if err != nil || shiftID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid shift id")
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var shift models.DistributionShift
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&shift, shiftID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Shift not found")
			}
			if err := tx.Model(&shift).Association("Members").Find(&shift.Members); err != nil {
				return err
			}
			for _, m := range shift.Members {
				if m.ID == userID {
					return fiber.NewError(fiber.StatusConflict, "You are already on this shift")
				}
			}
			if len(shift.Members) >= shift.Capacity {
				return fiber.NewError(fiber.StatusConflict, "The shift is full")
			}

			var member models.User
			if err := tx.First(&member, userID).Error; err != nil {
				return err
			}
			if err := tx.Model(&shift).Association("Members").Append(&member); err != nil {
				return err
			}
			shift.Members = append(shift.Members, member)
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not sign up")
		}
		return c.JSON(shiftResponse(&shift))
	}
}

type RideRequest struct {
	OrderRoundID uint   `json:"order_round_id"`
	SupplierID   uint   `json:"supplier_id"`
	DriverID     *uint  `json:"driver_id"`
	DepartAt     string `json:"depart_at"` // RFC3339
	Notes        string `json:"notes"`
}

// POST /api/admin/rides
func CreateRideHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RideRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		departAt, err := time.Parse(time.RFC3339, body.DepartAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "depart_at must be RFC3339")
		}

		var round models.OrderRound
		if err := database.DB.First(&round, body.OrderRoundID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order round not found")
		}
		var supplier models.Supplier
		if err := database.DB.First(&supplier, body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		if body.DriverID != nil {
			var driver models.User
			if err := database.DB.First(&driver, *body.DriverID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Driver not found")
			}
		}

		ride := models.TransportRide{
			OrderRoundID: round.ID,
			SupplierID:   supplier.ID,
			DriverID:     body.DriverID,
			DepartAt:     departAt,
			Notes:        body.Notes,
		}
		if err := database.DB.Create(&ride).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create ride")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": ride.ID})
	}
}

// PUT /api/rides/:id/driver: a member volunteers to drive, or an admin
// assigns someone.
func ClaimRideHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rideID, err := c.ParamsInt("id")
		if err != nil || rideID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid ride id")
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		res := database.DB.Model(&models.TransportRide{}).
			Where("id = ? AND driver_id IS NULL", rideID).
			Update("driver_id", userID)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not claim ride")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "The ride already has a driver")
		}
		return c.JSON(fiber.Map{"id": uint(rideID), "driver_id": userID})
	}
}

// GET /api/order-rounds/:id/rides
func ListRidesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		rides, err := loadRides(uint(roundID))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list rides")
		}
		return c.JSON(rides)
	}
}

func loadRides(roundID uint) ([]fiber.Map, error) {
	var rides []models.TransportRide
	if err := database.DB.Preload("Supplier").Preload("Driver").
		Where("order_round_id = ?", roundID).
		Order("depart_at asc").Find(&rides).Error; err != nil {
		return nil, err
	}

	resp := make([]fiber.Map, 0, len(rides))
	for _, r := range rides {
		entry := fiber.Map{
			"id":            r.ID,
			"supplier_id":   r.SupplierID,
			"supplier_name": r.Supplier.Name,
			"depart_at":     r.DepartAt.Format(time.RFC3339),
			"notes":         r.Notes,
			"driver":        nil,
		}
		if r.Driver != nil {
			entry["driver"] = r.Driver.Name
		}
		resp = append(resp, entry)
	}
	return resp, nil
}

// GET /api/order-rounds/:id/calendar: shifts and rides of the round in
// one listing, what a member checks before collect day.
func RoundCalendarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID, err := c.ParamsInt("id")
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid round id")
		}

		var shifts []models.DistributionShift
		if err := database.DB.Preload("Members").
			Where("order_round_id = ?", roundID).
			Order("start asc").Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load calendar")
		}
		shiftResp := make([]ShiftResponse, 0, len(shifts))
		for i := range shifts {
			shiftResp = append(shiftResp, shiftResponse(&shifts[i]))
		}

		rides, err := loadRides(uint(roundID))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load calendar")
		}

		return c.JSON(fiber.Map{
			"round_id": uint(roundID),
			"shifts":   shiftResp,
			"rides":    rides,
		})
	}
}
