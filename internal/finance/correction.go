package finance

import (
	"errors"
	"fmt"

	"voko-backend/internal/audit"
	"voko-backend/internal/logger"
	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCorrectionExists = errors.New("this order line already has a correction")
	// ErrCorrectionImmutable: the credit was computed and communicated once;
	// a disputed percentage needs a new, separate correction record.
	ErrCorrectionImmutable = errors.New("supplied percentage cannot change after creation")
)

// CorrectionCredit is the member credit for a partially delivered line:
// the undelivered fraction of the retail line total, truncated to cents so
// the member is never over-credited.
func CorrectionCredit(line *models.OrderProduct, suppliedPercentage int) decimal.Decimal {
	shortfall := decimal.NewFromInt(int64(100 - suppliedPercentage)).Div(decimal.NewFromInt(100))
	return money.Round(shortfall.Mul(money.FromInt(line.Amount)).Mul(line.RetailPrice))
}

type CorrectionOptions struct {
	OrderProductID     uint
	SuppliedPercentage int
	ChargeSupplier     bool
	Notes              string
	ActorID            uint
	ActorName          string
}

// CreateCorrection books the one-and-only correction for an order line and
// its ledger credit. The credit amount is fixed here, at first save, and
// never recomputed afterwards.
func CreateCorrection(db *gorm.DB, opts CorrectionOptions) (*models.OrderProductCorrection, error) {
	if opts.SuppliedPercentage < 0 || opts.SuppliedPercentage > 100 {
		return nil, fmt.Errorf("supplied percentage must be 0..100, got %d", opts.SuppliedPercentage)
	}

	var correction *models.OrderProductCorrection
	err := db.Transaction(func(tx *gorm.DB) error {
		var line models.OrderProduct
		if err := tx.Preload("Order").First(&line, opts.OrderProductID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.OrderProductCorrection{}).
			Where("order_product_id = ?", line.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrCorrectionExists
		}

		credit := CorrectionCredit(&line, opts.SuppliedPercentage)

		correction = &models.OrderProductCorrection{
			OrderProductID:     line.ID,
			SuppliedPercentage: opts.SuppliedPercentage,
			CreditAmount:       credit,
			ChargeSupplier:     opts.ChargeSupplier,
			Notes:              opts.Notes,
		}

		// A full delivery (or one rounding down to zero) books no ledger
		// row: the ledger refuses non-positive amounts.
		if money.IsPositive(credit) {
			entry, err := AppendEntry(tx, line.Order.UserID, models.BalanceTypeCredit, credit,
				fmt.Sprintf("Correction: %d%% of order line %d delivered", opts.SuppliedPercentage, line.ID))
			if err != nil {
				return err
			}
			correction.CreditID = &entry.ID
		}

		return tx.Create(correction).Error
	})
	if err != nil {
		return nil, err
	}

	if logErr := audit.WriteLog(audit.LogOptions{
		UserID:      opts.ActorID,
		UserName:    opts.ActorName,
		EntityType:  "correction",
		EntityID:    correction.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Correction on line %d: %d%% delivered, %s credited", opts.OrderProductID, opts.SuppliedPercentage, correction.CreditAmount),
		After:       correction,
	}); logErr != nil {
		// not fatal for the correction itself
		logger.L.Warn("could not write audit log", zap.Error(logErr))
	}

	return correction, nil
}

// UpdateCorrectionNotes is the only mutation a correction allows.
func UpdateCorrectionNotes(db *gorm.DB, correctionID uint, notes string) error {
	return db.Model(&models.OrderProductCorrection{}).
		Where("id = ?", correctionID).
		Update("notes", notes).Error
}
