package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voko-backend/internal/audit"
	"voko-backend/internal/logger"
	"voko-backend/internal/models"
	"voko-backend/internal/ordering"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRoundClosed    = errors.New("the order round is no longer open")
	ErrEmptyOrder     = errors.New("the order has no lines")
	ErrAlreadyPaid    = errors.New("the order is already paid")
	ErrNotYourOrder   = errors.New("order belongs to another member")
	ErrMemberSleeping = errors.New("sleeping members do not take part in order rounds")
)

// ConfirmOutcome says what a confirmation attempt did.
type ConfirmOutcome int

const (
	// ConfirmAlreadyDone: a credit for this payment exists, or it is
	// already marked succeeded. The other confirmation path won the race;
	// doing nothing is the correct response.
	ConfirmAlreadyDone ConfirmOutcome = iota
	// ConfirmFailed: the gateway did not report success, nothing was booked.
	ConfirmFailed
	// ConfirmCompleted: credit booked, order debited and marked paid.
	ConfirmCompleted
	// ConfirmDeferred: the round closed before this (late) confirmation
	// arrived. Money received is always recorded, but the order is left
	// for manual review because supplier lists may already be out.
	ConfirmDeferred
	// ConfirmCreditOnly: the gateway settled a payment whose order is
	// already paid (a second checkout raced the first). The money lands as
	// credit; the order must not be debited a second time.
	ConfirmCreditOnly
)

// decideConfirm is the pure reconciliation rule for one confirmation
// attempt. Idempotency comes from the already-done and order-paid checks,
// not from mutual exclusion between the redirect callback and the webhook.
func decideConfirm(p *models.Payment, gatewayPaid, orderPaid, roundOpen bool) ConfirmOutcome {
	if p.Succeeded || p.BalanceID != nil {
		return ConfirmAlreadyDone
	}
	if !gatewayPaid {
		return ConfirmFailed
	}
	if orderPaid {
		return ConfirmCreditOnly
	}
	if roundOpen {
		return ConfirmCompleted
	}
	return ConfirmDeferred
}

// CheckoutResult is what the member needs to continue paying, or the
// settled order when existing credit covered the whole total. Warnings
// report lines that were clamped or dropped by the final availability
// check.
type CheckoutResult struct {
	Payment   *models.Payment
	IssuerURL string
	Payable   decimal.Decimal
	Settled   bool
	Warnings  []string
}

// Checkout finalizes a member's order and opens an iDeal transaction for
// the payable part. Existing positive credit is spent first; when it
// covers everything the order settles without touching the gateway.
//
// Finalizing is the moment the lines start counting against supplier
// caps, so every line is re-planned here under product row locks. Two
// members whose carts both hold the last unit serialize on those locks
// and only one order keeps the line.
func Checkout(db *gorm.DB, gw Gateway, orderID, userID uint, bank string, now time.Time) (*CheckoutResult, error) {
	var order models.Order
	var warnings []string
	var payable decimal.Decimal
	settled := false

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, orderID).Error; err != nil {
			return err
		}
		if order.UserID != userID {
			return ErrNotYourOrder
		}
		if order.Paid {
			return ErrAlreadyPaid
		}

		var member models.User
		if err := tx.First(&member, userID).Error; err != nil {
			return err
		}
		if !member.TakesPartInRounds() {
			return ErrMemberSleeping
		}

		var round models.OrderRound
		if err := tx.First(&round, order.OrderRoundID).Error; err != nil {
			return err
		}
		if !round.IsOpen(now) {
			return ErrRoundClosed
		}

		if !order.Finalized {
			w, err := ordering.ReplanOrderLines(tx, &order)
			if err != nil {
				return err
			}
			warnings = w
		}

		var lines []models.OrderProduct
		if err := tx.Where("order_id = ?", order.ID).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyOrder
		}

		total := ordering.OrderTotal(lines)
		balance, err := RunningBalance(tx, userID)
		if err != nil {
			return err
		}
		payable = ordering.MemberPayable(total, balance)

		if !order.Finalized {
			if err := tx.Model(&order).Update("finalized", true).Error; err != nil {
				return err
			}
			order.Finalized = true
		}

		// Credit covers the whole order: settle in place.
		if payable.Sign() == 0 {
			settled = true
			return settleOrder(tx, &order, total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		return &CheckoutResult{Payable: payable, Settled: true, Warnings: warnings}, nil
	}

	reference := uuid.NewString()
	gwTx, err := gw.CreateTransaction(context.Background(), payable, bank,
		fmt.Sprintf("VOKO order %d", order.ID), reference)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		OrderID:         order.ID,
		Amount:          payable,
		TransactionID:   gwTx.TransactionID,
		TransactionCode: reference,
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Payment:   &payment,
		IssuerURL: gwTx.IssuerURL,
		Payable:   payable,
		Warnings:  warnings,
	}, nil
}

// ConfirmPayment reconciles one payment against the gateway's verdict. It
// is called from both the browser redirect and the server-to-server
// webhook; the two race freely and may arrive out of order or twice. All
// reads and writes happen under a row lock on the payment so exactly one
// attempt books the credit.
func ConfirmPayment(db *gorm.DB, paymentID uint, gatewayPaid bool, now time.Time) (ConfirmOutcome, error) {
	var outcome ConfirmOutcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, paymentID).Error; err != nil {
			return err
		}

		var order models.Order
		if err := tx.Preload("Products").Preload("OrderRound").
			First(&order, p.OrderID).Error; err != nil {
			return err
		}

		outcome = decideConfirm(&p, gatewayPaid, order.Paid, order.OrderRound.IsOpen(now))

		switch outcome {
		case ConfirmAlreadyDone:
			return nil

		case ConfirmFailed:
			logger.L.Info("payment not settled by gateway",
				zap.Uint("payment_id", p.ID),
				zap.String("transaction_id", p.TransactionID))
			return nil

		case ConfirmCompleted:
			if err := bookPaymentCredit(tx, &p, &order); err != nil {
				return err
			}
			return settleOrder(tx, &order, ordering.OrderTotal(order.Products))

		case ConfirmCreditOnly:
			if err := bookPaymentCredit(tx, &p, &order); err != nil {
				return err
			}
			logger.L.Warn("payment for an already settled order, booked as credit",
				zap.Uint("payment_id", p.ID),
				zap.Uint("order_id", order.ID))
			return audit.WriteLog(audit.LogOptions{
				UserID:      order.UserID,
				UserName:    "system",
				EntityType:  "payment",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Duplicate payment for order %d booked as credit, order not debited again", order.ID),
			})

		case ConfirmDeferred:
			if err := bookPaymentCredit(tx, &p, &order); err != nil {
				return err
			}
			logger.L.Error("payment confirmed after round closed, order needs manual review",
				zap.Uint("payment_id", p.ID),
				zap.Uint("order_id", order.ID))
			return audit.WriteLog(audit.LogOptions{
				UserID:      order.UserID,
				UserName:    "system",
				EntityType:  "payment",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Late payment for order %d: credit booked, completion deferred to manual review", order.ID),
			})
		}
		return nil
	})
	return outcome, err
}

// bookPaymentCredit creates the one-and-only CR row for a payment and
// marks it succeeded.
func bookPaymentCredit(tx *gorm.DB, p *models.Payment, order *models.Order) error {
	entry, err := AppendEntry(tx, order.UserID, models.BalanceTypeCredit, p.Amount,
		fmt.Sprintf("iDeal payment for order %d (%s)", order.ID, p.TransactionID))
	if err != nil {
		return err
	}
	p.Succeeded = true
	p.BalanceID = &entry.ID
	return tx.Model(p).Updates(map[string]interface{}{
		"succeeded":  true,
		"balance_id": entry.ID,
	}).Error
}

// settleOrder books the member's debit for the order total and marks the
// order paid. The debit row is linked one-to-one so the settlement can be
// traced from the order.
func settleOrder(tx *gorm.DB, order *models.Order, total decimal.Decimal) error {
	entry, err := AppendEntry(tx, order.UserID, models.BalanceTypeDebit, total,
		fmt.Sprintf("Order %d settled", order.ID))
	if err != nil {
		return err
	}
	return tx.Model(order).Updates(map[string]interface{}{
		"paid":     true,
		"debit_id": entry.ID,
	}).Error
}
