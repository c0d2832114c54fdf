package ordering

import (
	"voko-backend/internal/models"
	"voko-backend/internal/money"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RetailPrice is what a member pays per unit: the supplier base price plus
// the cooperative markup, truncated to whole cents.
func RetailPrice(basePrice, markupPercentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(markupPercentage.Div(hundred))
	return money.Round(basePrice.Mul(factor))
}

// OrderTotal sums amount x retail over an order's lines. Line prices are
// already quantized, so the sum is exact.
func OrderTotal(lines []models.OrderProduct) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}

// SupplierTotal is what the cooperative owes the supplier for the given
// lines: amount x base price, without the markup. The markup is the
// cooperative's margin, it never reaches the supplier.
func SupplierTotal(lines []models.OrderProduct) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.BasePrice.Mul(money.FromInt(line.Amount)))
	}
	return total
}

// SupplierShortfall is the base-priced value of the undelivered part of a
// corrected order line, deducted from the supplier invoice. The member's
// correction credit is retail-priced; the markup on goods that never
// arrived is the cooperative's loss, not the supplier's.
func SupplierShortfall(amount int, basePrice decimal.Decimal, suppliedPercentage int) decimal.Decimal {
	shortfall := decimal.NewFromInt(int64(100 - suppliedPercentage)).Div(hundred)
	return money.Round(shortfall.Mul(money.FromInt(amount)).Mul(basePrice))
}

// MemberPayable is the amount the member settles through iDeal at
// checkout: the order total minus any positive running credit. A negative
// running balance does not inflate the charge (outstanding debt is
// collected through the ledger, not smuggled into a payment), and the
// round's transaction costs belong to supplier settlement, not to the
// member.
func MemberPayable(orderTotal, runningBalance decimal.Decimal) decimal.Decimal {
	if money.IsPositive(runningBalance) {
		payable := orderTotal.Sub(runningBalance)
		if payable.Sign() < 0 {
			return decimal.Zero
		}
		return money.Round(payable)
	}
	return money.Round(orderTotal)
}
