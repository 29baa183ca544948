package commission

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/money"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

var errAmountOutOfRange = shared.Validation("commission amount out of range")

// Computation is the outcome of applying a commission rule to an invoice amount.
type Computation struct {
	Mode             Mode
	Rate             decimal.Decimal
	BaseAmount       int64
	AdjustmentAmount int64
	Amount           int64
}

// Compute derives the commission for invoiceAmount under ct and an optional
// assignment. An inactive assignment is ignored. The result is clamped to the
// type's [minAmount, maxAmount], which default to [0, +inf).
func Compute(ct CommissionType, a *Assignment, invoiceAmount int64) (Computation, error) {
	if !ct.IsActive {
		return Computation{}, ErrTypeNotFound
	}
	if invoiceAmount <= 0 {
		return Computation{}, shared.Validation("invoiceAmount must be positive")
	}

	rate := decimal.Zero
	if ct.Rate != nil {
		rate = *ct.Rate
	}
	var fixed int64
	if ct.FixedAmount != nil {
		fixed = *ct.FixedAmount
	}
	additional := decimal.Zero
	if a != nil && a.IsActive {
		if a.FactorValue != nil {
			switch ct.Mode {
			case ModePercentage:
				rate = *a.FactorValue
			case ModeFixed:
				v, err := money.FromDecimal(*a.FactorValue)
				if err != nil {
					return Computation{}, shared.Validation("factorValue must be a whole amount for fixed commission types")
				}
				fixed = v
			}
		}
		additional = a.AdditionalRate
	}

	c := Computation{Mode: ct.Mode}
	switch ct.Mode {
	case ModePercentage:
		if ct.Rate == nil {
			return Computation{}, shared.Validation("percentage commission type has no rate")
		}
		base, err := money.ApplyRate(invoiceAmount, rate)
		if err != nil {
			return Computation{}, errAmountOutOfRange
		}
		c.BaseAmount = base
		c.Rate = rate.Add(additional)
	case ModeFixed:
		if ct.FixedAmount == nil {
			return Computation{}, shared.Validation("fixed commission type has no fixedAmount")
		}
		c.BaseAmount = fixed
		c.Rate = additional
	default:
		return Computation{}, shared.Validationf("unknown commission mode %q", ct.Mode)
	}
	adj, err := money.ApplyRate(invoiceAmount, additional)
	if err != nil {
		return Computation{}, errAmountOutOfRange
	}
	c.AdjustmentAmount = adj

	gross, err := money.Add(c.BaseAmount, c.AdjustmentAmount)
	if err != nil {
		return Computation{}, errAmountOutOfRange
	}
	c.Amount = money.Clamp(gross, ct.MinAmount, ct.MaxAmount)
	return c, nil
}
