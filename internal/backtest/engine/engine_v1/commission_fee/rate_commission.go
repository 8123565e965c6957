package commission_fee

import "github.com/shopspring/decimal"

// RateCommissionFee charges a fraction of notional with a per-execution floor.
type RateCommissionFee struct {
	rate    decimal.Decimal
	minimum decimal.Decimal
}

func NewRateCommissionFee(rate decimal.Decimal, minimum decimal.Decimal) CommissionFee {
	return &RateCommissionFee{rate: rate, minimum: minimum}
}

// Calculate returns max(rate * notional, minimum).
func (c *RateCommissionFee) Calculate(_ decimal.Decimal, notional decimal.Decimal) decimal.Decimal {
	fee := c.rate.Mul(notional.Abs())
	if fee.LessThan(c.minimum) {
		return c.minimum
	}

	return fee
}
