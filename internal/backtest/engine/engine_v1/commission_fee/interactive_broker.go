package commission_fee

import "github.com/shopspring/decimal"

var (
	ibPerShare = decimal.RequireFromString("0.005")
	ibMinimum  = decimal.NewFromInt(1)
)

// InteractiveBrokerCommissionFee charges 0.005 per share with a 1.0 minimum.
type InteractiveBrokerCommissionFee struct {
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity decimal.Decimal, _ decimal.Decimal) decimal.Decimal {
	fee := ibPerShare.Mul(quantity.Abs())
	if fee.LessThan(ibMinimum) {
		return ibMinimum
	}

	return fee
}
