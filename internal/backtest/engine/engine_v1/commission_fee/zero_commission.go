package commission_fee

import "github.com/shopspring/decimal"

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// Calculate returns 0 for any execution.
func (c *ZeroCommissionFee) Calculate(_ decimal.Decimal, _ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}
