package types

import "time"

// EquityPoint is the portfolio value at the close of one simulated day.
type EquityPoint struct {
	Date          time.Time `csv:"date" json:"date" yaml:"date"`
	Cash          float64   `csv:"cash" json:"cash" yaml:"cash"`
	PositionValue float64   `csv:"position_value" json:"position_value" yaml:"position_value"`
	Equity        float64   `csv:"equity" json:"equity" yaml:"equity"`
}

// EquityCurve holds one point per simulated day, appended and never revised.
type EquityCurve struct {
	InitialCapital float64
	Points         []EquityPoint
}

func (c EquityCurve) Len() int {
	return len(c.Points)
}

// Values returns the equity column.
func (c EquityCurve) Values() []float64 {
	values := make([]float64, len(c.Points))
	for i, p := range c.Points {
		values[i] = p.Equity
	}

	return values
}

// Final returns the last equity value, or the initial capital for an empty curve.
func (c EquityCurve) Final() float64 {
	if len(c.Points) == 0 {
		return c.InitialCapital
	}

	return c.Points[len(c.Points)-1].Equity
}
