package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// PriceBar is a single daily OHLCV record.
type PriceBar struct {
	Date   time.Time `csv:"date" json:"date" yaml:"date"`
	Open   float64   `csv:"open" json:"open" yaml:"open"`
	High   float64   `csv:"high" json:"high" yaml:"high"`
	Low    float64   `csv:"low" json:"low" yaml:"low"`
	Close  float64   `csv:"close" json:"close" yaml:"close"`
	Volume float64   `csv:"volume" json:"volume" yaml:"volume"`
}

// PriceColumn names a column, or a derived price, of a PriceBar.
type PriceColumn string

const (
	PriceColumnOpen   PriceColumn = "open"
	PriceColumnHigh   PriceColumn = "high"
	PriceColumnLow    PriceColumn = "low"
	PriceColumnClose  PriceColumn = "close"
	PriceColumnVolume PriceColumn = "volume"
	PriceColumnHL2    PriceColumn = "hl2"
	PriceColumnHLC3   PriceColumn = "hlc3"
	PriceColumnOHLC4  PriceColumn = "ohlc4"
)

// Value returns the bar's value for the given column. Unknown columns return NaN.
func (b PriceBar) Value(column PriceColumn) float64 {
	switch column {
	case PriceColumnOpen:
		return b.Open
	case PriceColumnHigh:
		return b.High
	case PriceColumnLow:
		return b.Low
	case PriceColumnClose:
		return b.Close
	case PriceColumnVolume:
		return b.Volume
	case PriceColumnHL2:
		return (b.High + b.Low) / 2
	case PriceColumnHLC3:
		return (b.High + b.Low + b.Close) / 3
	case PriceColumnOHLC4:
		return (b.Open + b.High + b.Low + b.Close) / 4
	default:
		return math.NaN()
	}
}

// PriceSeries is an ordered, immutable sequence of bars for one symbol.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
}

// NewPriceSeries builds a series and checks its ordering and bar invariants.
func NewPriceSeries(symbol string, bars []PriceBar) (PriceSeries, error) {
	series := PriceSeries{Symbol: symbol, Bars: bars}
	if err := series.Validate(); err != nil {
		return PriceSeries{}, err
	}

	return series, nil
}

// Validate checks that dates are strictly increasing, that every value is finite
// and that each bar satisfies low <= min(open, close) <= max(open, close) <= high.
func (s PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf(errors.ErrCodeNonFiniteValue, "%s: non-finite value at %s", s.Symbol, bar.Date.Format(time.DateOnly))
			}
		}

		if i > 0 && !bar.Date.After(s.Bars[i-1].Date) {
			return errors.Newf(errors.ErrCodeUnorderedDates, "%s: dates must be strictly increasing, %s follows %s",
				s.Symbol, bar.Date.Format(time.DateOnly), s.Bars[i-1].Date.Format(time.DateOnly))
		}

		if bar.High < math.Max(bar.Open, bar.Close) || bar.Low > math.Min(bar.Open, bar.Close) {
			return errors.Newf(errors.ErrCodeInvalidBar, "%s: high/low out of range at %s", s.Symbol, bar.Date.Format(time.DateOnly))
		}

		if bar.Volume < 0 {
			return errors.Newf(errors.ErrCodeInvalidBar, "%s: negative volume at %s", s.Symbol, bar.Date.Format(time.DateOnly))
		}
	}

	return nil
}

func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Dates returns the date index of the series.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, bar := range s.Bars {
		dates[i] = bar.Date
	}

	return dates
}

// Column extracts one column as a float slice aligned with the series.
func (s PriceSeries) Column(column PriceColumn) []float64 {
	values := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		values[i] = bar.Value(column)
	}

	return values
}

// Head returns the first n bars as a new series sharing no backing storage with s.
func (s PriceSeries) Head(n int) PriceSeries {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}

	if n < 0 {
		n = 0
	}

	bars := make([]PriceBar, n)
	copy(bars, s.Bars[:n])

	return PriceSeries{Symbol: s.Symbol, Bars: bars}
}

// Between returns the bars whose dates fall within [start, end]. A zero bound is open.
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	bars := make([]PriceBar, 0, len(s.Bars))
	for _, bar := range s.Bars {
		if !start.IsZero() && bar.Date.Before(start) {
			continue
		}

		if !end.IsZero() && bar.Date.After(end) {
			continue
		}

		bars = append(bars, bar)
	}

	return PriceSeries{Symbol: s.Symbol, Bars: bars}
}

// Window returns the row range [from, to) whose dates fall within [start, end]. A zero bound is open.
func (s PriceSeries) Window(start, end time.Time) (int, int) {
	from := 0
	for from < len(s.Bars) && !start.IsZero() && s.Bars[from].Date.Before(start) {
		from++
	}

	to := from
	for to < len(s.Bars) && (end.IsZero() || !s.Bars[to].Date.After(end)) {
		to++
	}

	return from, to
}

// Slice returns rows [from, to) as a new series.
func (s PriceSeries) Slice(from, to int) PriceSeries {
	bars := make([]PriceBar, to-from)
	copy(bars, s.Bars[from:to])

	return PriceSeries{Symbol: s.Symbol, Bars: bars}
}
