package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Series is a numeric column aligned with a PriceSeries. Warm-up positions are None.
type Series []optional.Option[float64]

// NewSeries returns a series of n undefined values.
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = optional.None[float64]()
	}

	return s
}

// Set defines the value at index i.
func (s Series) Set(i int, v float64) {
	s[i] = optional.Some(v)
}

// Defined reports whether index i holds a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && s[i].IsSome()
}

// Get returns the value at index i and whether it is defined.
func (s Series) Get(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}

	return s[i].Unwrap(), true
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.IsSome() {
			return i
		}
	}

	return -1
}

// IndicatorResult maps output column names to series aligned with the input dates.
type IndicatorResult struct {
	Indicator IndicatorType
	Dates     []time.Time
	Columns   map[string]Series
	// Order keeps the column names in the order the indicator declares them.
	Order []string
}

// NewIndicatorResult allocates undefined columns for every name.
func NewIndicatorResult(indicator IndicatorType, dates []time.Time, columns ...string) IndicatorResult {
	result := IndicatorResult{
		Indicator: indicator,
		Dates:     dates,
		Columns:   make(map[string]Series, len(columns)),
		Order:     columns,
	}
	for _, name := range columns {
		result.Columns[name] = NewSeries(len(dates))
	}

	return result
}

func (r IndicatorResult) Len() int {
	return len(r.Dates)
}

// Column returns the named series.
func (r IndicatorResult) Column(name string) (Series, bool) {
	s, ok := r.Columns[name]

	return s, ok
}
