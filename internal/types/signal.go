package types

import (
	"fmt"
	"strings"
	"time"
)

// Signal is a per-date directional recommendation.
type Signal int8

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "hold"
	}
}

// MarshalText encodes the signal by name.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a name or the numeric form -1, 0, 1.
func (s *Signal) UnmarshalText(text []byte) error {
	parsed, err := ParseSignal(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// ParseSignal parses "buy", "hold", "sell" or "1", "0", "-1".
func ParseSignal(value string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "buy", "1", "+1":
		return SignalBuy, nil
	case "hold", "0":
		return SignalHold, nil
	case "sell", "-1":
		return SignalSell, nil
	default:
		return SignalHold, fmt.Errorf("unknown signal %q", value)
	}
}

// SignalSeries is a signal aligned to a PriceSeries date index.
type SignalSeries struct {
	Name    string
	Dates   []time.Time
	Signals []Signal
}

// NewSignalSeries returns a series that holds on every date.
func NewSignalSeries(name string, dates []time.Time) SignalSeries {
	return SignalSeries{
		Name:    name,
		Dates:   dates,
		Signals: make([]Signal, len(dates)),
	}
}

func (s SignalSeries) Len() int {
	return len(s.Signals)
}

// SameIndex reports whether both series share exactly the same dates.
func (s SignalSeries) SameIndex(other SignalSeries) bool {
	if len(s.Dates) != len(other.Dates) || len(s.Signals) != len(other.Signals) {
		return false
	}

	for i := range s.Dates {
		if !s.Dates[i].Equal(other.Dates[i]) {
			return false
		}
	}

	return true
}

// Count returns how many dates carry the given signal.
func (s SignalSeries) Count(signal Signal) int {
	n := 0
	for _, v := range s.Signals {
		if v == signal {
			n++
		}
	}

	return n
}

// CombinedSignal is a SignalSeries produced by merging several inputs under a rule.
type CombinedSignal struct {
	SignalSeries
	Rule   string
	Inputs []string
}

// Slice returns rows [from, to) as a new series.
func (s SignalSeries) Slice(from, to int) SignalSeries {
	dates := make([]time.Time, to-from)
	copy(dates, s.Dates[from:to])

	signals := make([]Signal, to-from)
	copy(signals, s.Signals[from:to])

	return SignalSeries{Name: s.Name, Dates: dates, Signals: signals}
}
