package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// definedSeries wraps raw values as a fully defined series.
func definedSeries(values []float64) types.Series {
	s := types.NewSeries(len(values))
	for i, v := range values {
		s.Set(i, v)
	}

	return s
}

// smaOf is the trailing arithmetic mean over the defined region of in.
// It carries a running sum instead of re-summing each window.
func smaOf(in types.Series, period int) types.Series {
	out := types.NewSeries(len(in))

	first := in.FirstDefined()
	if first < 0 {
		return out
	}

	sum := 0.0
	for i := first; i < len(in); i++ {
		v, _ := in.Get(i)
		sum += v

		if i-first >= period {
			old, _ := in.Get(i - period)
			sum -= old
		}

		if i-first >= period-1 {
			out.Set(i, sum/float64(period))
		}
	}

	return out
}

// emaOf smooths the defined region of in with alpha = 2/(period+1),
// seeded by the simple mean of its first period values.
func emaOf(in types.Series, period int) types.Series {
	out := types.NewSeries(len(in))

	first := in.FirstDefined()
	if first < 0 || len(in)-first < period {
		return out
	}

	seed := 0.0
	for i := first; i < first+period; i++ {
		v, _ := in.Get(i)
		seed += v
	}

	ema := seed / float64(period)
	out.Set(first+period-1, ema)

	alpha := 2.0 / float64(period+1)
	for i := first + period; i < len(in); i++ {
		v, _ := in.Get(i)
		ema = v*alpha + ema*(1-alpha)
		out.Set(i, ema)
	}

	return out
}

// wmaOf weights the most recent value by period and the oldest by 1.
func wmaOf(in types.Series, period int) types.Series {
	out := types.NewSeries(len(in))

	first := in.FirstDefined()
	if first < 0 {
		return out
	}

	denominator := float64(period*(period+1)) / 2
	for i := first + period - 1; i < len(in); i++ {
		weighted := 0.0
		for k := 0; k < period; k++ {
			v, _ := in.Get(i - k)
			weighted += v * float64(period-k)
		}

		out.Set(i, weighted/denominator)
	}

	return out
}

// wilderOf applies Wilder smoothing: the first value is the mean of period inputs
// starting at start, then avg = (prev*(period-1) + x) / period.
func wilderOf(values []float64, period, start int) types.Series {
	out := types.NewSeries(len(values))
	if len(values)-start < period {
		return out
	}

	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}

	avg := sum / float64(period)
	out.Set(start+period-1, avg)

	for i := start + period; i < len(values); i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
		out.Set(i, avg)
	}

	return out
}

// combine applies fn wherever both inputs are defined.
func combine(a, b types.Series, fn func(x, y float64) float64) types.Series {
	out := types.NewSeries(len(a))
	for i := range a {
		x, okA := a.Get(i)
		y, okB := b.Get(i)

		if okA && okB {
			out.Set(i, fn(x, y))
		}
	}

	return out
}
