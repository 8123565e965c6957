package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Strategy turns a price series and its indicator results into a daily signal.
//
// A strategy owns the indicators it needs; they are built and validated when the
// strategy is constructed. GenerateSignals receives the results in the order
// returned by Indicators. The signal at date t may only depend on data up to t.
type Strategy interface {
	// Name is the display name of this configured instance
	Name() string
	// Type is the variant of the strategy
	Type() types.StrategyType
	// Indicators returns the indicators computed before GenerateSignals
	Indicators() []indicator.Indicator
	// Validate checks the strategy parameters
	Validate() error
	// GenerateSignals emits one signal per bar; undefined inputs produce Hold
	GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error)
	// Describe returns a one-line summary of the trading rule
	Describe() string
}

// Run computes every indicator the strategy declares and then generates its signals.
// Indicator errors are returned unchanged.
func Run(s Strategy, series types.PriceSeries) (types.SignalSeries, error) {
	if err := s.Validate(); err != nil {
		return types.SignalSeries{}, err
	}

	indicators := s.Indicators()
	results := make([]types.IndicatorResult, 0, len(indicators))

	for _, ind := range indicators {
		result, err := ind.Calculate(series)
		if err != nil {
			return types.SignalSeries{}, err
		}

		results = append(results, result)
	}

	signals, err := s.GenerateSignals(series, results)
	if err != nil {
		return types.SignalSeries{}, err
	}

	if signals.Len() != series.Len() {
		return types.SignalSeries{}, errors.Newf(errors.ErrCodeStrategyRuntimeError,
			"%s produced %d signals for %d bars", s.Name(), signals.Len(), series.Len())
	}

	return signals, nil
}

var validate = validator.New()

func validateConfig(strategyType types.StrategyType, config any) error {
	if err := validate.Struct(config); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid %s config", strategyType)
	}

	return nil
}

// columns fetches named series from results[index], failing if the result is missing.
func columns(name string, results []types.IndicatorResult, index int, length int, names ...string) ([]types.Series, error) {
	if index >= len(results) {
		return nil, errors.Newf(errors.ErrCodeStrategyRuntimeError, "%s: missing indicator result %d", name, index)
	}

	out := make([]types.Series, len(names))
	for i, column := range names {
		series, ok := results[index].Column(column)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "%s: indicator result has no column %s", name, column)
		}

		if len(series) != length {
			return nil, errors.Newf(errors.ErrCodeMismatchedIndex, "%s: column %s has %d values for %d bars", name, column, len(series), length)
		}

		out[i] = series
	}

	return out, nil
}

// above reports whether a[i] > b[i] with both defined.
func above(a, b types.Series, i int) bool {
	x, okA := a.Get(i)
	y, okB := b.Get(i)

	return okA && okB && x > y
}

// below reports whether a[i] < b[i] with both defined.
func below(a, b types.Series, i int) bool {
	x, okA := a.Get(i)
	y, okB := b.Get(i)

	return okA && okB && x < y
}
