package indicator

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Indicator is a pure transform of a price series into one or more aligned columns.
// Implementations validate their parameters before touching any data and never
// depend on the state of another indicator.
type Indicator interface {
	// Name returns the type of the indicator
	Name() types.IndicatorType
	// Columns returns the output column names in declaration order
	Columns() []string
	// Lookback is the minimum number of bars Calculate accepts
	Lookback() int
	// Validate checks the parameters
	Validate() error
	// Calculate computes every output column for the series
	Calculate(series types.PriceSeries) (types.IndicatorResult, error)
}

var validate = validator.New()

// validateConfig runs struct validation and maps the first failing field to an error code.
func validateConfig(name types.IndicatorType, config any) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	code := errors.ErrCodeInvalidParameter

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		code = fieldCode(fieldErrs[0].Field())
	}

	return errors.Wrapf(code, err, "invalid %s config", name)
}

func fieldCode(field string) errors.ErrorCode {
	switch {
	case strings.HasSuffix(field, "Period"), field == "Fast", field == "Slow", field == "Signal":
		return errors.ErrCodeInvalidPeriod
	case field == "Kind":
		return errors.ErrCodeInvalidKind
	case field == "Source":
		return errors.ErrCodeInvalidSource
	default:
		return errors.ErrCodeInvalidParameter
	}
}

// checkSeries fails when the series is shorter than lookback or when a required column is not finite.
func checkSeries(name types.IndicatorType, series types.PriceSeries, lookback int, columns ...types.PriceColumn) error {
	if series.Len() < lookback {
		return errors.NewInsufficientDataErrorf(lookback, series.Len(), series.Symbol,
			"insufficient data for %s: required %d, got %d", name, lookback, series.Len())
	}

	for _, bar := range series.Bars {
		for _, column := range columns {
			v := bar.Value(column)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf(errors.ErrCodeNonFiniteValue, "%s: non-finite %s at %s", name, column, bar.Date.Format(time.DateOnly))
			}
		}
	}

	return nil
}

// checkResult turns any non-finite output into a ComputationError naming the date and column.
func checkResult(result types.IndicatorResult) error {
	for _, name := range result.Order {
		for i, v := range result.Columns[name] {
			if v.IsNone() {
				continue
			}

			if x := v.Unwrap(); math.IsNaN(x) || math.IsInf(x, 0) {
				return errors.NewComputationError(name, result.Dates[i], "non-finite indicator value")
			}
		}
	}

	return nil
}

// sourceColumns lists the raw columns a derived source reads.
func sourceColumns(source types.PriceColumn) []types.PriceColumn {
	switch source {
	case types.PriceColumnHL2:
		return []types.PriceColumn{types.PriceColumnHigh, types.PriceColumnLow}
	case types.PriceColumnHLC3:
		return []types.PriceColumn{types.PriceColumnHigh, types.PriceColumnLow, types.PriceColumnClose}
	case types.PriceColumnOHLC4:
		return []types.PriceColumn{types.PriceColumnOpen, types.PriceColumnHigh, types.PriceColumnLow, types.PriceColumnClose}
	default:
		return []types.PriceColumn{source}
	}
}

func sourceOrClose(source types.PriceColumn) types.PriceColumn {
	if source == "" {
		return types.PriceColumnClose
	}

	return source
}
