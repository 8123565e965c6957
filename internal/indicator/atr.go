package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type ATRConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Wilder smoothing period,minimum=2,default=14" validate:"gte=2"`
}

// ATR is the Average True Range. The first value is the mean true range of
// bars 1..period and is defined at index period.
type ATR struct {
	config ATRConfig
}

func NewATR(config ATRConfig) (*ATR, error) {
	a := &ATR{config: config}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

func (a *ATR) Validate() error {
	return validateConfig(a.Name(), a.config)
}

func (a *ATR) Column() string {
	return fmt.Sprintf("atr%d", a.config.Period)
}

func (a *ATR) Columns() []string {
	return []string{a.Column()}
}

func (a *ATR) Lookback() int {
	return a.config.Period + 1
}

func (a *ATR) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := a.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	if err := checkSeries(a.Name(), series, a.Lookback(), types.PriceColumnHigh, types.PriceColumnLow, types.PriceColumnClose); err != nil {
		return types.IndicatorResult{}, err
	}

	trueRange := make([]float64, series.Len())
	for i, bar := range series.Bars {
		if i == 0 {
			trueRange[i] = bar.High - bar.Low

			continue
		}

		prevClose := series.Bars[i-1].Close
		trueRange[i] = math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
	}

	result := types.NewIndicatorResult(a.Name(), series.Dates(), a.Column())
	result.Columns[a.Column()] = wilderOf(trueRange, a.config.Period, 1)

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}
