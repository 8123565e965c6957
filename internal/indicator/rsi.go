package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type RSIConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Wilder smoothing period,minimum=2,default=14" validate:"gte=2"`
}

// RSI is the Relative Strength Index with Wilder smoothing.
// The first value is defined at index period.
type RSI struct {
	config RSIConfig
}

func NewRSI(config RSIConfig) (*RSI, error) {
	rsi := &RSI{config: config}
	if err := rsi.Validate(); err != nil {
		return nil, err
	}

	return rsi, nil
}

func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

func (r *RSI) Validate() error {
	return validateConfig(r.Name(), r.config)
}

func (r *RSI) Column() string {
	return fmt.Sprintf("rsi%d", r.config.Period)
}

func (r *RSI) Columns() []string {
	return []string{r.Column()}
}

func (r *RSI) Lookback() int {
	return r.config.Period + 1
}

func (r *RSI) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := r.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	if err := checkSeries(r.Name(), series, r.Lookback(), types.PriceColumnClose); err != nil {
		return types.IndicatorResult{}, err
	}

	closes := series.Column(types.PriceColumnClose)
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	avgGain := wilderOf(gains, r.config.Period, 1)
	avgLoss := wilderOf(losses, r.config.Period, 1)

	result := types.NewIndicatorResult(r.Name(), series.Dates(), r.Column())
	result.Columns[r.Column()] = combine(avgGain, avgLoss, rsiValue)

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}

// rsiValue saturates at 100 when there are no losses and reads 50 when price did not move.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}

		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
