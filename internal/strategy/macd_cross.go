package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type MACDCrossConfig struct {
	Fast          int     `yaml:"fast" json:"fast" jsonschema:"title=Fast Period,minimum=2,default=12" validate:"gte=2"`
	Slow          int     `yaml:"slow" json:"slow" jsonschema:"title=Slow Period,minimum=3,default=26" validate:"gte=3,gtfield=Fast"`
	Signal        int     `yaml:"signal" json:"signal" jsonschema:"title=Signal Period,minimum=2,default=9" validate:"gte=2"`
	HistThreshold float64 `yaml:"hist_threshold" json:"hist_threshold" jsonschema:"title=Histogram Threshold,description=Histogram must cross beyond plus or minus this value,minimum=0,default=0" validate:"gte=0"`
}

// MACDCross buys when the MACD histogram crosses above +threshold and sells when it crosses below -threshold.
type MACDCross struct {
	name   string
	config MACDCrossConfig
	macd   *indicator.MACD
}

func NewMACDCross(name string, config MACDCrossConfig) (*MACDCross, error) {
	if err := validateConfig(types.StrategyTypeMACDCross, config); err != nil {
		return nil, err
	}

	macd, err := indicator.NewMACD(indicator.MACDConfig{Fast: config.Fast, Slow: config.Slow, Signal: config.Signal})
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s_%d_%d_%d", types.StrategyTypeMACDCross, config.Fast, config.Slow, config.Signal)
	}

	return &MACDCross{name: name, config: config, macd: macd}, nil
}

func (m *MACDCross) Name() string {
	return m.name
}

func (m *MACDCross) Type() types.StrategyType {
	return types.StrategyTypeMACDCross
}

func (m *MACDCross) Indicators() []indicator.Indicator {
	return []indicator.Indicator{m.macd}
}

func (m *MACDCross) Validate() error {
	return validateConfig(m.Type(), m.config)
}

func (m *MACDCross) Describe() string {
	return fmt.Sprintf("buy when %s crosses above %g, sell when it crosses below %g",
		m.macd.HistogramColumn(), m.config.HistThreshold, -m.config.HistThreshold)
}

func (m *MACDCross) GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error) {
	cols, err := columns(m.name, results, 0, series.Len(), m.macd.HistogramColumn())
	if err != nil {
		return types.SignalSeries{}, err
	}

	hist := cols[0]
	threshold := m.config.HistThreshold
	signals := types.NewSignalSeries(m.name, series.Dates())

	for i := 1; i < series.Len(); i++ {
		current, ok := hist.Get(i)
		if !ok {
			continue
		}

		previous, ok := hist.Get(i - 1)
		if !ok {
			continue
		}

		switch {
		case previous <= threshold && current > threshold:
			signals.Signals[i] = types.SignalBuy
		case previous >= -threshold && current < -threshold:
			signals.Signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
