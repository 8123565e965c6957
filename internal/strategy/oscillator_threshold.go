package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// ThresholdMode selects how RSI levels turn into signals.
type ThresholdMode string

const (
	// ThresholdModeCross signals when RSI leaves the oversold or overbought zone.
	ThresholdModeCross ThresholdMode = "cross"
	// ThresholdModeLevel signals on every bar RSI is inside a zone.
	ThresholdModeLevel ThresholdMode = "level"
)

type OscillatorThresholdConfig struct {
	Period     int           `yaml:"period" json:"period" jsonschema:"title=Period,description=RSI period,minimum=2,default=14" validate:"gte=2"`
	Oversold   float64       `yaml:"oversold" json:"oversold" jsonschema:"title=Oversold,description=Lower RSI boundary,exclusiveMinimum=0,exclusiveMaximum=100,default=30" validate:"gt=0,lt=100"`
	Overbought float64       `yaml:"overbought" json:"overbought" jsonschema:"title=Overbought,description=Upper RSI boundary; must exceed oversold,exclusiveMinimum=0,exclusiveMaximum=100,default=70" validate:"gt=0,lt=100,gtfield=Oversold"`
	Mode       ThresholdMode `yaml:"mode" json:"mode" jsonschema:"title=Mode,enum=cross,enum=level,default=cross" validate:"oneof=cross level"`
}

// OscillatorThreshold trades RSI boundaries. In cross mode it buys when RSI rises back
// through the oversold level and sells when it falls back through the overbought level.
type OscillatorThreshold struct {
	name   string
	config OscillatorThresholdConfig
	rsi    *indicator.RSI
}

func NewOscillatorThreshold(name string, config OscillatorThresholdConfig) (*OscillatorThreshold, error) {
	if err := validateConfig(types.StrategyTypeOscillatorThreshold, config); err != nil {
		return nil, err
	}

	rsi, err := indicator.NewRSI(indicator.RSIConfig{Period: config.Period})
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s_%d_%g_%g", types.StrategyTypeOscillatorThreshold, config.Period, config.Oversold, config.Overbought)
	}

	return &OscillatorThreshold{name: name, config: config, rsi: rsi}, nil
}

func (o *OscillatorThreshold) Name() string {
	return o.name
}

func (o *OscillatorThreshold) Type() types.StrategyType {
	return types.StrategyTypeOscillatorThreshold
}

func (o *OscillatorThreshold) Indicators() []indicator.Indicator {
	return []indicator.Indicator{o.rsi}
}

func (o *OscillatorThreshold) Validate() error {
	return validateConfig(o.Type(), o.config)
}

func (o *OscillatorThreshold) Describe() string {
	if o.config.Mode == ThresholdModeLevel {
		return fmt.Sprintf("buy while %s < %g, sell while %s > %g", o.rsi.Column(), o.config.Oversold, o.rsi.Column(), o.config.Overbought)
	}

	return fmt.Sprintf("buy when %s rises through %g, sell when it falls through %g", o.rsi.Column(), o.config.Oversold, o.config.Overbought)
}

func (o *OscillatorThreshold) GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error) {
	cols, err := columns(o.name, results, 0, series.Len(), o.rsi.Column())
	if err != nil {
		return types.SignalSeries{}, err
	}

	rsi := cols[0]
	signals := types.NewSignalSeries(o.name, series.Dates())

	for i := 0; i < series.Len(); i++ {
		current, ok := rsi.Get(i)
		if !ok {
			continue
		}

		if o.config.Mode == ThresholdModeLevel {
			switch {
			case current < o.config.Oversold:
				signals.Signals[i] = types.SignalBuy
			case current > o.config.Overbought:
				signals.Signals[i] = types.SignalSell
			}

			continue
		}

		previous, ok := rsi.Get(i - 1)
		if !ok {
			continue
		}

		switch {
		case previous < o.config.Oversold && current >= o.config.Oversold:
			signals.Signals[i] = types.SignalBuy
		case previous > o.config.Overbought && current <= o.config.Overbought:
			signals.Signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
