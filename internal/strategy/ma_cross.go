package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type MACrossConfig struct {
	Fast   int               `yaml:"fast" json:"fast" jsonschema:"title=Fast Period,description=Period of the fast moving average,minimum=2,default=5" validate:"gte=2"`
	Slow   int               `yaml:"slow" json:"slow" jsonschema:"title=Slow Period,description=Period of the slow moving average; must exceed the fast period,minimum=3,default=20" validate:"gte=3,gtfield=Fast"`
	Kind   indicator.MAKind  `yaml:"kind" json:"kind" jsonschema:"title=Kind,enum=sma,enum=ema,enum=wma,default=sma" validate:"oneof=sma ema wma"`
	Source types.PriceColumn `yaml:"source,omitempty" json:"source,omitempty" jsonschema:"title=Source,enum=close,enum=open,enum=high,enum=low,enum=hl2,enum=hlc3,enum=ohlc4,default=close" validate:"omitempty,oneof=open high low close hl2 hlc3 ohlc4"`
}

// MACross buys when the fast average crosses above the slow one and sells on the reverse cross.
// A bar where the slow average first becomes defined counts as a cross if the fast one is already above.
type MACross struct {
	name   string
	config MACrossConfig
	fast   *indicator.MA
	slow   *indicator.MA
}

func NewMACross(name string, config MACrossConfig) (*MACross, error) {
	if err := validateConfig(types.StrategyTypeMACross, config); err != nil {
		return nil, err
	}

	fast, err := indicator.NewMA(indicator.MAConfig{Period: config.Fast, Kind: config.Kind, Source: config.Source})
	if err != nil {
		return nil, err
	}

	slow, err := indicator.NewMA(indicator.MAConfig{Period: config.Slow, Kind: config.Kind, Source: config.Source})
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s_%s_%d_%d", types.StrategyTypeMACross, config.Kind, config.Fast, config.Slow)
	}

	return &MACross{name: name, config: config, fast: fast, slow: slow}, nil
}

func (m *MACross) Name() string {
	return m.name
}

func (m *MACross) Type() types.StrategyType {
	return types.StrategyTypeMACross
}

func (m *MACross) Indicators() []indicator.Indicator {
	return []indicator.Indicator{m.fast, m.slow}
}

func (m *MACross) Validate() error {
	return validateConfig(m.Type(), m.config)
}

func (m *MACross) Describe() string {
	return fmt.Sprintf("buy when %s crosses above %s, sell when it crosses below", m.fast.Column(), m.slow.Column())
}

func (m *MACross) GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error) {
	fastCols, err := columns(m.name, results, 0, series.Len(), m.fast.Column())
	if err != nil {
		return types.SignalSeries{}, err
	}

	slowCols, err := columns(m.name, results, 1, series.Len(), m.slow.Column())
	if err != nil {
		return types.SignalSeries{}, err
	}

	fast, slow := fastCols[0], slowCols[0]
	signals := types.NewSignalSeries(m.name, series.Dates())

	for i := 1; i < series.Len(); i++ {
		switch {
		case above(fast, slow, i) && !above(fast, slow, i-1):
			signals.Signals[i] = types.SignalBuy
		case !above(fast, slow, i) && slow.Defined(i) && fast.Defined(i) && above(fast, slow, i-1):
			signals.Signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
