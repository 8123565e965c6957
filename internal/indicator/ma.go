package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MAKind selects the moving-average formula.
type MAKind string

const (
	MAKindSimple      MAKind = "sma"
	MAKindExponential MAKind = "ema"
	MAKindWeighted    MAKind = "wma"
	MAKindDouble      MAKind = "dema"
	MAKindTriple      MAKind = "tema"
)

// MAConfig configures a moving average.
type MAConfig struct {
	Period int               `yaml:"period" json:"period" jsonschema:"title=Period,description=Number of bars in the averaging window,minimum=2,default=20" validate:"gte=2"`
	Kind   MAKind            `yaml:"kind" json:"kind" jsonschema:"title=Kind,description=Moving average formula,enum=sma,enum=ema,enum=wma,enum=dema,enum=tema,default=sma" validate:"oneof=sma ema wma dema tema"`
	Source types.PriceColumn `yaml:"source,omitempty" json:"source,omitempty" jsonschema:"title=Source,description=Price column to average,enum=close,enum=open,enum=high,enum=low,enum=hl2,enum=hlc3,enum=ohlc4,default=close" validate:"omitempty,oneof=open high low close hl2 hlc3 ohlc4"`
}

// MA computes one moving average column from a price source.
type MA struct {
	config MAConfig
}

// NewMA validates the config and returns the indicator.
func NewMA(config MAConfig) (*MA, error) {
	ma := &MA{config: config}
	if err := ma.Validate(); err != nil {
		return nil, err
	}

	return ma, nil
}

func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

func (m *MA) Validate() error {
	return validateConfig(m.Name(), m.config)
}

// Column is the output column name, e.g. "sma20" or "ema10_hl2".
func (m *MA) Column() string {
	source := sourceOrClose(m.config.Source)
	if source == types.PriceColumnClose {
		return fmt.Sprintf("%s%d", m.config.Kind, m.config.Period)
	}

	return fmt.Sprintf("%s%d_%s", m.config.Kind, m.config.Period, source)
}

func (m *MA) Columns() []string {
	return []string{m.Column()}
}

// Lookback is the index of the first defined value plus one.
func (m *MA) Lookback() int {
	p := m.config.Period

	switch m.config.Kind {
	case MAKindDouble:
		return 2*p - 1
	case MAKindTriple:
		return 3*p - 2
	default:
		return p
	}
}

func (m *MA) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := m.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	source := sourceOrClose(m.config.Source)
	if err := checkSeries(m.Name(), series, m.Lookback(), sourceColumns(source)...); err != nil {
		return types.IndicatorResult{}, err
	}

	result := types.NewIndicatorResult(m.Name(), series.Dates(), m.Column())
	result.Columns[m.Column()] = movingAverage(definedSeries(series.Column(source)), m.config.Period, m.config.Kind)

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}

func movingAverage(in types.Series, period int, kind MAKind) types.Series {
	switch kind {
	case MAKindExponential:
		return emaOf(in, period)
	case MAKindWeighted:
		return wmaOf(in, period)
	case MAKindDouble:
		e1 := emaOf(in, period)
		e2 := emaOf(e1, period)

		return combine(e1, e2, func(a, b float64) float64 { return 2*a - b })
	case MAKindTriple:
		e1 := emaOf(in, period)
		e2 := emaOf(e1, period)
		e3 := emaOf(e2, period)
		dema := combine(e1, e2, func(a, b float64) float64 { return 3*a - 3*b })

		return combine(dema, e3, func(a, b float64) float64 { return a + b })
	default:
		return smaOf(in, period)
	}
}
