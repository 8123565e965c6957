package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type MACDConfig struct {
	Fast   int `yaml:"fast" json:"fast" jsonschema:"title=Fast Period,description=Fast EMA period,minimum=2,default=12" validate:"gte=2"`
	Slow   int `yaml:"slow" json:"slow" jsonschema:"title=Slow Period,description=Slow EMA period; must exceed the fast period,minimum=3,default=26" validate:"gte=2,gtfield=Fast"`
	Signal int `yaml:"signal" json:"signal" jsonschema:"title=Signal Period,description=EMA period of the MACD line,minimum=2,default=9" validate:"gte=2"`
}

// MACD outputs the MACD line, its signal line and the histogram.
type MACD struct {
	config MACDConfig
}

func NewMACD(config MACDConfig) (*MACD, error) {
	m := &MACD{config: config}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

func (m *MACD) Validate() error {
	return validateConfig(m.Name(), m.config)
}

func (m *MACD) suffix() string {
	return fmt.Sprintf("%d_%d_%d", m.config.Fast, m.config.Slow, m.config.Signal)
}

func (m *MACD) LineColumn() string {
	return "macd_" + m.suffix()
}

func (m *MACD) SignalColumn() string {
	return "macd_signal_" + m.suffix()
}

func (m *MACD) HistogramColumn() string {
	return "macd_hist_" + m.suffix()
}

func (m *MACD) Columns() []string {
	return []string{m.LineColumn(), m.SignalColumn(), m.HistogramColumn()}
}

func (m *MACD) Lookback() int {
	return m.config.Slow + m.config.Signal - 1
}

func (m *MACD) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := m.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	if err := checkSeries(m.Name(), series, m.Lookback(), types.PriceColumnClose); err != nil {
		return types.IndicatorResult{}, err
	}

	closes := definedSeries(series.Column(types.PriceColumnClose))
	fast := emaOf(closes, m.config.Fast)
	slow := emaOf(closes, m.config.Slow)

	line := combine(fast, slow, func(f, s float64) float64 { return f - s })
	signal := emaOf(line, m.config.Signal)
	hist := combine(line, signal, func(l, s float64) float64 { return l - s })

	result := types.NewIndicatorResult(m.Name(), series.Dates(), m.Columns()...)
	result.Columns[m.LineColumn()] = line
	result.Columns[m.SignalColumn()] = signal
	result.Columns[m.HistogramColumn()] = hist

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}
