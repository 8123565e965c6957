package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type BreakoutConfig struct {
	Period         int     `yaml:"period" json:"period" jsonschema:"title=Channel Period,description=Number of prior bars in the high/low channel,minimum=2,default=20" validate:"gte=2"`
	VolumePeriod   int     `yaml:"volume_period" json:"volume_period" jsonschema:"title=Volume Period,description=Number of prior bars in the average volume,minimum=2,default=20" validate:"gte=2"`
	MinVolumeRatio float64 `yaml:"min_volume_ratio" json:"min_volume_ratio" jsonschema:"title=Minimum Volume Ratio,description=Required volume relative to its average on a breakout bar,minimum=1,default=1.5" validate:"gte=1"`
}

// Breakout buys when the close exceeds the prior N-bar high on expanding volume
// and sells when the close falls under the prior N-bar low.
type Breakout struct {
	name     string
	config   BreakoutConfig
	channel  *indicator.Donchian
	volRatio *indicator.VolumeRatio
}

func NewBreakout(name string, config BreakoutConfig) (*Breakout, error) {
	if err := validateConfig(types.StrategyTypeBreakout, config); err != nil {
		return nil, err
	}

	channel, err := indicator.NewDonchian(indicator.DonchianConfig{Period: config.Period})
	if err != nil {
		return nil, err
	}

	volRatio, err := indicator.NewVolumeRatio(indicator.VolumeRatioConfig{Period: config.VolumePeriod})
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s_%d_%g", types.StrategyTypeBreakout, config.Period, config.MinVolumeRatio)
	}

	return &Breakout{name: name, config: config, channel: channel, volRatio: volRatio}, nil
}

func (b *Breakout) Name() string {
	return b.name
}

func (b *Breakout) Type() types.StrategyType {
	return types.StrategyTypeBreakout
}

func (b *Breakout) Indicators() []indicator.Indicator {
	return []indicator.Indicator{b.channel, b.volRatio}
}

func (b *Breakout) Validate() error {
	return validateConfig(b.Type(), b.config)
}

func (b *Breakout) Describe() string {
	return fmt.Sprintf("buy when close > %s and %s >= %g, sell when close < %s",
		b.channel.HighColumn(), b.volRatio.Column(), b.config.MinVolumeRatio, b.channel.LowColumn())
}

func (b *Breakout) GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error) {
	channel, err := columns(b.name, results, 0, series.Len(), b.channel.HighColumn(), b.channel.LowColumn())
	if err != nil {
		return types.SignalSeries{}, err
	}

	volume, err := columns(b.name, results, 1, series.Len(), b.volRatio.Column())
	if err != nil {
		return types.SignalSeries{}, err
	}

	closes := types.NewSeries(series.Len())
	for i, bar := range series.Bars {
		closes.Set(i, bar.Close)
	}

	high, low, ratio := channel[0], channel[1], volume[0]
	signals := types.NewSignalSeries(b.name, series.Dates())

	for i := 0; i < series.Len(); i++ {
		r, ok := ratio.Get(i)

		switch {
		case above(closes, high, i) && ok && r >= b.config.MinVolumeRatio:
			signals.Signals[i] = types.SignalBuy
		case below(closes, low, i):
			signals.Signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
