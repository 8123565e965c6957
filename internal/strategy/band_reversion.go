package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type BandReversionConfig struct {
	Period         int     `yaml:"period" json:"period" jsonschema:"title=Band Period,description=Bollinger band window,minimum=5,default=20" validate:"gte=5"`
	Deviation      float64 `yaml:"deviation" json:"deviation" jsonschema:"title=Deviation,description=Band width in standard deviations,exclusiveMinimum=0,default=2" validate:"gt=0"`
	VolumePeriod   int     `yaml:"volume_period" json:"volume_period" jsonschema:"title=Volume Period,description=Number of prior bars in the average volume,minimum=2,default=20" validate:"gte=2"`
	MaxVolumeRatio float64 `yaml:"max_volume_ratio" json:"max_volume_ratio" jsonschema:"title=Maximum Volume Ratio,description=Volume relative to its average must not exceed this on a buy bar,exclusiveMinimum=0,maximum=1,default=0.8" validate:"gt=0,lte=1"`
	// Proximity is how close to a band %B must be: buy at or below it, sell at or above 1 - Proximity.
	// It stays below 0.5 so a bar can never satisfy both rules.
	Proximity float64 `yaml:"proximity" json:"proximity" jsonschema:"title=Proximity,description=%B distance from a band that counts as touching it,minimum=0,exclusiveMaximum=0.5,default=0.1" validate:"gte=0,lt=0.5"`
	// FilterRepeats emits a signal only on the first bar of a run where the condition holds.
	FilterRepeats bool `yaml:"filter_repeats" json:"filter_repeats" jsonschema:"title=Filter Repeats,default=true"`
}

// BandReversion buys near the lower Bollinger band while volume contracts and sells near the upper band.
type BandReversion struct {
	name     string
	config   BandReversionConfig
	bands    *indicator.BollingerBands
	volRatio *indicator.VolumeRatio
}

func NewBandReversion(name string, config BandReversionConfig) (*BandReversion, error) {
	if err := validateConfig(types.StrategyTypeBandReversion, config); err != nil {
		return nil, err
	}

	bands, err := indicator.NewBollingerBands(indicator.BollingerBandsConfig{
		Period:  config.Period,
		DevUp:   config.Deviation,
		DevDown: config.Deviation,
	})
	if err != nil {
		return nil, err
	}

	volRatio, err := indicator.NewVolumeRatio(indicator.VolumeRatioConfig{Period: config.VolumePeriod})
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s_%d_%g", types.StrategyTypeBandReversion, config.Period, config.Deviation)
	}

	return &BandReversion{name: name, config: config, bands: bands, volRatio: volRatio}, nil
}

func (b *BandReversion) Name() string {
	return b.name
}

func (b *BandReversion) Type() types.StrategyType {
	return types.StrategyTypeBandReversion
}

func (b *BandReversion) Indicators() []indicator.Indicator {
	return []indicator.Indicator{b.bands, b.volRatio}
}

func (b *BandReversion) Validate() error {
	return validateConfig(b.Type(), b.config)
}

func (b *BandReversion) Describe() string {
	return fmt.Sprintf("buy when %s <= %g and %s <= %g, sell when %s >= %g",
		b.bands.PercentBColumn(), b.config.Proximity, b.volRatio.Column(), b.config.MaxVolumeRatio,
		b.bands.PercentBColumn(), 1-b.config.Proximity)
}

func (b *BandReversion) GenerateSignals(series types.PriceSeries, results []types.IndicatorResult) (types.SignalSeries, error) {
	bands, err := columns(b.name, results, 0, series.Len(), b.bands.PercentBColumn())
	if err != nil {
		return types.SignalSeries{}, err
	}

	volume, err := columns(b.name, results, 1, series.Len(), b.volRatio.Column())
	if err != nil {
		return types.SignalSeries{}, err
	}

	percentB, ratio := bands[0], volume[0]
	signals := types.NewSignalSeries(b.name, series.Dates())

	raw := func(i int) types.Signal {
		pb, ok := percentB.Get(i)
		if !ok {
			return types.SignalHold
		}

		if r, ok := ratio.Get(i); ok && pb <= b.config.Proximity && r <= b.config.MaxVolumeRatio {
			return types.SignalBuy
		}

		if pb >= 1-b.config.Proximity {
			return types.SignalSell
		}

		return types.SignalHold
	}

	for i := 0; i < series.Len(); i++ {
		signal := raw(i)
		if b.config.FilterRepeats && i > 0 && signal != types.SignalHold && raw(i-1) == signal {
			continue
		}

		signals.Signals[i] = signal
	}

	return signals, nil
}
