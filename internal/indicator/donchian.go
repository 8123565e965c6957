package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type DonchianConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Number of prior bars in the channel,minimum=2,default=20" validate:"gte=2"`
}

// Donchian is the highest high and lowest low of the previous period bars.
// The current bar is excluded so a close can be compared against the channel.
type Donchian struct {
	config DonchianConfig
}

func NewDonchian(config DonchianConfig) (*Donchian, error) {
	d := &Donchian{config: config}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Donchian) Name() types.IndicatorType {
	return types.IndicatorTypeDonchian
}

func (d *Donchian) Validate() error {
	return validateConfig(d.Name(), d.config)
}

func (d *Donchian) HighColumn() string {
	return fmt.Sprintf("donchian_high%d", d.config.Period)
}

func (d *Donchian) LowColumn() string {
	return fmt.Sprintf("donchian_low%d", d.config.Period)
}

func (d *Donchian) Columns() []string {
	return []string{d.HighColumn(), d.LowColumn()}
}

func (d *Donchian) Lookback() int {
	return d.config.Period + 1
}

func (d *Donchian) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := d.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	if err := checkSeries(d.Name(), series, d.Lookback(), types.PriceColumnHigh, types.PriceColumnLow); err != nil {
		return types.IndicatorResult{}, err
	}

	result := types.NewIndicatorResult(d.Name(), series.Dates(), d.Columns()...)
	for i := d.config.Period; i < series.Len(); i++ {
		high := math.Inf(-1)
		low := math.Inf(1)

		for _, bar := range series.Bars[i-d.config.Period : i] {
			high = math.Max(high, bar.High)
			low = math.Min(low, bar.Low)
		}

		result.Columns[d.HighColumn()].Set(i, high)
		result.Columns[d.LowColumn()].Set(i, low)
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}
