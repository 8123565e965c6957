package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type VolumeRatioConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Number of prior bars in the average volume,minimum=2,default=20" validate:"gte=2"`
}

// VolumeRatio divides each bar's volume by the mean volume of the previous period bars.
type VolumeRatio struct {
	config VolumeRatioConfig
}

func NewVolumeRatio(config VolumeRatioConfig) (*VolumeRatio, error) {
	v := &VolumeRatio{config: config}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *VolumeRatio) Name() types.IndicatorType {
	return types.IndicatorTypeVolumeRatio
}

func (v *VolumeRatio) Validate() error {
	return validateConfig(v.Name(), v.config)
}

func (v *VolumeRatio) Column() string {
	return fmt.Sprintf("volume_ratio%d", v.config.Period)
}

func (v *VolumeRatio) Columns() []string {
	return []string{v.Column()}
}

func (v *VolumeRatio) Lookback() int {
	return v.config.Period + 1
}

func (v *VolumeRatio) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := v.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	if err := checkSeries(v.Name(), series, v.Lookback(), types.PriceColumnVolume); err != nil {
		return types.IndicatorResult{}, err
	}

	volumes := series.Column(types.PriceColumnVolume)
	result := types.NewIndicatorResult(v.Name(), series.Dates(), v.Column())
	period := v.config.Period

	sum := 0.0
	for i := 0; i < len(volumes); i++ {
		if i >= period {
			// zero average volume leaves the ratio undefined
			if sum > 0 {
				result.Columns[v.Column()].Set(i, volumes[i]/(sum/float64(period)))
			}

			sum -= volumes[i-period]
		}

		sum += volumes[i]
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}

// OBV is On-Balance Volume: a running sum of volume signed by the close-to-close change.
// It starts at 0 and is never reset.
type OBV struct{}

func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

func (o *OBV) Validate() error {
	return nil
}

func (o *OBV) Columns() []string {
	return []string{"obv"}
}

func (o *OBV) Lookback() int {
	return 1
}

func (o *OBV) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := checkSeries(o.Name(), series, o.Lookback(), types.PriceColumnClose, types.PriceColumnVolume); err != nil {
		return types.IndicatorResult{}, err
	}

	result := types.NewIndicatorResult(o.Name(), series.Dates(), o.Columns()...)
	column := result.Columns["obv"]

	running := 0.0
	column.Set(0, running)

	for i := 1; i < series.Len(); i++ {
		bar := series.Bars[i]
		prev := series.Bars[i-1].Close

		switch {
		case bar.Close > prev:
			running += bar.Volume
		case bar.Close < prev:
			running -= bar.Volume
		}

		column.Set(i, running)
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}

// AD is the Accumulation/Distribution line: a running sum of the close location value times volume.
// Bars with no range contribute nothing.
type AD struct{}

func NewAD() *AD {
	return &AD{}
}

func (a *AD) Name() types.IndicatorType {
	return types.IndicatorTypeAD
}

func (a *AD) Validate() error {
	return nil
}

func (a *AD) Columns() []string {
	return []string{"ad"}
}

func (a *AD) Lookback() int {
	return 1
}

func (a *AD) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := checkSeries(a.Name(), series, a.Lookback(),
		types.PriceColumnHigh, types.PriceColumnLow, types.PriceColumnClose, types.PriceColumnVolume); err != nil {
		return types.IndicatorResult{}, err
	}

	result := types.NewIndicatorResult(a.Name(), series.Dates(), a.Columns()...)
	column := result.Columns["ad"]

	running := 0.0
	for i, bar := range series.Bars {
		if span := bar.High - bar.Low; span > 0 {
			clv := ((bar.Close - bar.Low) - (bar.High - bar.Close)) / span
			running += clv * bar.Volume
		}

		column.Set(i, running)
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}

// PVT is the Price Volume Trend: a running sum of the relative close change times volume.
type PVT struct{}

func NewPVT() *PVT {
	return &PVT{}
}

func (p *PVT) Name() types.IndicatorType {
	return types.IndicatorTypePVT
}

func (p *PVT) Validate() error {
	return nil
}

func (p *PVT) Columns() []string {
	return []string{"pvt"}
}

func (p *PVT) Lookback() int {
	return 1
}

func (p *PVT) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := checkSeries(p.Name(), series, p.Lookback(), types.PriceColumnClose, types.PriceColumnVolume); err != nil {
		return types.IndicatorResult{}, err
	}

	result := types.NewIndicatorResult(p.Name(), series.Dates(), p.Columns()...)
	column := result.Columns["pvt"]

	running := 0.0
	column.Set(0, running)

	for i := 1; i < series.Len(); i++ {
		prev := series.Bars[i-1].Close
		if prev == 0 {
			return types.IndicatorResult{}, errors.NewComputationError("pvt", series.Bars[i].Date, "previous close is zero")
		}

		running += (series.Bars[i].Close - prev) / prev * series.Bars[i].Volume
		column.Set(i, running)
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}
