package indicator

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type BollingerBandsConfig struct {
	Period  int               `yaml:"period" json:"period" jsonschema:"title=Period,description=Window of the middle band,minimum=5,default=20" validate:"gte=5"`
	DevUp   float64           `yaml:"dev_up" json:"dev_up" jsonschema:"title=Upper Deviation,description=Standard deviations above the middle band,exclusiveMinimum=0,default=2" validate:"gt=0"`
	DevDown float64           `yaml:"dev_down" json:"dev_down" jsonschema:"title=Lower Deviation,description=Standard deviations below the middle band,exclusiveMinimum=0,default=2" validate:"gt=0"`
	Source  types.PriceColumn `yaml:"source,omitempty" json:"source,omitempty" jsonschema:"title=Source,enum=close,enum=open,enum=high,enum=low,enum=hl2,enum=hlc3,enum=ohlc4,default=close" validate:"omitempty,oneof=open high low close hl2 hlc3 ohlc4"`
}

// BollingerBands computes upper, middle and lower bands with the population
// standard deviation, plus bandwidth and %B.
type BollingerBands struct {
	config BollingerBandsConfig
}

func NewBollingerBands(config BollingerBandsConfig) (*BollingerBands, error) {
	bb := &BollingerBands{config: config}
	if err := bb.Validate(); err != nil {
		return nil, err
	}

	return bb, nil
}

func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

func (bb *BollingerBands) Validate() error {
	return validateConfig(bb.Name(), bb.config)
}

func (bb *BollingerBands) column(part string) string {
	return fmt.Sprintf("bb_%s_%d", part, bb.config.Period)
}

func (bb *BollingerBands) UpperColumn() string     { return bb.column("upper") }
func (bb *BollingerBands) MiddleColumn() string    { return bb.column("middle") }
func (bb *BollingerBands) LowerColumn() string     { return bb.column("lower") }
func (bb *BollingerBands) BandwidthColumn() string { return bb.column("bandwidth") }
func (bb *BollingerBands) PercentBColumn() string  { return bb.column("pct_b") }

func (bb *BollingerBands) Columns() []string {
	return []string{bb.UpperColumn(), bb.MiddleColumn(), bb.LowerColumn(), bb.BandwidthColumn(), bb.PercentBColumn()}
}

func (bb *BollingerBands) Lookback() int {
	return bb.config.Period
}

func (bb *BollingerBands) Calculate(series types.PriceSeries) (types.IndicatorResult, error) {
	if err := bb.Validate(); err != nil {
		return types.IndicatorResult{}, err
	}

	source := sourceOrClose(bb.config.Source)
	if err := checkSeries(bb.Name(), series, bb.Lookback(), sourceColumns(source)...); err != nil {
		return types.IndicatorResult{}, err
	}

	prices := series.Column(source)
	dates := series.Dates()
	result := types.NewIndicatorResult(bb.Name(), dates, bb.Columns()...)
	middle := smaOf(definedSeries(prices), bb.config.Period)

	for i := bb.config.Period - 1; i < len(prices); i++ {
		mid, _ := middle.Get(i)

		std, err := stats.StandardDeviationPopulation(prices[i-bb.config.Period+1 : i+1])
		if err != nil {
			return types.IndicatorResult{}, errors.NewComputationError(bb.MiddleColumn(), dates[i], err.Error())
		}

		upper := mid + bb.config.DevUp*std
		lower := mid - bb.config.DevDown*std

		result.Columns[bb.UpperColumn()].Set(i, upper)
		result.Columns[bb.MiddleColumn()].Set(i, mid)
		result.Columns[bb.LowerColumn()].Set(i, lower)

		if mid != 0 {
			result.Columns[bb.BandwidthColumn()].Set(i, (upper-lower)/mid)
		}

		// %B is undefined on a zero-width band
		if width := upper - lower; width > 0 {
			result.Columns[bb.PercentBColumn()].Set(i, (prices[i]-lower)/width)
		}
	}

	if err := checkResult(result); err != nil {
		return types.IndicatorResult{}, err
	}

	return result, nil
}
