package strategy_test

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
)

type VariantsTestSuite struct {
	suite.Suite
}

func TestVariantsSuite(t *testing.T) {
	suite.Run(t, new(VariantsTestSuite))
}

func (suite *VariantsTestSuite) TestOscillatorCrossMode() {
	s, err := strategy.NewOscillatorThreshold("", strategy.OscillatorThresholdConfig{
		Period: 2, Oversold: 30, Overbought: 70, Mode: strategy.ThresholdModeCross,
	})
	suite.Require().NoError(err)

	// falls hard, then recovers, then rallies and fades
	closes := []float64{10, 9, 8, 7, 8, 9, 10, 11, 12, 11, 10}
	signals, err := strategy.Run(s, mocks.SeriesFromCloses("TEST", closes...))
	suite.Require().NoError(err)

	suite.Equal(types.SignalHold, signals.Signals[2])
	suite.Equal(types.SignalBuy, signals.Signals[4])
	suite.Equal(types.SignalSell, signals.Signals[9])
	suite.Equal(1, signals.Count(types.SignalBuy))
	suite.Equal(1, signals.Count(types.SignalSell))
}

func (suite *VariantsTestSuite) TestOscillatorLevelMode() {
	s, err := strategy.NewOscillatorThreshold("", strategy.OscillatorThresholdConfig{
		Period: 2, Oversold: 30, Overbought: 70, Mode: strategy.ThresholdModeLevel,
	})
	suite.Require().NoError(err)

	signals, err := strategy.Run(s, mocks.SeriesFromCloses("TEST", 10, 9, 8, 7))
	suite.Require().NoError(err)

	suite.Equal([]types.Signal{types.SignalHold, types.SignalHold, types.SignalBuy, types.SignalBuy}, signals.Signals)
}

func (suite *VariantsTestSuite) TestBreakoutNeedsVolume() {
	s, err := strategy.NewBreakout("", strategy.BreakoutConfig{Period: 3, VolumePeriod: 3, MinVolumeRatio: 1.5})
	suite.Require().NoError(err)

	series := mocks.SeriesFromCloses("TEST", 10, 10, 10, 11, 10, 12, 8)
	series.Bars[5].Volume = 3_000_000

	signals, err := strategy.Run(s, series)
	suite.Require().NoError(err)

	// bar 3 breaks out on flat volume, bar 5 on triple volume
	suite.Equal(types.SignalHold, signals.Signals[3])
	suite.Equal(types.SignalBuy, signals.Signals[5])
	suite.Equal(types.SignalSell, signals.Signals[6])
}

func (suite *VariantsTestSuite) TestBandReversion() {
	s, err := strategy.NewBandReversion("", strategy.BandReversionConfig{
		Period: 5, Deviation: 1, VolumePeriod: 2, MaxVolumeRatio: 1, Proximity: 0.1, FilterRepeats: true,
	})
	suite.Require().NoError(err)

	series := mocks.SeriesFromCloses("TEST", 10, 10.2, 9.9, 10.1, 10, 8, 7.5, 10, 12, 12.5)
	signals, err := strategy.Run(s, series)
	suite.Require().NoError(err)

	suite.Equal(types.SignalBuy, signals.Signals[5])
	// still below the band on bar 6 but repeats are filtered
	suite.Equal(types.SignalHold, signals.Signals[6])
	suite.Equal(types.SignalSell, signals.Signals[8])
}

func (suite *VariantsTestSuite) TestMACDCross() {
	s, err := strategy.NewMACDCross("", strategy.MACDCrossConfig{Fast: 2, Slow: 4, Signal: 2})
	suite.Require().NoError(err)

	closes := []float64{10, 10, 10, 10, 10, 10, 11, 12, 13, 13, 12, 11, 10, 9}
	signals, err := strategy.Run(s, mocks.SeriesFromCloses("TEST", closes...))
	suite.Require().NoError(err)

	suite.Equal(types.SignalBuy, signals.Signals[6])
	suite.GreaterOrEqual(signals.Count(types.SignalSell), 1)
}
