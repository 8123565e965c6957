package strategy_test

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
)

type MACrossTestSuite struct {
	suite.Suite
}

func TestMACrossSuite(t *testing.T) {
	suite.Run(t, new(MACrossTestSuite))
}

func (suite *MACrossTestSuite) newCross(fast, slow int) *strategy.MACross {
	s, err := strategy.NewMACross("", strategy.MACrossConfig{Fast: fast, Slow: slow, Kind: indicator.MAKindSimple})
	suite.Require().NoError(err)

	return s
}

func (suite *MACrossTestSuite) TestFlatSeriesHasNoCrossings() {
	signals, err := strategy.Run(suite.newCross(5, 10), mocks.FlatSeries("TEST", 30, 10))
	suite.Require().NoError(err)

	suite.Equal(30, signals.Len())
	suite.Equal(30, signals.Count(types.SignalHold))
}

func (suite *MACrossTestSuite) TestRisingSeriesBuysOnce() {
	signals, err := strategy.Run(suite.newCross(5, 10), mocks.LinearSeries("TEST", 20, 10, 15))
	suite.Require().NoError(err)

	suite.Equal(1, signals.Count(types.SignalBuy))
	suite.Equal(0, signals.Count(types.SignalSell))
	// the slow average is first defined at index 9
	suite.Equal(types.SignalBuy, signals.Signals[9])
}

func (suite *MACrossTestSuite) TestCrossBothWays() {
	closes := []float64{10, 10, 10, 10, 10, 11, 12, 13, 14, 15, 14, 13, 12, 11, 10, 9, 8}
	signals, err := strategy.Run(suite.newCross(2, 4), mocks.SeriesFromCloses("TEST", closes...))
	suite.Require().NoError(err)

	suite.Equal(1, signals.Count(types.SignalBuy))
	suite.Equal(1, signals.Count(types.SignalSell))
	suite.Equal(types.SignalBuy, signals.Signals[5])
	suite.Equal(types.SignalSell, signals.Signals[11])
}
