package engine

import (
	stderrors "errors"
	"math/rand"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SimulateTestSuite struct {
	suite.Suite
	config BacktestEngineV1Config
}

func TestSimulateSuite(t *testing.T) {
	suite.Run(t, new(SimulateTestSuite))
}

func (suite *SimulateTestSuite) SetupTest() {
	suite.config = EmptyConfig()
	suite.config.InitialCapital = 10000
}

// signalsFor holds everywhere except the given rows.
func signalsFor(series types.PriceSeries, at map[int]types.Signal) types.SignalSeries {
	signals := types.NewSignalSeries("test", series.Dates())
	for i, signal := range at {
		signals.Signals[i] = signal
	}

	return signals
}

func (suite *SimulateTestSuite) TestHoldOnlyKeepsCapital() {
	series := mocks.FlatSeries("TEST", 30, 10)

	result, err := Simulate(series, signalsFor(series, nil), suite.config)
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Empty(result.Marks)
	suite.Equal(series.Len(), result.Equity.Len())

	for _, point := range result.Equity.Points {
		suite.InDelta(10000.0, point.Equity, 1e-9)
	}
}

func (suite *SimulateTestSuite) TestFlatPricesWithoutCostsReturnZero() {
	series := mocks.FlatSeries("TEST", 30, 10)
	at := map[int]types.Signal{}

	for i := 0; i < series.Len(); i++ {
		switch i % 4 {
		case 0:
			at[i] = types.SignalBuy
		case 2:
			at[i] = types.SignalSell
		}
	}

	result, err := Simulate(series, signalsFor(series, at), suite.config)
	suite.Require().NoError(err)

	suite.NotEmpty(result.Trades)
	suite.InDelta(10000.0, result.Equity.Final(), 1e-9)

	for _, trade := range result.Trades {
		suite.InDelta(0.0, trade.RealizedPnL, 1e-9)
	}
}

func (suite *SimulateTestSuite) TestRisingSeriesBuyAndHold() {
	series := mocks.LinearSeries("TEST", 20, 10, 29)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)
	trade := result.Trades[0]

	// fills at the open of the next bar
	suite.Equal(series.Bars[1].Date, trade.EntryDate)
	suite.InDelta(10.0, trade.EntryPrice, 1e-9)
	suite.InDelta(1000.0, trade.Quantity, 1e-9)
	suite.Equal(series.Bars[19].Date, trade.ExitDate)
	suite.InDelta(29.0, trade.ExitPrice, 1e-9)
	suite.Equal(types.ExitReasonHorizonEnd, trade.ExitReason)
	suite.Equal(18, trade.HoldingBars)
	suite.InDelta(19000.0, trade.RealizedPnL, 1e-9)

	suite.InDelta(10000.0, result.Equity.Points[0].Equity, 1e-9)
	suite.InDelta(11000.0, result.Equity.Points[1].Equity, 1e-9)
	suite.InDelta(29000.0, result.Equity.Final(), 1e-9)
	suite.InDelta(0.0, result.Equity.Points[19].PositionValue, 1e-9)
}

func (suite *SimulateTestSuite) TestExecutionAtClose() {
	suite.config.ExecutionPrice = ExecutionPriceClose
	series := mocks.LinearSeries("TEST", 20, 10, 29)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)
	suite.InDelta(11.0, result.Trades[0].EntryPrice, 1e-9)
	suite.InDelta(909.0, result.Trades[0].Quantity, 1e-9)
}

func (suite *SimulateTestSuite) TestSellSignalExit() {
	series := mocks.SeriesFromCloses("TEST", 100, 100, 110, 120, 120)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{
		0: types.SignalBuy,
		2: types.SignalSell,
	}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)
	trade := result.Trades[0]
	suite.Equal(types.ExitReasonSignal, trade.ExitReason)
	suite.Equal(series.Bars[3].Date, trade.ExitDate)
	// bar 3 opens at the previous close
	suite.InDelta(110.0, trade.ExitPrice, 1e-9)
	suite.InDelta(1000.0, trade.RealizedPnL, 1e-9)
	suite.InDelta(11000.0, result.Equity.Final(), 1e-9)
}

func (suite *SimulateTestSuite) TestStopLoss() {
	suite.config.StopLossPct = optional.Some(0.05)
	series := mocks.SeriesFromCloses("TEST", 100, 100, 90, 80)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)
	trade := result.Trades[0]
	suite.Equal(types.ExitReasonStopLoss, trade.ExitReason)
	suite.Equal(series.Bars[2].Date, trade.ExitDate)
	suite.InDelta(90.0, trade.ExitPrice, 1e-9)
	suite.InDelta(-1000.0, trade.RealizedPnL, 1e-9)
	suite.Equal(1, trade.HoldingBars)

	// flat after the stop, so the drop to 80 does not matter
	suite.InDelta(9000.0, result.Equity.Final(), 1e-9)
}

func (suite *SimulateTestSuite) TestTakeProfit() {
	suite.config.TakeProfitPct = optional.Some(0.1)
	series := mocks.SeriesFromCloses("TEST", 100, 100, 120, 130)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)
	suite.Equal(types.ExitReasonTakeProfit, result.Trades[0].ExitReason)
	suite.InDelta(120.0, result.Trades[0].ExitPrice, 1e-9)
	suite.InDelta(12000.0, result.Equity.Final(), 1e-9)
}

func (suite *SimulateTestSuite) TestIgnoredSignalsAreMarked() {
	series := mocks.SeriesFromCloses("TEST", 100, 100, 100, 100, 100)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{
		0: types.SignalSell,
		1: types.SignalBuy,
		2: types.SignalBuy,
	}), suite.config)
	suite.Require().NoError(err)

	suite.Require().Len(result.Marks, 4)
	suite.Equal(types.MarkCategoryNoOp, result.Marks[0].Category)
	suite.Equal(series.Bars[1].Date, result.Marks[0].Date)
	suite.Equal(types.MarkCategoryEntry, result.Marks[1].Category)
	suite.Equal(types.MarkCategoryNoOp, result.Marks[2].Category)
	suite.Equal(types.SignalBuy, result.Marks[2].Signal)
	suite.Equal(types.MarkCategoryExit, result.Marks[3].Category)

	// the second buy did not add to the position
	suite.Require().Len(result.Trades, 1)
	suite.Equal(types.ExitReasonHorizonEnd, result.Trades[0].ExitReason)
}

func (suite *SimulateTestSuite) TestSignalOnLastBarIgnored() {
	series := mocks.LinearSeries("TEST", 5, 10, 14)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{4: types.SignalBuy}), suite.config)
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Empty(result.Marks)
}

func (suite *SimulateTestSuite) TestUnfundableBuy() {
	series := mocks.FlatSeries("TEST", 5, 20000)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config)
	suite.Error(err)
	suite.Nil(result)
	suite.Equal(errors.ErrCodeUnfundableOrder, errors.GetCode(err))
	suite.True(errors.IsSimulation(err))
}

func (suite *SimulateTestSuite) TestBrokerCostsAreReservedWhenSizing() {
	tests := []struct {
		name     string
		modify   func(c *BacktestEngineV1Config)
		quantity float64
		cost     float64
	}{
		{
			name:     "interactive broker",
			modify:   func(c *BacktestEngineV1Config) { c.Broker = commission_fee.BrokerInteractiveBroker },
			quantity: 999,
			cost:     4.995,
		},
		{
			name: "binding minimum commission",
			modify: func(c *BacktestEngineV1Config) {
				c.CommissionRate = 0.0003
				c.MinCommission = 5
			},
			quantity: 999,
			cost:     5,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := suite.config
			tc.modify(&config)

			series := mocks.FlatSeries("TEST", 10, 10)
			at := map[int]types.Signal{1: types.SignalBuy}

			result, err := Simulate(series, signalsFor(series, at), config)
			suite.Require().NoError(err)
			suite.Require().Len(result.Trades, 1)

			trade := result.Trades[0]
			suite.InDelta(tc.quantity, trade.Quantity, 1e-9)
			suite.Equal(types.ExitReasonHorizonEnd, trade.ExitReason)
			suite.InDelta(2*tc.cost, trade.Cost, 1e-6)

			for _, point := range result.Equity.Points {
				suite.GreaterOrEqual(point.Cash, 0.0)
			}

			suite.InDelta(10000-2*tc.cost, result.Equity.Final(), 1e-6)
		})
	}
}

func (suite *SimulateTestSuite) TestInputErrors() {
	series := mocks.FlatSeries("TEST", 5, 10)

	suite.Run("mismatched length", func() {
		signals := signalsFor(mocks.FlatSeries("TEST", 4, 10), nil)

		_, err := Simulate(series, signals, suite.config)
		suite.Equal(errors.ErrCodeMismatchedIndex, errors.GetCode(err))
		suite.True(errors.IsValidation(err))
	})

	suite.Run("mismatched dates", func() {
		signals := signalsFor(series, nil)
		shifted := make([]time.Time, len(signals.Dates))

		for i, date := range signals.Dates {
			shifted[i] = date.AddDate(0, 0, 1)
		}

		signals.Dates = shifted

		_, err := Simulate(series, signals, suite.config)
		suite.Equal(errors.ErrCodeMismatchedIndex, errors.GetCode(err))
	})

	suite.Run("empty series", func() {
		empty := types.PriceSeries{Symbol: "TEST", Bars: nil}

		_, err := Simulate(empty, signalsFor(empty, nil), suite.config)
		suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
	})

	suite.Run("invalid config", func() {
		config := suite.config
		config.InitialCapital = 0

		_, err := Simulate(series, signalsFor(series, nil), config)
		suite.True(errors.IsValidation(err))
	})
}

func (suite *SimulateTestSuite) TestOnBarCallback() {
	series := mocks.FlatSeries("TEST", 10, 10)
	calls := 0

	_, err := Simulate(series, signalsFor(series, nil), suite.config, WithOnBar(func(current, total int) error {
		calls++
		suite.Equal(10, total)
		suite.Equal(calls, current)

		return nil
	}))
	suite.Require().NoError(err)
	suite.Equal(10, calls)

	_, err = Simulate(series, signalsFor(series, nil), suite.config, WithOnBar(func(int, int) error {
		return stderrors.New("stop")
	}))
	suite.Equal(errors.ErrCodeCallbackFailed, errors.GetCode(err))
}

func (suite *SimulateTestSuite) TestMarkerErrorAbortsRun() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	marker := mocks.NewMockMarker(ctrl)
	marker.EXPECT().Mark(gomock.Any()).Return(stderrors.New("marker unavailable")).Times(1)

	series := mocks.FlatSeries("TEST", 5, 10)

	_, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config, WithMarker(marker))
	suite.Error(err)
	suite.Contains(err.Error(), "marker unavailable")
}

func (suite *SimulateTestSuite) TestCustomMarkerReceivesMarks() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	var recorded []types.Mark

	marker := mocks.NewMockMarker(ctrl)
	marker.EXPECT().Mark(gomock.Any()).DoAndReturn(func(mark types.Mark) error {
		recorded = append(recorded, mark)

		return nil
	}).Times(2)
	marker.EXPECT().GetMarks().DoAndReturn(func() ([]types.Mark, error) {
		return recorded, nil
	})

	series := mocks.FlatSeries("TEST", 5, 10)

	result, err := Simulate(series, signalsFor(series, map[int]types.Signal{0: types.SignalBuy}), suite.config, WithMarker(marker))
	suite.Require().NoError(err)
	suite.Len(result.Marks, 2)
}

// randomRun simulates a seeded random walk with random signals and realistic costs.
func (suite *SimulateTestSuite) randomRun(seed int64) (types.PriceSeries, types.SignalSeries, BacktestEngineV1Config) {
	generatorConfig := mocks.DefaultConfig()
	generatorConfig.Count = 120
	series := mocks.NewDataGenerator(seed).Generate(generatorConfig)

	rng := rand.New(rand.NewSource(seed))
	signals := types.NewSignalSeries("random", series.Dates())

	for i := range signals.Signals {
		signals.Signals[i] = types.Signal(rng.Intn(3) - 1)
	}

	config := suite.config
	config.InitialCapital = 100000
	config.CommissionRate = 0.0003
	config.MinCommission = 5
	config.FixedFee = 0.1
	config.StampTaxRate = 0.001
	config.SlippageRate = 0.001
	config.LotSize = 100

	return series, signals, config
}

func (suite *SimulateTestSuite) TestCashConservation() {
	for _, seed := range []int64{1, 7, 42} {
		series, signals, config := suite.randomRun(seed)

		result, err := Simulate(series, signals, config)
		suite.Require().NoError(err)

		realized := 0.0
		for _, trade := range result.Trades {
			realized += trade.RealizedPnL
		}

		for _, point := range result.Equity.Points {
			suite.GreaterOrEqual(point.Cash, 0.0)
			suite.InDelta(point.Cash+point.PositionValue, point.Equity, 1e-6)
		}

		// the run always ends flat
		suite.InDelta(config.InitialCapital+realized, result.Equity.Final(), 1e-6)
	}
}

func (suite *SimulateTestSuite) TestDeterministic() {
	series, signals, config := suite.randomRun(3)

	first, err := Simulate(series, signals, config)
	suite.Require().NoError(err)

	second, err := Simulate(series, signals, config)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *SimulateTestSuite) TestFutureBarsDoNotChangePastEquity() {
	series, signals, config := suite.randomRun(11)
	// without costs the forced exit on the last bar does not move equity
	config.CommissionRate = 0
	config.MinCommission = 0
	config.FixedFee = 0
	config.StampTaxRate = 0
	config.SlippageRate = 0

	full, err := Simulate(series, signals, config)
	suite.Require().NoError(err)

	cut := 60
	truncated, err := Simulate(series.Slice(0, cut), signals.Slice(0, cut), config)
	suite.Require().NoError(err)

	for i := 0; i < cut; i++ {
		suite.InDelta(full.Equity.Points[i].Equity, truncated.Equity.Points[i].Equity, 1e-6, "day %d", i)
	}
}
