package strategy_test

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) TestRunPropagatesIndicatorError() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	series := mocks.FlatSeries("TEST", 10, 10)
	failure := errors.NewInsufficientDataError(20, 10, "TEST", "short")

	ind := mocks.NewMockIndicator(ctrl)
	ind.EXPECT().Calculate(series).Return(types.IndicatorResult{}, failure)

	s := mocks.NewMockStrategy(ctrl)
	s.EXPECT().Validate().Return(nil)
	s.EXPECT().Indicators().Return([]indicator.Indicator{ind})

	_, err := strategy.Run(s, series)
	suite.Equal(failure, err)
}

func (suite *StrategyTestSuite) TestRunRejectsMisalignedSignals() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	series := mocks.FlatSeries("TEST", 10, 10)

	s := mocks.NewMockStrategy(ctrl)
	s.EXPECT().Validate().Return(nil)
	s.EXPECT().Indicators().Return(nil)
	s.EXPECT().Name().Return("broken").AnyTimes()
	s.EXPECT().GenerateSignals(series, gomock.Any()).Return(types.NewSignalSeries("broken", series.Dates()[:5]), nil)

	_, err := strategy.Run(s, series)
	suite.Equal(errors.ErrCodeStrategyRuntimeError, errors.GetCode(err))
}

func (suite *StrategyTestSuite) TestNewFromConfig() {
	tests := []struct {
		name     string
		config   strategy.Config
		wantName string
		code     errors.ErrorCode
		wantErr  bool
	}{
		{
			name:     "ma cross defaults",
			config:   strategy.Config{Type: types.StrategyTypeMACross},
			wantName: "ma_cross_sma_5_20",
		},
		{
			name:     "ma cross params",
			config:   strategy.Config{Name: "fast", Type: types.StrategyTypeMACross, Params: map[string]any{"fast": 10, "slow": 30, "kind": "ema"}},
			wantName: "fast",
		},
		{
			name:    "fast not below slow",
			config:  strategy.Config{Type: types.StrategyTypeMACross, Params: map[string]any{"fast": 20, "slow": 20}},
			code:    errors.ErrCodeStrategyConfigError,
			wantErr: true,
		},
		{
			name:    "oversold above overbought",
			config:  strategy.Config{Type: types.StrategyTypeOscillatorThreshold, Params: map[string]any{"oversold": 80, "overbought": 70}},
			code:    errors.ErrCodeStrategyConfigError,
			wantErr: true,
		},
		{
			name:    "volume ratio below one",
			config:  strategy.Config{Type: types.StrategyTypeBreakout, Params: map[string]any{"min_volume_ratio": 0.5}},
			code:    errors.ErrCodeStrategyConfigError,
			wantErr: true,
		},
		{
			name:    "proximity reaching the middle of the band",
			config:  strategy.Config{Type: types.StrategyTypeBandReversion, Params: map[string]any{"proximity": 0.5}},
			code:    errors.ErrCodeStrategyConfigError,
			wantErr: true,
		},
		{
			name:     "proximity just below the middle of the band",
			config:   strategy.Config{Type: types.StrategyTypeBandReversion, Params: map[string]any{"proximity": 0.49}},
			wantName: "band_reversion_20_2",
		},
		{
			name:    "wrong param type",
			config:  strategy.Config{Type: types.StrategyTypeBandReversion, Params: map[string]any{"period": "twenty"}},
			code:    errors.ErrCodeStrategyConfigError,
			wantErr: true,
		},
		{
			name:    "unknown type",
			config:  strategy.Config{Type: "pairs"},
			code:    errors.ErrCodeUnsupportedStrategy,
			wantErr: true,
		},
		{
			name:     "macd cross",
			config:   strategy.Config{Type: types.StrategyTypeMACDCross},
			wantName: "macd_cross_12_26_9",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			s, err := strategy.New(tc.config)
			if tc.wantErr {
				suite.Nil(s)
				suite.Equal(tc.code, errors.GetCode(err))
				suite.True(errors.IsValidation(err))

				return
			}

			suite.Require().NoError(err)
			suite.Equal(tc.wantName, s.Name())
			suite.Equal(tc.config.Type, s.Type())
			suite.NotEmpty(s.Describe())
			suite.NoError(s.Validate())
		})
	}
}

func (suite *StrategyTestSuite) TestSchemaAndDefaults() {
	suite.Equal([]types.StrategyType{
		types.StrategyTypeBandReversion,
		types.StrategyTypeBreakout,
		types.StrategyTypeMACross,
		types.StrategyTypeMACDCross,
		types.StrategyTypeOscillatorThreshold,
	}, strategy.Types())

	for _, t := range strategy.Types() {
		schema, err := strategy.Schema(t)
		suite.NoError(err)
		suite.NotEmpty(schema)

		defaults, err := strategy.Defaults(t)
		suite.NoError(err)

		_, err = strategy.New(strategy.Config{Type: t, Params: defaults})
		suite.NoError(err)
	}

	_, err := strategy.Schema("pairs")
	suite.Error(err)
}
