package combiner

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type CombinerTestSuite struct {
	suite.Suite
	dates []time.Time
}

func TestCombinerSuite(t *testing.T) {
	suite.Run(t, new(CombinerTestSuite))
}

func (suite *CombinerTestSuite) SetupTest() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.dates = []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)}
}

func (suite *CombinerTestSuite) series(name string, signals ...types.Signal) types.SignalSeries {
	s := types.NewSignalSeries(name, suite.dates[:len(signals)])
	copy(s.Signals, signals)

	return s
}

// buyBuySell returns three single-day series voting Buy, Buy, Sell.
func (suite *CombinerTestSuite) buyBuySell() []types.SignalSeries {
	return []types.SignalSeries{
		suite.series("a", types.SignalBuy),
		suite.series("b", types.SignalBuy),
		suite.series("c", types.SignalSell),
	}
}

func (suite *CombinerTestSuite) TestRules() {
	tests := []struct {
		name string
		rule Rule
		want types.Signal
	}{
		{name: "majority vote", rule: MajorityVote{}, want: types.SignalBuy},
		{name: "consensus", rule: Consensus{}, want: types.SignalHold},
		{name: "weighted low threshold", rule: WeightedAverage{Weights: []float64{1, 1, 1}, Threshold: 0.5}, want: types.SignalBuy},
		{name: "weighted high threshold", rule: WeightedAverage{Weights: []float64{1, 1, 1}, Threshold: 1.5}, want: types.SignalHold},
		{name: "equal weights", rule: WeightedAverage{Threshold: 0.3}, want: types.SignalBuy},
		{name: "equal weights above score", rule: WeightedAverage{Threshold: 0.5}, want: types.SignalHold},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			combined, err := Combine(suite.buyBuySell(), tc.rule)
			suite.Require().NoError(err)
			suite.Equal(tc.want, combined.Signals[0])
			suite.Equal(tc.rule.Name(), combined.Rule)
			suite.Equal([]string{"a", "b", "c"}, combined.Inputs)
		})
	}
}

func (suite *CombinerTestSuite) TestTiesHold() {
	inputs := []types.SignalSeries{
		suite.series("a", types.SignalBuy, types.SignalSell, types.SignalHold),
		suite.series("b", types.SignalSell, types.SignalSell, types.SignalHold),
	}

	combined, err := Combine(inputs, MajorityVote{})
	suite.Require().NoError(err)
	suite.Equal([]types.Signal{types.SignalHold, types.SignalSell, types.SignalHold}, combined.Signals)

	combined, err = Combine(inputs, Consensus{})
	suite.Require().NoError(err)
	suite.Equal([]types.Signal{types.SignalHold, types.SignalSell, types.SignalHold}, combined.Signals)
}

func (suite *CombinerTestSuite) TestWeightedSell() {
	inputs := []types.SignalSeries{
		suite.series("a", types.SignalSell),
		suite.series("b", types.SignalHold),
	}

	combined, err := Combine(inputs, WeightedAverage{Weights: []float64{3, 1}, Threshold: 2})
	suite.Require().NoError(err)
	suite.Equal(types.SignalSell, combined.Signals[0])
}

func (suite *CombinerTestSuite) TestValidation() {
	tests := []struct {
		name   string
		inputs []types.SignalSeries
		rule   Rule
		code   errors.ErrorCode
	}{
		{name: "no inputs", inputs: nil, rule: MajorityVote{}, code: errors.ErrCodeEmptyInput},
		{name: "no rule", inputs: suite.buyBuySell(), rule: nil, code: errors.ErrCodeInvalidRule},
		{
			name: "mismatched dates",
			inputs: []types.SignalSeries{
				suite.series("a", types.SignalBuy, types.SignalBuy),
				suite.series("b", types.SignalBuy),
			},
			rule: MajorityVote{},
			code: errors.ErrCodeMismatchedIndex,
		},
		{name: "weight count", inputs: suite.buyBuySell(), rule: WeightedAverage{Weights: []float64{1, 1}}, code: errors.ErrCodeInvalidWeights},
		{name: "negative weight", inputs: suite.buyBuySell(), rule: WeightedAverage{Weights: []float64{1, -1, 1}}, code: errors.ErrCodeInvalidWeights},
		{name: "zero weights", inputs: suite.buyBuySell(), rule: WeightedAverage{Weights: []float64{0, 0, 0}}, code: errors.ErrCodeInvalidWeights},
		{name: "negative threshold", inputs: suite.buyBuySell(), rule: WeightedAverage{Threshold: -1}, code: errors.ErrCodeInvalidThreshold},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Combine(tc.inputs, tc.rule)
			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
			suite.True(errors.IsValidation(err))
		})
	}
}

func (suite *CombinerTestSuite) TestConfig() {
	var config Config
	suite.Require().NoError(yaml.Unmarshal([]byte("rule: weighted_average\nweights: [2, 1]\n"), &config))
	suite.True(config.Threshold.IsNone())

	rule, err := config.Build()
	suite.Require().NoError(err)
	suite.Equal(WeightedAverage{Weights: []float64{2, 1}, Threshold: DefaultThreshold}, rule)

	suite.Require().NoError(yaml.Unmarshal([]byte("rule: weighted_average\nthreshold: 0.75\n"), &config))
	suite.Equal(optional.Some(0.75), config.Threshold)

	out, err := yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.Contains(string(out), "threshold: 0.75")

	rule, err = Config{}.Build()
	suite.Require().NoError(err)
	suite.Equal(MajorityVote{}, rule)

	_, err = Config{Rule: "unanimous"}.Build()
	suite.Equal(errors.ErrCodeInvalidRule, errors.GetCode(err))
}
