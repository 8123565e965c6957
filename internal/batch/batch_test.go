package batch

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/combiner"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

const testBatch = `
backtest:
  initial_capital: 100000
  broker: rate
  commission_rate: 0.0003
  lot_size: 100
  stop_loss_pct: 0.05
strategies:
  - name: fast_cross
    type: ma_cross
    params:
      fast: 5
      slow: 20
      kind: ema
  - name: rsi
    type: oscillator_threshold
combiner:
  rule: weighted_average
  weights: [2, 1]
  threshold: 0.5
optimize:
  strategy: ma_cross
  grid:
    fast: [3, 5]
    slow: [10, 20, 30]
  metric: total_return
`

type BatchTestSuite struct {
	suite.Suite
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchTestSuite))
}

func (suite *BatchTestSuite) TestParse() {
	file, err := Parse([]byte(testBatch))
	suite.Require().NoError(err)

	suite.Equal(100000.0, file.Backtest.InitialCapital)
	suite.Equal(commission_fee.BrokerRate, file.Backtest.Broker)
	suite.Equal(100.0, file.Backtest.LotSize)
	suite.Equal(0.05, file.Backtest.StopLossPct.Unwrap())
	// absent keys keep their defaults
	suite.Equal(1.0, file.Backtest.PositionFraction)
	suite.Equal(4, file.Backtest.MaxParallel)

	suite.Require().Len(file.Strategies, 2)
	suite.Equal(types.StrategyTypeMACross, file.Strategies[0].Type)
	suite.Equal(5, file.Strategies[0].Params["fast"])

	suite.Require().NotNil(file.Combiner)
	suite.Equal("weighted_average", file.Combiner.Rule)
	suite.Equal([]float64{2, 1}, file.Combiner.Weights)
	suite.Equal(0.5, file.Combiner.Threshold.Unwrap())

	suite.Require().NotNil(file.Optimize)
	suite.Equal(optimizer.MetricTotalReturn, file.Optimize.Metric)
	suite.Len(file.Optimize.Grid["slow"], 3)
}

func (suite *BatchTestSuite) TestParseErrors() {
	_, err := Parse([]byte("backtest: [\n"))
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	_, err = Read(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}

func (suite *BatchTestSuite) TestEngineConfigRoundTrip() {
	file, err := Parse([]byte(testBatch))
	suite.Require().NoError(err)

	config, err := file.EngineConfig()
	suite.Require().NoError(err)

	var section map[string]any
	suite.Require().NoError(yaml.Unmarshal([]byte(config), &section))

	data, err := yaml.Marshal(map[string]any{"backtest": section})
	suite.Require().NoError(err)

	again, err := Parse(data)
	suite.Require().NoError(err)
	suite.Equal(file.Backtest, again.Backtest)
}

func (suite *BatchTestSuite) TestBuildStrategies() {
	file, err := Parse([]byte(testBatch))
	suite.Require().NoError(err)

	strategies, err := file.BuildStrategies()
	suite.Require().NoError(err)
	suite.Require().Len(strategies, 2)
	suite.Equal("fast_cross", strategies[0].Name())
	suite.Equal(types.StrategyTypeOscillatorThreshold, strategies[1].Type())

	file.Strategies = append(file.Strategies, file.Strategies[0])
	_, err = file.BuildStrategies()
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))

	file.Strategies = nil
	_, err = file.BuildStrategies()
	suite.Equal(errors.ErrCodeBacktestNoStrategies, errors.GetCode(err))
}

func (suite *BatchTestSuite) TestBuildCombiner() {
	file, err := Parse([]byte(testBatch))
	suite.Require().NoError(err)

	rule, err := file.BuildCombiner()
	suite.Require().NoError(err)
	suite.Require().True(rule.IsSome())
	suite.Equal(combiner.WeightedAverage{Weights: []float64{2, 1}, Threshold: 0.5}, rule.Unwrap())

	file.Combiner.Weights = []float64{1, 1, 1}
	_, err = file.BuildCombiner()
	suite.Equal(errors.ErrCodeInvalidWeights, errors.GetCode(err))

	file.Combiner = nil
	rule, err = file.BuildCombiner()
	suite.Require().NoError(err)
	suite.True(rule.IsNone())
}

func (suite *BatchTestSuite) TestSample() {
	sample := Sample()

	suite.Require().NoError(sample.Backtest.Validate())
	suite.Require().NoError(sample.Optimize.Validate())

	strategies, err := sample.BuildStrategies()
	suite.Require().NoError(err)
	suite.Len(strategies, 3)

	data, err := yaml.Marshal(sample)
	suite.Require().NoError(err)

	parsed, err := Parse(data)
	suite.Require().NoError(err)
	suite.Equal(sample.Backtest, parsed.Backtest)
	suite.Len(parsed.Strategies, 3)
}

func (suite *BatchTestSuite) TestGenerateSchemaJSON() {
	schema, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))
	suite.Equal("backtest-batch", decoded["title"])

	properties, ok := decoded["properties"].(map[string]any)
	suite.Require().True(ok)

	for _, key := range []string{"backtest", "strategies", "combiner", "optimize"} {
		suite.Contains(properties, key)
	}
}
