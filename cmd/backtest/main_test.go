package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/batch"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
)

const sampleBatch = `
backtest:
  initial_capital: 100000
  broker: rate
  commission_rate: 0.0003
  min_commission: 5
  stamp_tax_rate: 0.001
  lot_size: 100
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

type BacktestCmdTestSuite struct {
	suite.Suite
	dataDir string
}

func TestBacktestCmdSuite(t *testing.T) {
	suite.Run(t, new(BacktestCmdTestSuite))
}

func (suite *BacktestCmdTestSuite) SetupTest() {
	suite.dataDir = suite.T().TempDir()

	generator := mocks.NewDataGenerator(7)
	for _, symbol := range []string{"AAA", "BBB"} {
		config := mocks.DefaultConfig()
		config.Symbol = symbol

		suite.writeCSV(generator.Generate(config))
	}
}

func (suite *BacktestCmdTestSuite) writeCSV(series types.PriceSeries) {
	var content strings.Builder
	content.WriteString("date,open,high,low,close,volume\n")

	for _, bar := range series.Bars {
		fmt.Fprintf(&content, "%s,%v,%v,%v,%v,%v\n", bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	path := filepath.Join(suite.dataDir, series.Symbol+".csv")
	suite.Require().NoError(os.WriteFile(path, []byte(content.String()), 0644))
}

func (suite *BacktestCmdTestSuite) TestRunBatch() {
	file, err := batch.Parse([]byte(sampleBatch))
	suite.Require().NoError(err)

	results := filepath.Join(suite.T().TempDir(), "results")

	reports, err := runBatch(context.Background(), file, filepath.Join(suite.dataDir, "*.csv"), results, logger.NewNopLogger(), false)
	suite.Require().NoError(err)

	// two strategies and one combined run per series
	suite.Require().Len(reports, 6)

	for _, report := range reports {
		suite.Empty(report.Error, report.Strategy)
	}

	suite.Equal(types.StrategyTypeCombined, reports[5].StrategyType)
	suite.Equal("weighted_average(fast_cross,rsi)", reports[5].Strategy)

	_, err = os.Stat(filepath.Join(results, "summary.yaml"))
	suite.NoError(err)
}

func (suite *BacktestCmdTestSuite) TestOptimize() {
	file, err := batch.Parse([]byte(sampleBatch))
	suite.Require().NoError(err)

	report, err := optimize(context.Background(), file, filepath.Join(suite.dataDir, "AAA.csv"), logger.NewNopLogger(), false)
	suite.Require().NoError(err)
	suite.Len(report.Results, 6)
	suite.True(report.Best.IsSome())

	summary := optimizeSummary(report, 2)
	suite.Len(summary.Results, 2)
	suite.Require().NotNil(summary.Best)
	suite.Equal(report.Results[0].Name, summary.Best.Name)

	file.Optimize = nil
	_, err = optimize(context.Background(), file, filepath.Join(suite.dataDir, "AAA.csv"), logger.NewNopLogger(), false)
	suite.Error(err)
}
