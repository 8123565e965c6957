package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) TestWriteRunReports() {
	path := filepath.Join(suite.T().TempDir(), "stats.yaml")
	reports := []RunReport{
		{
			ID:        "run-1",
			Symbol:    "sh600000",
			Strategy:  "ma_cross_5_20",
			StartDate: day(0),
			EndDate:   day(29),
			Performance: PerformanceReport{
				InitialEquity: 100000,
				FinalEquity:   110000,
				TotalReturn:   0.1,
				SharpeRatio:   optional.Some(1.5),
				WinRate:       optional.None[float64](),
			},
		},
	}

	suite.Require().NoError(WriteRunReports(path, reports))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var decoded []map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Require().Len(decoded, 1)
	suite.Equal("sh600000", decoded[0]["symbol"])
	suite.Equal("2024-01-01", decoded[0]["start_date"])

	performance, ok := decoded[0]["performance"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal(1.5, performance["sharpe_ratio"])
	suite.Nil(performance["win_rate"])
	suite.Contains(performance, "win_rate")
	suite.NotContains(decoded[0], "error")
}

func (suite *ReportTestSuite) TestEquityCurve() {
	curve := EquityCurve{InitialCapital: 100}
	suite.Equal(100.0, curve.Final())

	curve.Points = append(curve.Points, EquityPoint{Date: day(0), Equity: 101}, EquityPoint{Date: day(1), Equity: 99})
	suite.Equal(99.0, curve.Final())
	suite.Equal([]float64{101, 99}, curve.Values())
}
