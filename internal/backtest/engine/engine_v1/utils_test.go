package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// UtilsTestSuite is a test suite for utils package
type UtilsTestSuite struct {
	suite.Suite
}

// TestUtilsSuite runs the test suite
func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetResultFolder() {
	tests := []struct {
		name         string
		strategyName string
		symbol       string
		startTime    optional.Option[time.Time]
		endTime      optional.Option[time.Time]
		expectedPath string
	}{
		{
			name:         "Basic case without time range",
			strategyName: "TestStrategy",
			symbol:       "AAPL",
			startTime:    optional.None[time.Time](),
			endTime:      optional.None[time.Time](),
			expectedPath: "/results/TestStrategy/AAPL",
		},
		{
			name:         "Case with time range",
			strategyName: "TestStrategy",
			symbol:       "AAPL",
			startTime:    optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:      optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath: "/results/TestStrategy/20230101_20231231/AAPL",
		},
		{
			name:         "Case with only start time",
			strategyName: "TestStrategy",
			symbol:       "AAPL",
			startTime:    optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:      optional.None[time.Time](),
			expectedPath: "/results/TestStrategy/20230101_all/AAPL",
		},
		{
			name:         "Case with only end time",
			strategyName: "TestStrategy",
			symbol:       "AAPL",
			startTime:    optional.None[time.Time](),
			endTime:      optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath: "/results/TestStrategy/all_20231231/AAPL",
		},
		{
			name:         "Combined strategy name is sanitized",
			strategyName: "majority_vote(fast,slow)",
			symbol:       "sh600000",
			startTime:    optional.None[time.Time](),
			endTime:      optional.None[time.Time](),
			expectedPath: "/results/majority_vote_fast_slow_/sh600000",
		},
		{
			name:         "Empty symbol",
			strategyName: "TestStrategy",
			symbol:       "",
			startTime:    optional.None[time.Time](),
			endTime:      optional.None[time.Time](),
			expectedPath: "/results/TestStrategy/unknown",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			engine := &BacktestEngineV1{
				resultsFolder: "/results",
				config: BacktestEngineV1Config{
					StartTime: tc.startTime,
					EndTime:   tc.endTime,
				},
			}

			result := getResultFolder(engine, tc.strategyName, tc.symbol)
			suite.Equal(filepath.Clean(tc.expectedPath), result)
		})
	}
}

func (suite *UtilsTestSuite) TestSanitizeFolderName() {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "ma_cross-5.20", expected: "ma_cross-5.20"},
		{input: "a/b\\c", expected: "a_b_c"},
		{input: "with space", expected: "with_space"},
		{input: "", expected: "_"},
		{input: "..", expected: "_"},
	}

	for _, tc := range tests {
		suite.Run(tc.input, func() {
			suite.Equal(tc.expected, sanitizeFolderName(tc.input))
		})
	}
}
