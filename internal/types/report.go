package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// PerformanceReport is the fixed metric set computed from one equity curve and trade list.
// Metrics that cannot be computed are None.
type PerformanceReport struct {
	InitialEquity    float64
	FinalEquity      float64
	TradingDays      int
	TotalReturn      float64
	AnnualizedReturn optional.Option[float64]
	MaxDrawdown      float64
	Volatility       optional.Option[float64]
	SharpeRatio      optional.Option[float64]
	SortinoRatio     optional.Option[float64]
	WinRate          optional.Option[float64]
	ProfitFactor     optional.Option[float64]

	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	AverageWin           optional.Option[float64]
	AverageLoss          optional.Option[float64]
	AverageHoldingBars   optional.Option[float64]
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	TotalCost            float64
	BenchmarkReturn      optional.Option[float64]
	ExcessReturn         optional.Option[float64]
}

// RunReport summarizes one (symbol, strategy) backtest run.
type RunReport struct {
	ID             string
	Symbol         string
	Strategy       string
	StrategyType   StrategyType
	DataPath       string
	StartDate      time.Time
	EndDate        time.Time
	Performance    PerformanceReport
	TradesFilePath string
	EquityFilePath string
	MarksFilePath  string
	// Error is set when the run aborted. Performance is zero in that case.
	Error string
}

type performanceYAML struct {
	InitialEquity        float64  `yaml:"initial_equity"`
	FinalEquity          float64  `yaml:"final_equity"`
	TradingDays          int      `yaml:"trading_days"`
	TotalReturn          float64  `yaml:"total_return"`
	AnnualizedReturn     *float64 `yaml:"annualized_return"`
	MaxDrawdown          float64  `yaml:"max_drawdown"`
	Volatility           *float64 `yaml:"volatility"`
	SharpeRatio          *float64 `yaml:"sharpe_ratio"`
	SortinoRatio         *float64 `yaml:"sortino_ratio"`
	WinRate              *float64 `yaml:"win_rate"`
	ProfitFactor         *float64 `yaml:"profit_factor"`
	TotalTrades          int      `yaml:"total_trades"`
	WinningTrades        int      `yaml:"winning_trades"`
	LosingTrades         int      `yaml:"losing_trades"`
	AverageWin           *float64 `yaml:"average_win"`
	AverageLoss          *float64 `yaml:"average_loss"`
	AverageHoldingBars   *float64 `yaml:"average_holding_bars"`
	MaxConsecutiveWins   int      `yaml:"max_consecutive_wins"`
	MaxConsecutiveLosses int      `yaml:"max_consecutive_losses"`
	TotalCost            float64  `yaml:"total_cost"`
	BenchmarkReturn      *float64 `yaml:"benchmark_return"`
	ExcessReturn         *float64 `yaml:"excess_return"`
}

// MarshalYAML writes undefined metrics as null.
func (r PerformanceReport) MarshalYAML() (any, error) {
	return performanceYAML{
		InitialEquity:        r.InitialEquity,
		FinalEquity:          r.FinalEquity,
		TradingDays:          r.TradingDays,
		TotalReturn:          r.TotalReturn,
		AnnualizedReturn:     r.AnnualizedReturn.UnwrapAsPtr(),
		MaxDrawdown:          r.MaxDrawdown,
		Volatility:           r.Volatility.UnwrapAsPtr(),
		SharpeRatio:          r.SharpeRatio.UnwrapAsPtr(),
		SortinoRatio:         r.SortinoRatio.UnwrapAsPtr(),
		WinRate:              r.WinRate.UnwrapAsPtr(),
		ProfitFactor:         r.ProfitFactor.UnwrapAsPtr(),
		TotalTrades:          r.TotalTrades,
		WinningTrades:        r.WinningTrades,
		LosingTrades:         r.LosingTrades,
		AverageWin:           r.AverageWin.UnwrapAsPtr(),
		AverageLoss:          r.AverageLoss.UnwrapAsPtr(),
		AverageHoldingBars:   r.AverageHoldingBars.UnwrapAsPtr(),
		MaxConsecutiveWins:   r.MaxConsecutiveWins,
		MaxConsecutiveLosses: r.MaxConsecutiveLosses,
		TotalCost:            r.TotalCost,
		BenchmarkReturn:      r.BenchmarkReturn.UnwrapAsPtr(),
		ExcessReturn:         r.ExcessReturn.UnwrapAsPtr(),
	}, nil
}

type runReportYAML struct {
	ID             string            `yaml:"id"`
	Symbol         string            `yaml:"symbol"`
	Strategy       string            `yaml:"strategy"`
	StrategyType   StrategyType      `yaml:"strategy_type"`
	DataPath       string            `yaml:"data_path,omitempty"`
	StartDate      string            `yaml:"start_date,omitempty"`
	EndDate        string            `yaml:"end_date,omitempty"`
	Performance    PerformanceReport `yaml:"performance"`
	TradesFilePath string            `yaml:"trades_file_path,omitempty"`
	EquityFilePath string            `yaml:"equity_file_path,omitempty"`
	MarksFilePath  string            `yaml:"marks_file_path,omitempty"`
	Error          string            `yaml:"error,omitempty"`
}

// MarshalYAML formats dates without a time component.
func (r RunReport) MarshalYAML() (any, error) {
	out := runReportYAML{
		ID:             r.ID,
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		StrategyType:   r.StrategyType,
		DataPath:       r.DataPath,
		Performance:    r.Performance,
		TradesFilePath: r.TradesFilePath,
		EquityFilePath: r.EquityFilePath,
		MarksFilePath:  r.MarksFilePath,
		Error:          r.Error,
	}
	if !r.StartDate.IsZero() {
		out.StartDate = r.StartDate.Format(time.DateOnly)
	}

	if !r.EndDate.IsZero() {
		out.EndDate = r.EndDate.Format(time.DateOnly)
	}

	return out, nil
}

// WriteRunReports writes the reports to path as YAML.
func WriteRunReports(path string, reports []RunReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal run reports to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run reports to file: %w", err)
	}

	return nil
}

// BacktestResult is the full output of one simulated run.
type BacktestResult struct {
	Symbol string
	Trades []Trade
	Equity EquityCurve
	Marks  []Mark
}
