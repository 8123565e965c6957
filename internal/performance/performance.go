// Package performance reduces an equity curve and its trades to a PerformanceReport.
package performance

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// TradingDaysPerYear is the annualization convention.
const TradingDaysPerYear = 252

// Options adds inputs that are not part of the equity curve.
type Options struct {
	// RiskFreeRate is annual; Sharpe and Sortino use RiskFreeRate / 252 per day.
	RiskFreeRate float64
	// Benchmark is the price series held buy-and-hold for comparison.
	Benchmark optional.Option[types.PriceSeries]
}

// Evaluate computes the report with a zero risk-free rate and no benchmark.
func Evaluate(curve types.EquityCurve, trades []types.Trade) (types.PerformanceReport, error) {
	return EvaluateWithOptions(curve, trades, Options{RiskFreeRate: 0, Benchmark: optional.None[types.PriceSeries]()})
}

// EvaluateWithOptions computes every metric or returns an error; no partial report is returned.
// Metrics that are not computable (no trades, no losses, zero variance) are None.
func EvaluateWithOptions(curve types.EquityCurve, trades []types.Trade, opts Options) (types.PerformanceReport, error) {
	if curve.Len() == 0 {
		return types.PerformanceReport{}, errors.New(errors.ErrCodeEmptyEquityCurve, "equity curve is empty")
	}

	if math.IsNaN(curve.InitialCapital) || math.IsInf(curve.InitialCapital, 0) || curve.InitialCapital <= 0 {
		return types.PerformanceReport{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"initial capital must be positive, got %v", curve.InitialCapital)
	}

	returns, err := dailyReturns(curve)
	if err != nil {
		return types.PerformanceReport{}, err
	}

	initial := curve.InitialCapital
	final := curve.Final()
	totalReturn := final/initial - 1

	report := types.PerformanceReport{
		InitialEquity:    initial,
		FinalEquity:      final,
		TradingDays:      curve.Len(),
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualized(totalReturn, curve.Len()),
		MaxDrawdown:      maxDrawdown(curve),
		Volatility:       optional.None[float64](),
		SharpeRatio:      optional.None[float64](),
		SortinoRatio:     optional.None[float64](),
		BenchmarkReturn:  optional.None[float64](),
		ExcessReturn:     optional.None[float64](),
	}

	riskFreeDaily := opts.RiskFreeRate / TradingDaysPerYear

	if std, ok := sampleStd(returns); ok {
		report.Volatility = optional.Some(std * math.Sqrt(TradingDaysPerYear))

		if std > 0 {
			mean, _ := stats.Mean(returns)
			report.SharpeRatio = optional.Some((mean - riskFreeDaily) / std * math.Sqrt(TradingDaysPerYear))
		}
	}

	if downside, ok := sampleStd(negatives(returns)); ok && downside > 0 {
		mean, _ := stats.Mean(returns)
		report.SortinoRatio = optional.Some((mean - riskFreeDaily) / downside * math.Sqrt(TradingDaysPerYear))
	}

	summarizeTrades(&report, trades)

	if opts.Benchmark.IsSome() {
		benchmark := benchmarkReturn(opts.Benchmark.Unwrap())
		report.BenchmarkReturn = benchmark

		if benchmark.IsSome() {
			report.ExcessReturn = optional.Some(totalReturn - benchmark.Unwrap())
		}
	}

	return report, nil
}

// dailyReturns measures the first day against the initial capital.
func dailyReturns(curve types.EquityCurve) (stats.Float64Data, error) {
	returns := make(stats.Float64Data, 0, curve.Len())
	previous := curve.InitialCapital

	for _, point := range curve.Points {
		if math.IsNaN(point.Equity) || math.IsInf(point.Equity, 0) {
			return nil, errors.NewComputationError("equity", point.Date, "equity is not finite")
		}

		if previous == 0 {
			return nil, errors.NewComputationError("daily_return", point.Date, "previous equity is zero")
		}

		returns = append(returns, point.Equity/previous-1)
		previous = point.Equity
	}

	return returns, nil
}

func annualized(totalReturn float64, days int) optional.Option[float64] {
	growth := 1 + totalReturn
	if days <= 0 || growth < 0 {
		return optional.None[float64]()
	}

	return optional.Some(math.Pow(growth, float64(TradingDaysPerYear)/float64(days)) - 1)
}

// maxDrawdown is the lowest equity/peak - 1, with the initial capital as the first peak.
func maxDrawdown(curve types.EquityCurve) float64 {
	peak := curve.InitialCapital
	worst := 0.0

	for _, point := range curve.Points {
		peak = math.Max(peak, point.Equity)
		if peak <= 0 {
			continue
		}

		worst = math.Min(worst, point.Equity/peak-1)
	}

	return math.Max(worst, -1)
}

func sampleStd(values stats.Float64Data) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}

	std, err := stats.StandardDeviationSample(values)
	if err != nil || math.IsNaN(std) {
		return 0, false
	}

	return std, true
}

func negatives(values stats.Float64Data) stats.Float64Data {
	var out stats.Float64Data

	for _, v := range values {
		if v < 0 {
			out = append(out, v)
		}
	}

	return out
}

func summarizeTrades(report *types.PerformanceReport, trades []types.Trade) {
	var (
		winSum, lossSum float64
		holding         int
		winStreak       int
		lossStreak      int
	)

	report.TotalTrades = len(trades)

	for _, trade := range trades {
		report.TotalCost += trade.Cost
		holding += trade.HoldingBars

		switch {
		case trade.RealizedPnL > 0:
			report.WinningTrades++
			winSum += trade.RealizedPnL
			winStreak++
			lossStreak = 0
		case trade.RealizedPnL < 0:
			report.LosingTrades++
			lossSum += trade.RealizedPnL
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}

		report.MaxConsecutiveWins = max(report.MaxConsecutiveWins, winStreak)
		report.MaxConsecutiveLosses = max(report.MaxConsecutiveLosses, lossStreak)
	}

	report.WinRate = optional.None[float64]()
	report.AverageHoldingBars = optional.None[float64]()

	if report.TotalTrades > 0 {
		report.WinRate = optional.Some(float64(report.WinningTrades) / float64(report.TotalTrades))
		report.AverageHoldingBars = optional.Some(float64(holding) / float64(report.TotalTrades))
	}

	report.ProfitFactor = optional.None[float64]()
	if lossSum < 0 {
		report.ProfitFactor = optional.Some(winSum / math.Abs(lossSum))
	}

	report.AverageWin = optional.None[float64]()
	if report.WinningTrades > 0 {
		report.AverageWin = optional.Some(winSum / float64(report.WinningTrades))
	}

	report.AverageLoss = optional.None[float64]()
	if report.LosingTrades > 0 {
		report.AverageLoss = optional.Some(lossSum / float64(report.LosingTrades))
	}
}

func benchmarkReturn(series types.PriceSeries) optional.Option[float64] {
	if series.Len() == 0 {
		return optional.None[float64]()
	}

	first := series.Bars[0].Close
	last := series.Bars[series.Len()-1].Close

	if first <= 0 {
		return optional.None[float64]()
	}

	return optional.Some(last/first - 1)
}
