package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/performance"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxCombinations bounds the size of one grid.
const MaxCombinations = 10000

type Metric string

const (
	MetricTotalReturn      Metric = "total_return"
	MetricAnnualizedReturn Metric = "annualized_return"
	MetricMaxDrawdown      Metric = "max_drawdown"
	MetricSharpeRatio      Metric = "sharpe_ratio"
	MetricSortinoRatio     Metric = "sortino_ratio"
	MetricWinRate          Metric = "win_rate"
	MetricProfitFactor     Metric = "profit_factor"
	MetricExcessReturn     Metric = "excess_return"
)

type Direction string

const (
	DirectionMaximize Direction = "maximize"
	DirectionMinimize Direction = "minimize"
)

// Config describes one grid search over the parameters of a single strategy type.
type Config struct {
	Strategy types.StrategyType `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Strategy type whose parameters are searched"`
	// Params are fixed for every combination; Grid values override them.
	Params    map[string]any   `yaml:"params" json:"params" jsonschema:"title=Params,description=Parameters shared by every combination"`
	Grid      map[string][]any `yaml:"grid" json:"grid" validate:"required,min=1" jsonschema:"title=Grid,description=Candidate values per parameter"`
	Metric    Metric           `yaml:"metric" json:"metric" validate:"required,oneof=total_return annualized_return max_drawdown sharpe_ratio sortino_ratio win_rate profit_factor excess_return" jsonschema:"title=Metric,default=sharpe_ratio"`
	Direction Direction        `yaml:"direction" json:"direction" validate:"omitempty,oneof=maximize minimize" jsonschema:"title=Direction,enum=maximize,enum=minimize,default=maximize"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid optimizer config", err)
	}

	for key, values := range c.Grid {
		if len(values) == 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "grid parameter %q has no values", key)
		}
	}

	return nil
}

// Result is the outcome of one parameter combination.
type Result struct {
	Name   string
	Params map[string]any
	// Score is None when the run failed or the metric is undefined for it.
	Score       optional.Option[float64]
	Performance types.PerformanceReport
	Error       string
}

// Report holds every result, best first. Failed and unscored combinations come last.
type Report struct {
	Metric    Metric
	Direction Direction
	Results   []Result
	Best      optional.Option[Result]
}

// ProgressCallback is called after each finished combination. Calls are serialized.
type ProgressCallback func(done int, total int)

type Optimizer struct {
	backtest    engine.BacktestEngineV1Config
	log         *logger.Logger
	maxParallel int
	onProgress  optional.Option[ProgressCallback]
}

func NewOptimizer(backtest engine.BacktestEngineV1Config, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Optimizer{
		backtest:    backtest,
		log:         log,
		maxParallel: max(backtest.MaxParallel, 1),
		onProgress:  optional.None[ProgressCallback](),
	}
}

func (o *Optimizer) SetProgressCallback(callback ProgressCallback) {
	o.onProgress = optional.Some(callback)
}

// GridSearch simulates every combination of config.Grid on series.
// A failing combination is recorded in its Result; only invalid input and context
// cancellation are returned as errors.
func (o *Optimizer) GridSearch(ctx context.Context, series types.PriceSeries, config Config) (Report, error) {
	if err := config.Validate(); err != nil {
		return Report{}, err
	}

	if err := o.backtest.Validate(); err != nil {
		return Report{}, err
	}

	if err := series.Validate(); err != nil {
		return Report{}, err
	}

	if series.Len() == 0 {
		return Report{}, errors.Newf(errors.ErrCodeEmptyInput, "series %s is empty", series.Symbol)
	}

	if config.Direction == "" {
		config.Direction = DirectionMaximize
	}

	combos, err := Combinations(config.Grid)
	if err != nil {
		return Report{}, err
	}

	o.log.Info("Grid search started",
		zap.String("symbol", series.Symbol),
		zap.String("strategy", string(config.Strategy)),
		zap.Int("combinations", len(combos)),
	)

	results := make([]Result, len(combos))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)

	for i, combo := range combos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = o.evaluate(series, config, combo)

			if o.onProgress.IsSome() {
				mu.Lock()
				done++
				o.onProgress.Unwrap()(done, len(combos))
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rank(results, config.Direction)

	report := Report{
		Metric:    config.Metric,
		Direction: config.Direction,
		Results:   results,
		Best:      optional.None[Result](),
	}
	if len(results) > 0 && results[0].Score.IsSome() {
		report.Best = optional.Some(results[0])
	}

	return report, nil
}

func (o *Optimizer) evaluate(series types.PriceSeries, config Config, combo map[string]any) Result {
	params := make(map[string]any, len(config.Params)+len(combo))
	for k, v := range config.Params {
		params[k] = v
	}

	for k, v := range combo {
		params[k] = v
	}

	name := comboName(config.Strategy, combo)
	result := Result{
		Name:   name,
		Params: params,
		Score:  optional.None[float64](),
	}

	perf, err := o.run(series, name, config.Strategy, params)
	if err != nil {
		result.Error = err.Error()

		o.log.Debug("Combination failed", zap.String("name", name), zap.Error(err))

		return result
	}

	result.Performance = perf
	result.Score = Score(perf, config.Metric)

	return result
}

func (o *Optimizer) run(series types.PriceSeries, name string, strategyType types.StrategyType, params map[string]any) (types.PerformanceReport, error) {
	s, err := strategy.New(strategy.Config{Name: name, Type: strategyType, Params: params})
	if err != nil {
		return types.PerformanceReport{}, err
	}

	signals, err := strategy.Run(s, series)
	if err != nil {
		return types.PerformanceReport{}, err
	}

	result, err := engine.Simulate(series, signals, o.backtest, engine.WithLogger(o.log.WithRun(series.Symbol, name)))
	if err != nil {
		return types.PerformanceReport{}, err
	}

	return performance.EvaluateWithOptions(result.Equity, result.Trades, performance.Options{
		RiskFreeRate: o.backtest.RiskFreeRate,
		Benchmark:    optional.Some(series),
	})
}

// Score extracts metric from a report.
func Score(report types.PerformanceReport, metric Metric) optional.Option[float64] {
	switch metric {
	case MetricTotalReturn:
		return optional.Some(report.TotalReturn)
	case MetricAnnualizedReturn:
		return report.AnnualizedReturn
	case MetricMaxDrawdown:
		return optional.Some(report.MaxDrawdown)
	case MetricSharpeRatio:
		return report.SharpeRatio
	case MetricSortinoRatio:
		return report.SortinoRatio
	case MetricWinRate:
		return report.WinRate
	case MetricProfitFactor:
		return report.ProfitFactor
	case MetricExcessReturn:
		return report.ExcessReturn
	default:
		return optional.None[float64]()
	}
}

// Combinations expands a grid into every parameter assignment, in key order.
func Combinations(grid map[string][]any) ([]map[string]any, error) {
	keys := make([]string, 0, len(grid))
	total := 1

	for key, values := range grid {
		if len(values) == 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "grid parameter %q has no values", key)
		}

		keys = append(keys, key)

		total *= len(values)
		if total > MaxCombinations {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "grid exceeds %d combinations", MaxCombinations)
		}
	}

	sort.Strings(keys)

	combos := []map[string]any{{}}
	for _, key := range keys {
		next := make([]map[string]any, 0, len(combos)*len(grid[key]))

		for _, combo := range combos {
			for _, value := range grid[key] {
				c := make(map[string]any, len(combo)+1)
				for k, v := range combo {
					c[k] = v
				}

				c[key] = value
				next = append(next, c)
			}
		}

		combos = next
	}

	return combos, nil
}

// rank orders scored results by direction, ties kept in grid order.
func rank(results []Result, direction Direction) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score
		if a.IsNone() || b.IsNone() {
			return a.IsSome() && b.IsNone()
		}

		if direction == DirectionMinimize {
			return a.Unwrap() < b.Unwrap()
		}

		return a.Unwrap() > b.Unwrap()
	})
}

func comboName(strategyType types.StrategyType, combo map[string]any) string {
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, combo[k])
	}

	return fmt.Sprintf("%s(%s)", strategyType, strings.Join(parts, ","))
}
