package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/combiner"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/performance"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const summaryFileName = "summary.yaml"

type seriesInput struct {
	series   types.PriceSeries
	dataPath string
}

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	rawConfig     string
	initialized   bool
	strategies    []strategy.Strategy
	rule          optional.Option[combiner.Rule]
	series        []seriesInput
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithLogger(logger.NewNopLogger())
}

func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:        EmptyConfig(),
		rawConfig:     "",
		initialized:   false,
		strategies:    nil,
		rule:          optional.None[combiner.Rule](),
		series:        nil,
		dataPaths:     nil,
		resultsFolder: "",
		log:           log,
		datasource:    nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := parsed.Validate(); err != nil {
		return err
	}

	b.config = parsed
	b.rawConfig = config
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", parsed.InitialCapital),
		zap.String("broker", string(parsed.Broker)),
		zap.Int("max_parallel", parsed.MaxParallel),
	)

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy is nil")
	}

	if err := s.Validate(); err != nil {
		return err
	}

	b.strategies = append(b.strategies, s)
	b.log.Debug("Strategy loaded",
		zap.String("strategy", s.Name()),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetCombiner implements engine.Engine.
func (b *BacktestEngineV1) SetCombiner(rule combiner.Rule) error {
	if rule == nil {
		return errors.New(errors.ErrCodeInvalidRule, "combiner rule is nil")
	}

	b.rule = optional.Some(rule)

	return nil
}

// AddSeries implements engine.Engine.
func (b *BacktestEngineV1) AddSeries(series types.PriceSeries) error {
	if err := series.Validate(); err != nil {
		return err
	}

	if series.Len() == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "price series %s is empty", series.Symbol)
	}

	for _, added := range b.series {
		if added.series.Symbol == series.Symbol {
			return errors.Newf(errors.ErrCodeDuplicateSymbol, "price series %s is already added", series.Symbol)
		}
	}

	b.series = append(b.series, seriesInput{series: series, dataPath: ""})

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", path)
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no files match %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to resolve %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// run is one simulated (series, strategy) pair.
type run struct {
	input    seriesInput
	name     string
	kind     types.StrategyType
	strategy strategy.Strategy
}

// batch carries the shared state of one Run call.
type batch struct {
	engine    *BacktestEngineV1
	callbacks engine.LifecycleCallbacks
	writer    *BacktestWriter
	total     int

	// mu serializes callbacks and guards done
	mu   sync.Mutex
	done int
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (reports []types.RunReport, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	inputs, err := b.loadSeries()
	if err != nil {
		return nil, err
	}

	// clean the results folder
	if err := os.RemoveAll(b.resultsFolder); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to clean %s", b.resultsFolder)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", b.resultsFolder)
	}

	runs := make([]run, 0, len(inputs)*len(b.strategies))
	for _, input := range inputs {
		for _, s := range b.strategies {
			runs = append(runs, run{input: input, name: s.Name(), kind: s.Type(), strategy: s})
		}
	}

	total := len(runs)
	if b.rule.IsSome() {
		total += len(inputs)
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(total, len(b.strategies), len(inputs)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	bt := &batch{
		engine:    b,
		callbacks: callbacks,
		writer:    NewBacktestWriter(b.log, b.config.WriteParquet),
		total:     total,
		mu:        sync.Mutex{},
		done:      0,
	}

	b.log.Info("Backtest started",
		zap.Int("runs", total),
		zap.Int("strategies", len(b.strategies)),
		zap.Int("series", len(inputs)),
	)

	reports = make([]types.RunReport, len(runs))
	// signals[i] holds the full length signals of runs[i], nil when the strategy failed
	signals := make([]*types.SignalSeries, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.MaxParallel)

	for i, r := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			report, sig, err := bt.runStrategy(r)
			reports[i] = report
			signals[i] = sig

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if b.rule.IsSome() {
		combined, err := bt.runCombined(ctx, inputs, signals)
		if err != nil {
			return nil, err
		}

		reports = append(reports, combined...)
	}

	if err := types.WriteRunReports(filepath.Join(b.resultsFolder, summaryFileName), reports); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write summary", err)
	}

	b.log.Info("Backtest finished",
		zap.Int("runs", len(reports)),
		zap.String("results", b.resultsFolder),
	)

	return reports, nil
}

// runCombined merges the signals of every strategy on each series and simulates them.
func (bt *batch) runCombined(ctx context.Context, inputs []seriesInput, signals []*types.SignalSeries) ([]types.RunReport, error) {
	b := bt.engine
	rule := b.rule.Unwrap()
	perSeries := len(b.strategies)

	names := make([]string, perSeries)
	for i, s := range b.strategies {
		names[i] = s.Name()
	}

	name := fmt.Sprintf("%s(%s)", rule.Name(), strings.Join(names, ","))
	reports := make([]types.RunReport, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.MaxParallel)

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			r := run{input: input, name: name, kind: types.StrategyTypeCombined, strategy: nil}
			group := signals[i*perSeries : (i+1)*perSeries]

			report, err := bt.simulate(r, func() (types.SignalSeries, error) {
				series := make([]types.SignalSeries, 0, len(group))
				for j, sig := range group {
					if sig == nil {
						return types.SignalSeries{}, errors.Newf(errors.ErrCodeStrategyRuntimeError,
							"input strategy %s failed on %s", names[j], input.series.Symbol)
					}

					series = append(series, *sig)
				}

				combined, err := combiner.Combine(series, rule)
				if err != nil {
					return types.SignalSeries{}, err
				}

				return combined.SignalSeries, nil
			})
			reports[i] = report

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

// runStrategy generates the signals of one strategy and simulates them.
// The returned error is only set when a callback failed.
func (bt *batch) runStrategy(r run) (types.RunReport, *types.SignalSeries, error) {
	var generated *types.SignalSeries

	report, err := bt.simulate(r, func() (types.SignalSeries, error) {
		sig, err := strategy.Run(r.strategy, r.input.series)
		if err != nil {
			return types.SignalSeries{}, err
		}

		generated = &sig

		return sig, nil
	})

	return report, generated, err
}

// simulate runs one pair end to end. A failure of the run itself is recorded in the
// report; only callback failures are returned.
func (bt *batch) simulate(r run, generate func() (types.SignalSeries, error)) (types.RunReport, error) {
	b := bt.engine
	series := r.input.series
	log := b.log.WithRun(series.Symbol, r.name)

	report := types.RunReport{
		ID:           b.runID(series.Symbol, r.name),
		Symbol:       series.Symbol,
		Strategy:     r.name,
		StrategyType: r.kind,
		DataPath:     r.input.dataPath,
	}

	if err := bt.onRunStart(report.ID, series.Symbol, r.name, series.Len()); err != nil {
		return report, err
	}

	result, err := bt.execute(series, &report, generate)
	if err != nil {
		report.Error = err.Error()
		report.Performance = types.PerformanceReport{}

		log.Error("Backtest run failed",
			zap.Int("code", int(errors.GetCode(err))),
			zap.Error(err),
		)
	}

	folder := getResultFolder(b, r.name, series.Symbol)
	if err := bt.writer.Write(folder, &report, result); err != nil {
		log.Error("Failed to write run results", zap.String("folder", folder), zap.Error(err))

		if report.Error == "" {
			report.Error = err.Error()
		}
	}

	if report.Error == "" {
		log.Debug("Backtest run finished",
			zap.Int("trades", report.Performance.TotalTrades),
			zap.Float64("total_return", report.Performance.TotalReturn),
		)
	}

	return report, bt.onRunEnd(report)
}

func (bt *batch) execute(series types.PriceSeries, report *types.RunReport, generate func() (types.SignalSeries, error)) (*types.BacktestResult, error) {
	b := bt.engine

	signals, err := generate()
	if err != nil {
		return nil, err
	}

	// indicators see the full history; only the window is simulated
	from, to := series.Window(b.windowStart(), b.windowEnd())
	if from >= to {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "%s has no bars between the configured start and end time", series.Symbol)
	}

	windowed := series.Slice(from, to)
	report.StartDate = windowed.Bars[0].Date
	report.EndDate = windowed.Bars[windowed.Len()-1].Date

	result, err := Simulate(windowed, signals.Slice(from, to), b.config, WithLogger(b.log.WithRun(series.Symbol, report.Strategy)))
	if err != nil {
		return nil, err
	}

	perf, err := performance.EvaluateWithOptions(result.Equity, result.Trades, performance.Options{
		RiskFreeRate: b.config.RiskFreeRate,
		Benchmark:    optional.Some(windowed),
	})
	if err != nil {
		return nil, err
	}

	report.Performance = perf

	return result, nil
}

func (bt *batch) onRunStart(runID, symbol, strategyName string, totalBars int) error {
	if bt.callbacks.OnRunStart == nil {
		return nil
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if err := (*bt.callbacks.OnRunStart)(runID, symbol, strategyName, totalBars); err != nil {
		return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
	}

	return nil
}

func (bt *batch) onRunEnd(report types.RunReport) error {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.done++

	if bt.callbacks.OnRunEnd != nil {
		(*bt.callbacks.OnRunEnd)(report)
	}

	if bt.callbacks.OnProcessData != nil {
		if err := (*bt.callbacks.OnProcessData)(bt.done, bt.total); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
		}
	}

	return nil
}

// runID is stable for the same symbol, strategy and engine config.
func (b *BacktestEngineV1) runID(symbol, strategyName string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(symbol+"/"+strategyName+"/"+b.rawConfig)).String()
}

func (b *BacktestEngineV1) windowStart() time.Time {
	if b.config.StartTime.IsSome() {
		return b.config.StartTime.Unwrap()
	}

	return time.Time{}
}

func (b *BacktestEngineV1) windowEnd() time.Time {
	if b.config.EndTime.IsSome() {
		return b.config.EndTime.Unwrap()
	}

	return time.Time{}
}

// loadSeries returns the added series followed by every series in the data paths.
func (b *BacktestEngineV1) loadSeries() ([]seriesInput, error) {
	var loaded []seriesInput

	if len(b.dataPaths) > 0 {
		if b.datasource == nil {
			b.datasource = datasource.NewMultiDataSource(b.log)
		}

		for _, path := range b.dataPaths {
			found, err := b.datasource.Load(path)
			if err != nil {
				b.log.Error("Failed to load price file",
					zap.String("path", path),
					zap.Error(err),
				)

				return nil, err
			}

			for _, series := range found {
				loaded = append(loaded, seriesInput{series: series, dataPath: path})
			}
		}
	}

	inputs := make([]seriesInput, 0, len(b.series)+len(loaded))
	inputs = append(inputs, b.series...)
	inputs = append(inputs, loaded...)

	// results folders and run IDs are keyed by symbol
	sources := make(map[string]string, len(inputs))
	for _, input := range inputs {
		source := input.dataPath
		if source == "" {
			source = "added series"
		}

		if previous, ok := sources[input.series.Symbol]; ok {
			return nil, errors.Newf(errors.ErrCodeDuplicateSymbol,
				"symbol %s appears in both %s and %s", input.series.Symbol, previous, source)
		}

		sources[input.series.Symbol] = source
	}

	return inputs, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		b.log.Error("Backtest engine is not initialized")

		return errors.New(errors.ErrCodeInvalidConfiguration, "backtest engine is not initialized")
	}

	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if len(b.series) == 0 && len(b.dataPaths) == 0 {
		b.log.Error("No price series loaded")

		return errors.New(errors.ErrCodeBacktestNoSeries, "no price series or data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}

var _ engine.Engine = (*BacktestEngineV1)(nil)
