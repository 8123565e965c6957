package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/combiner"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error.
// Callbacks are never invoked concurrently.

// OnBacktestStartCallback is called once before any run starts.
type OnBacktestStartCallback func(totalRuns int, totalStrategies int, totalSeries int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called before one (symbol, strategy) run is simulated.
// runID is deterministic for the same symbol, strategy and config.
type OnRunStartCallback func(runID string, symbol string, strategyName string, totalBars int) error

// OnRunEndCallback is called after a run finished, failed runs included.
type OnRunEndCallback func(report types.RunReport)

// OnProcessDataCallback is called each time a run completes.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the price files to load. Accepts glob patterns (e.g. "data/*.csv").
	SetDataPath(path string) error
	// AddSeries adds an already loaded price series.
	AddSeries(series types.PriceSeries) error
	// SetResultsFolder sets the output directory. Each run writes to <folder>/<strategy>/<symbol>.
	SetResultsFolder(folder string) error
	// LoadStrategy adds a strategy. Could be called multiple times to load multiple strategies.
	LoadStrategy(strategy strategy.Strategy) error
	// SetCombiner adds one combined run per series that merges every loaded strategy's signals.
	SetCombiner(rule combiner.Rule) error
	// SetDataSource sets the loader used for data paths.
	SetDataSource(dataSource datasource.DataSource) error
	// Run simulates every (series, strategy) pair. The context is checked between runs only.
	// A failed run is reported in its RunReport and does not stop the others.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.RunReport, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
