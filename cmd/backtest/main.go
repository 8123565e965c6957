package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/batch"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level := zapcore.WarnLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	return logger.NewLoggerWithLevel(level)
}

// runAction simulates every strategy of the batch file on every data file.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	file, err := batch.Read(cmd.String("config"))
	if err != nil {
		return err
	}

	reports, err := runBatch(ctx, file, cmd.String("data"), cmd.String("results"), log, !cmd.Bool("quiet"))
	if err != nil {
		return err
	}

	printReports(reports)

	return nil
}

func runBatch(ctx context.Context, file batch.File, dataPath, resultsFolder string, log *logger.Logger, showProgress bool) ([]types.RunReport, error) {
	config, err := file.EngineConfig()
	if err != nil {
		return nil, err
	}

	strategies, err := file.BuildStrategies()
	if err != nil {
		return nil, err
	}

	rule, err := file.BuildCombiner()
	if err != nil {
		return nil, err
	}

	backtester := engine.NewBacktestEngineV1WithLogger(log)

	if err := backtester.Initialize(config); err != nil {
		return nil, fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	for _, s := range strategies {
		if err := backtester.LoadStrategy(s); err != nil {
			return nil, fmt.Errorf("failed to load strategy %s: %w", s.Name(), err)
		}
	}

	if rule.IsSome() {
		if err := backtester.SetCombiner(rule.Unwrap()); err != nil {
			return nil, err
		}
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return nil, fmt.Errorf("failed to set data path: %w", err)
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return nil, fmt.Errorf("failed to set results folder: %w", err)
	}

	var bar *progressbar.ProgressBar

	onStart := engine_types.OnBacktestStartCallback(func(totalRuns, totalStrategies, totalSeries int) error {
		if showProgress {
			bar = progressbar.NewOptions(totalRuns,
				progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %d strategies on %d series", totalStrategies, totalSeries)),
				progressbar.OptionShowCount(),
			)
		}

		return nil
	})
	onProcess := engine_types.OnProcessDataCallback(func(_ int, _ int) error {
		if bar != nil {
			return bar.Add(1)
		}

		return nil
	})
	onRunEnd := engine_types.OnRunEndCallback(func(report types.RunReport) {
		if report.Error != "" {
			log.Warn("Run failed",
				zap.String("symbol", report.Symbol),
				zap.String("strategy", report.Strategy),
				zap.String("error", report.Error),
			)
		}
	})
	onEnd := engine_types.OnBacktestEndCallback(func(_ error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	reports, err := backtester.Run(ctx, engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnRunStart:      nil,
		OnRunEnd:        &onRunEnd,
		OnProcessData:   &onProcess,
	})
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	return reports, nil
}

// optimizeAction grid searches the optimize section of the batch file on one data file.
func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	file, err := batch.Read(cmd.String("config"))
	if err != nil {
		return err
	}

	report, err := optimize(ctx, file, cmd.String("data"), log, !cmd.Bool("quiet"))
	if err != nil {
		return err
	}

	output, err := yaml.Marshal(optimizeSummary(report, int(cmd.Int("top"))))
	if err != nil {
		return fmt.Errorf("failed to marshal optimizer report: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}

		return os.WriteFile(path, output, 0644)
	}

	fmt.Print(string(output))

	return nil
}

func optimize(ctx context.Context, file batch.File, dataPath string, log *logger.Logger, showProgress bool) (optimizer.Report, error) {
	if file.Optimize == nil {
		return optimizer.Report{}, fmt.Errorf("batch file has no optimize section")
	}

	if err := file.Backtest.Validate(); err != nil {
		return optimizer.Report{}, err
	}

	source, err := datasource.ForPath(dataPath, log)
	if err != nil {
		return optimizer.Report{}, err
	}

	defer func() { _ = source.Close() }()

	series, err := source.Load(dataPath)
	if err != nil {
		return optimizer.Report{}, err
	}

	if len(series) != 1 {
		return optimizer.Report{}, fmt.Errorf("optimize needs exactly one series, %s has %d", dataPath, len(series))
	}

	opt := optimizer.NewOptimizer(file.Backtest, log)

	if showProgress {
		combos, err := optimizer.Combinations(file.Optimize.Grid)
		if err != nil {
			return optimizer.Report{}, err
		}

		bar := progressbar.NewOptions(len(combos),
			progressbar.OptionSetDescription(fmt.Sprintf("Optimizing %s on %s", file.Optimize.Strategy, series[0].Symbol)),
			progressbar.OptionShowCount(),
		)

		defer func() { _ = bar.Finish() }()

		opt.SetProgressCallback(func(_ int, _ int) {
			_ = bar.Add(1)
		})
	}

	return opt.GridSearch(ctx, series[0], *file.Optimize)
}

type optimizeResult struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
	Score  *float64       `yaml:"score"`
	Error  string         `yaml:"error,omitempty"`
}

type optimizeOutput struct {
	Metric    optimizer.Metric    `yaml:"metric"`
	Direction optimizer.Direction `yaml:"direction"`
	Best      *optimizeResult     `yaml:"best"`
	Results   []optimizeResult    `yaml:"results"`
}

func optimizeSummary(report optimizer.Report, top int) optimizeOutput {
	toOutput := func(r optimizer.Result) optimizeResult {
		return optimizeResult{Name: r.Name, Params: r.Params, Score: r.Score.UnwrapAsPtr(), Error: r.Error}
	}

	results := report.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	out := optimizeOutput{
		Metric:    report.Metric,
		Direction: report.Direction,
		Best:      nil,
		Results:   make([]optimizeResult, len(results)),
	}

	for i, r := range results {
		out.Results[i] = toOutput(r)
	}

	if report.Best.IsSome() {
		best := toOutput(report.Best.Unwrap())
		out.Best = &best
	}

	return out
}

func printReports(reports []types.RunReport) {
	fmt.Printf("%-12s %-32s %12s %12s %8s %8s\n", "SYMBOL", "STRATEGY", "RETURN", "MAX DD", "TRADES", "SHARPE")

	for _, r := range reports {
		if r.Error != "" {
			fmt.Printf("%-12s %-32s failed: %s\n", r.Symbol, r.Strategy, r.Error)

			continue
		}

		fmt.Printf("%-12s %-32s %11.2f%% %11.2f%% %8d %8s\n",
			r.Symbol, r.Strategy,
			r.Performance.TotalReturn*100, r.Performance.MaxDrawdown*100,
			r.Performance.TotalTrades, formatOption(r.Performance.SharpeRatio),
		)
	}
}

func formatOption(value optional.Option[float64]) string {
	if value.IsNone() {
		return "-"
	}

	return fmt.Sprintf("%.2f", value.Unwrap())
}

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Path to the batch `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Price data file or glob pattern (csv, parquet)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Hide the progress bar",
		},
	}

	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest trading strategies on historical prices",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every strategy of the batch file on every series",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Output folder, cleaned before the run",
						Value:   "results",
					},
				}, commonFlags...),
				Action: runAction,
			},
			{
				Name:  "optimize",
				Usage: "Grid search the parameters of one strategy",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of results to print, 0 for all",
						Value: 10,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the results to this YAML file instead of stdout",
					},
				}, commonFlags...),
				Action: optimizeAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
