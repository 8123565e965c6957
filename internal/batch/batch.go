package batch

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/combiner"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML document driving one backtest or optimize invocation.
type File struct {
	Backtest   engine.BacktestEngineV1Config `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest,description=Engine configuration shared by every run"`
	Strategies []strategy.Config             `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies,description=Strategies simulated on every series"`
	Combiner   *combiner.Config              `yaml:"combiner,omitempty" json:"combiner,omitempty" jsonschema:"title=Combiner,description=Adds one combined run per series"`
	Optimize   *optimizer.Config             `yaml:"optimize,omitempty" json:"optimize,omitempty" jsonschema:"title=Optimize,description=Grid search used by the optimize command"`
}

func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read batch file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a batch file. Absent backtest keys keep the engine defaults.
func Parse(data []byte) (File, error) {
	file := File{
		Backtest:   engine.EmptyConfig(),
		Strategies: nil,
		Combiner:   nil,
		Optimize:   nil,
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse batch file", err)
	}

	return file, nil
}

// EngineConfig renders the backtest section in the form Engine.Initialize expects.
func (f File) EngineConfig() (string, error) {
	data, err := yaml.Marshal(f.Backtest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backtest config: %w", err)
	}

	return string(data), nil
}

// BuildStrategies builds every strategy of the file. Names must be unique.
func (f File) BuildStrategies() ([]strategy.Strategy, error) {
	if len(f.Strategies) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategies, "batch file defines no strategies")
	}

	seen := make(map[string]bool, len(f.Strategies))
	out := make([]strategy.Strategy, 0, len(f.Strategies))

	for _, config := range f.Strategies {
		s, err := strategy.New(config)
		if err != nil {
			return nil, err
		}

		if seen[s.Name()] {
			return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "duplicate strategy name %q", s.Name())
		}

		seen[s.Name()] = true
		out = append(out, s)
	}

	return out, nil
}

// BuildCombiner returns the combiner rule, None when the file has no combiner section.
func (f File) BuildCombiner() (optional.Option[combiner.Rule], error) {
	if f.Combiner == nil {
		return optional.None[combiner.Rule](), nil
	}

	rule, err := f.Combiner.Build()
	if err != nil {
		return optional.None[combiner.Rule](), err
	}

	if weighted, ok := rule.(combiner.WeightedAverage); ok && weighted.Weights != nil && len(weighted.Weights) != len(f.Strategies) {
		return optional.None[combiner.Rule](), errors.Newf(errors.ErrCodeInvalidWeights,
			"combiner has %d weights for %d strategies", len(weighted.Weights), len(f.Strategies))
	}

	return optional.Some(rule), nil
}

// Sample returns a documented starting point for a new batch file.
func Sample() File {
	config := engine.EmptyConfig()
	config.InitialCapital = 100000
	config.CommissionRate = 0.0003
	config.MinCommission = 5
	config.StampTaxRate = 0.001
	config.LotSize = 100
	config.StopLossPct = optional.Some(0.08)

	return File{
		Backtest: config,
		Strategies: []strategy.Config{
			{Name: "ma_cross_5_20", Type: types.StrategyTypeMACross, Params: map[string]any{"fast": 5, "slow": 20, "kind": "sma"}},
			{Name: "rsi_30_70", Type: types.StrategyTypeOscillatorThreshold, Params: map[string]any{"period": 14, "oversold": 30, "overbought": 70}},
			{Name: "donchian_20", Type: types.StrategyTypeBreakout, Params: map[string]any{"period": 20}},
		},
		Combiner: &combiner.Config{
			Rule:      "majority_vote",
			Weights:   nil,
			Threshold: optional.None[float64](),
		},
		Optimize: &optimizer.Config{
			Strategy:  types.StrategyTypeMACross,
			Params:    map[string]any{"kind": "ema"},
			Grid:      map[string][]any{"fast": {3, 5, 10}, "slow": {20, 30, 60}},
			Metric:    optimizer.MetricSharpeRatio,
			Direction: optimizer.DirectionMaximize,
		},
	}
}

// GenerateSchemaJSON returns the JSON schema of a batch file.
func GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper:                     engine.SchemaMapper,
	}

	schema := reflector.Reflect(&File{})
	schema.Title = "backtest-batch"
	schema.Description = "Strategies, combiner and optimizer grid for one backtest invocation"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(data), nil
}
