package combiner

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultThreshold is used when a weighted_average config omits the threshold.
const DefaultThreshold = 0.3

// Config selects a rule from a batch file. An empty rule means majority_vote.
type Config struct {
	Rule      string                   `yaml:"rule" json:"rule" jsonschema:"title=Rule,enum=majority_vote,enum=weighted_average,enum=consensus,default=majority_vote" validate:"omitempty,oneof=majority_vote weighted_average consensus"`
	Weights   []float64                `yaml:"weights,omitempty" json:"weights,omitempty" jsonschema:"title=Weights,description=One non-negative weight per strategy; omitted means equal weights" validate:"omitempty,dive,gte=0"`
	Threshold optional.Option[float64] `yaml:"threshold,omitempty" json:"threshold,omitempty" jsonschema:"title=Threshold,description=Weighted score a signal must exceed,type=number,minimum=0,default=0.3"`
}

// UnmarshalYAML reads an optional scalar threshold.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Rule      string    `yaml:"rule"`
		Weights   []float64 `yaml:"weights"`
		Threshold *float64  `yaml:"threshold"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Rule = raw.Rule
	c.Weights = raw.Weights
	c.Threshold = optional.None[float64]()

	if raw.Threshold != nil {
		c.Threshold = optional.Some(*raw.Threshold)
	}

	return nil
}

// MarshalYAML writes the threshold as a scalar.
func (c Config) MarshalYAML() (any, error) {
	return struct {
		Rule      string    `yaml:"rule"`
		Weights   []float64 `yaml:"weights,omitempty"`
		Threshold *float64  `yaml:"threshold,omitempty"`
	}{
		Rule:      c.Rule,
		Weights:   c.Weights,
		Threshold: c.Threshold.UnwrapAsPtr(),
	}, nil
}

// Build validates the config and returns the rule it names.
func (c Config) Build() (Rule, error) {
	if err := validator.New().Struct(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, "invalid combiner config", err)
	}

	switch c.Rule {
	case "weighted_average":
		return WeightedAverage{Weights: c.Weights, Threshold: c.Threshold.TakeOr(DefaultThreshold)}, nil
	case "consensus":
		return Consensus{}, nil
	default:
		return MajorityVote{}, nil
	}
}
