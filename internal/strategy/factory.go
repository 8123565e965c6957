package strategy

import (
	"encoding/json"
	"sort"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	pkgstrategy "github.com/rxtech-lab/argo-backtest/pkg/strategy"
)

// Config is a named, untyped strategy definition as it appears in a batch file.
type Config struct {
	Name   string             `yaml:"name" json:"name" jsonschema:"title=Name,description=Display name of the strategy instance"`
	Type   types.StrategyType `yaml:"type" json:"type" jsonschema:"title=Type,enum=ma_cross,enum=oscillator_threshold,enum=breakout,enum=band_reversion,enum=macd_cross" validate:"required"`
	Params map[string]any     `yaml:"params" json:"params" jsonschema:"title=Params,description=Variant specific parameters"`
}

type variant struct {
	// defaults returns a pointer to a config struct holding default values
	defaults func() any
	build    func(name string, config any) (Strategy, error)
}

var variants = map[types.StrategyType]variant{
	types.StrategyTypeMACross: {
		defaults: func() any {
			return &MACrossConfig{Fast: 5, Slow: 20, Kind: indicator.MAKindSimple, Source: types.PriceColumnClose}
		},
		build: func(name string, config any) (Strategy, error) {
			s, err := NewMACross(name, *config.(*MACrossConfig))

			return wrap(s, err)
		},
	},
	types.StrategyTypeOscillatorThreshold: {
		defaults: func() any {
			return &OscillatorThresholdConfig{Period: 14, Oversold: 30, Overbought: 70, Mode: ThresholdModeCross}
		},
		build: func(name string, config any) (Strategy, error) {
			s, err := NewOscillatorThreshold(name, *config.(*OscillatorThresholdConfig))

			return wrap(s, err)
		},
	},
	types.StrategyTypeBreakout: {
		defaults: func() any {
			return &BreakoutConfig{Period: 20, VolumePeriod: 20, MinVolumeRatio: 1.5}
		},
		build: func(name string, config any) (Strategy, error) {
			s, err := NewBreakout(name, *config.(*BreakoutConfig))

			return wrap(s, err)
		},
	},
	types.StrategyTypeBandReversion: {
		defaults: func() any {
			return &BandReversionConfig{Period: 20, Deviation: 2, VolumePeriod: 20, MaxVolumeRatio: 0.8, Proximity: 0.1, FilterRepeats: true}
		},
		build: func(name string, config any) (Strategy, error) {
			s, err := NewBandReversion(name, *config.(*BandReversionConfig))

			return wrap(s, err)
		},
	},
	types.StrategyTypeMACDCross: {
		defaults: func() any {
			return &MACDCrossConfig{Fast: 12, Slow: 26, Signal: 9}
		},
		build: func(name string, config any) (Strategy, error) {
			s, err := NewMACDCross(name, *config.(*MACDCrossConfig))

			return wrap(s, err)
		},
	},
}

// wrap converts a typed constructor result so a nil pointer never becomes a non-nil interface.
func wrap[S Strategy](s S, err error) (Strategy, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

// New builds a validated strategy from its definition. Params override the variant defaults.
func New(config Config) (Strategy, error) {
	v, ok := variants[config.Type]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", config.Type)
	}

	typed := v.defaults()
	if len(config.Params) > 0 {
		raw, err := json.Marshal(config.Params)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to encode strategy params", err)
		}

		if err := json.Unmarshal(raw, typed); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to decode %s params", config.Type)
		}
	}

	return v.build(config.Name, typed)
}

// Types lists the supported strategy variants in sorted order.
func Types() []types.StrategyType {
	out := make([]types.StrategyType, 0, len(variants))
	for t := range variants {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Schema returns the JSON schema of a variant's parameters.
func Schema(strategyType types.StrategyType) (string, error) {
	v, ok := variants[strategyType]
	if !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", strategyType)
	}

	return pkgstrategy.ToJSONSchema(v.defaults(), pkgstrategy.WithTitle(string(strategyType)))
}

// Defaults returns the default parameters of a variant as a map.
func Defaults(strategyType types.StrategyType) (map[string]any, error) {
	v, ok := variants[strategyType]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", strategyType)
	}

	raw, err := json.Marshal(v.defaults())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to encode defaults", err)
	}

	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode defaults", err)
	}

	return params, nil
}
