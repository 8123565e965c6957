package indicator

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/strategy"
)

// Factory builds a validated indicator from a raw parameter map.
type Factory func(params map[string]any) (Indicator, error)

// Registration pairs a factory with the config struct used to describe its parameters.
type Registration struct {
	Factory Factory
	// Config is a zero value of the config struct; its JSON schema is the parameter schema.
	Config any
}

// IndicatorRegistry maps indicator types to factories and parameter schemas.
type IndicatorRegistry interface {
	Register(name types.IndicatorType, registration Registration) error
	New(name types.IndicatorType, params map[string]any) (Indicator, error)
	Schema(name types.IndicatorType) (string, error)
	List() []types.IndicatorType
	Remove(name types.IndicatorType) error
}

// IndicatorRegistryV1 is a concurrency-safe IndicatorRegistry.
type IndicatorRegistryV1 struct {
	registrations map[types.IndicatorType]Registration
	mu            sync.RWMutex
}

// NewIndicatorRegistry creates an empty registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		registrations: make(map[types.IndicatorType]Registration),
		mu:            sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in indicator.
func NewDefaultRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()

	builtins := map[types.IndicatorType]Registration{
		types.IndicatorTypeMA: {
			Config: MAConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, MAConfig{Kind: MAKindSimple, Source: types.PriceColumnClose}, NewMA)
			},
		},
		types.IndicatorTypeRSI: {
			Config: RSIConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, RSIConfig{Period: 14}, NewRSI)
			},
		},
		types.IndicatorTypeMACD: {
			Config: MACDConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, MACDConfig{Fast: 12, Slow: 26, Signal: 9}, NewMACD)
			},
		},
		types.IndicatorTypeBollingerBands: {
			Config: BollingerBandsConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, BollingerBandsConfig{Period: 20, DevUp: 2, DevDown: 2}, NewBollingerBands)
			},
		},
		types.IndicatorTypeATR: {
			Config: ATRConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, ATRConfig{Period: 14}, NewATR)
			},
		},
		types.IndicatorTypeDonchian: {
			Config: DonchianConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, DonchianConfig{Period: 20}, NewDonchian)
			},
		},
		types.IndicatorTypeVolumeRatio: {
			Config: VolumeRatioConfig{},
			Factory: func(params map[string]any) (Indicator, error) {
				return decodeAndBuild(params, VolumeRatioConfig{Period: 20}, NewVolumeRatio)
			},
		},
		types.IndicatorTypeOBV: {
			Config:  struct{}{},
			Factory: func(map[string]any) (Indicator, error) { return NewOBV(), nil },
		},
		types.IndicatorTypeAD: {
			Config:  struct{}{},
			Factory: func(map[string]any) (Indicator, error) { return NewAD(), nil },
		},
		types.IndicatorTypePVT: {
			Config:  struct{}{},
			Factory: func(map[string]any) (Indicator, error) { return NewPVT(), nil },
		},
	}

	for name, registration := range builtins {
		// names are unique within builtins
		_ = registry.Register(name, registration)
	}

	return registry
}

// decodeAndBuild overlays params onto the defaults through JSON and calls the constructor.
func decodeAndBuild[C any, I Indicator](params map[string]any, defaults C, build func(C) (I, error)) (Indicator, error) {
	config := defaults

	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to encode indicator params", err)
		}

		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode indicator params", err)
		}
	}

	indicator, err := build(config)
	if err != nil {
		return nil, err
	}

	return indicator, nil
}

// Register adds an indicator type to the registry.
func (r *IndicatorRegistryV1) Register(name types.IndicatorType, registration Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s already registered", name)
	}

	r.registrations[name] = registration

	return nil
}

// New builds an indicator of the given type.
func (r *IndicatorRegistryV1) New(name types.IndicatorType, params map[string]any) (Indicator, error) {
	registration, err := r.get(name)
	if err != nil {
		return nil, err
	}

	return registration.Factory(params)
}

// Schema returns the JSON schema of the indicator's parameters.
func (r *IndicatorRegistryV1) Schema(name types.IndicatorType) (string, error) {
	registration, err := r.get(name)
	if err != nil {
		return "", err
	}

	return strategy.ToJSONSchema(registration.Config, strategy.WithTitle(string(name)))
}

// List returns all registered indicator types in sorted order.
func (r *IndicatorRegistryV1) List() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.registrations))
	for name := range r.registrations {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Remove removes an indicator type from the registry.
func (r *IndicatorRegistryV1) Remove(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	delete(r.registrations, name)

	return nil
}

func (r *IndicatorRegistryV1) get(name types.IndicatorType) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, exists := r.registrations[name]
	if !exists {
		return Registration{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	return registration, nil
}
