package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ExecutionPrice selects which price of the bar after a signal fills the order.
type ExecutionPrice string

const (
	ExecutionPriceOpen  ExecutionPrice = "open"
	ExecutionPriceClose ExecutionPrice = "close"
)

type BacktestEngineV1Config struct {
	Version          string                     `yaml:"version" json:"version" jsonschema:"title=Version,description=Engine version this config was written for"`
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash for every run,minimum=0"`
	Broker           commission_fee.Broker      `yaml:"broker" json:"broker" validate:"oneof=rate interactive_broker zero_commission" jsonschema:"title=Broker,description=Commission model applied to every execution"`
	CommissionRate   float64                    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Fraction of notional charged per execution by the rate broker,minimum=0"`
	MinCommission    float64                    `yaml:"min_commission" json:"min_commission" validate:"gte=0" jsonschema:"title=Minimum Commission,description=Per execution commission floor of the rate broker,minimum=0"`
	FixedFee         float64                    `yaml:"fixed_fee" json:"fixed_fee" validate:"gte=0" jsonschema:"title=Fixed Fee,description=Flat levy added to every execution,minimum=0"`
	StampTaxRate     float64                    `yaml:"stamp_tax_rate" json:"stamp_tax_rate" validate:"gte=0,lt=1" jsonschema:"title=Stamp Tax Rate,description=Fraction of notional charged on sells only,minimum=0"`
	SlippageRate     float64                    `yaml:"slippage_rate" json:"slippage_rate" validate:"gte=0,lt=1" jsonschema:"title=Slippage Rate,description=Adverse price adjustment applied to every fill,minimum=0"`
	PositionFraction float64                    `yaml:"position_fraction" json:"position_fraction" validate:"gt=0,lte=1" jsonschema:"title=Position Fraction,description=Fraction of current equity allocated to a new position,minimum=0,maximum=1"`
	MaxPositionPct   float64                    `yaml:"max_position_pct" json:"max_position_pct" validate:"gt=0,lte=1" jsonschema:"title=Max Position Percent,description=Cap on position notional as a fraction of equity,minimum=0,maximum=1"`
	LotSize          float64                    `yaml:"lot_size" json:"lot_size" validate:"gt=0" jsonschema:"title=Lot Size,description=Quantities are rounded down to a multiple of this value,minimum=0"`
	StopLossPct      optional.Option[float64]   `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss Percent,description=Close when price falls this fraction below entry"`
	TakeProfitPct    optional.Option[float64]   `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit Percent,description=Close when price rises this fraction above entry"`
	ExecutionPrice   ExecutionPrice             `yaml:"execution_price" json:"execution_price" validate:"oneof=open close" jsonschema:"title=Execution Price,description=Price of the next bar used to fill signals,enum=open,enum=close,default=open"`
	RiskFreeRate     float64                    `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0,lt=1" jsonschema:"title=Risk Free Rate,description=Annual risk free rate used by Sharpe and Sortino,minimum=0"`
	MaxParallel      int                        `yaml:"max_parallel" json:"max_parallel" validate:"gte=1" jsonschema:"title=Max Parallel,description=Number of runs simulated concurrently,minimum=1,default=4"`
	WriteParquet     bool                       `yaml:"write_parquet" json:"write_parquet" jsonschema:"title=Write Parquet,description=Also export trades and equity as Parquet"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional first date of the simulated window"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional last date of the simulated window"`
}

type configYAML struct {
	Version          string                `yaml:"version"`
	InitialCapital   float64               `yaml:"initial_capital"`
	Broker           commission_fee.Broker `yaml:"broker"`
	CommissionRate   float64               `yaml:"commission_rate"`
	MinCommission    float64               `yaml:"min_commission"`
	FixedFee         float64               `yaml:"fixed_fee"`
	StampTaxRate     float64               `yaml:"stamp_tax_rate"`
	SlippageRate     float64               `yaml:"slippage_rate"`
	PositionFraction float64               `yaml:"position_fraction"`
	MaxPositionPct   float64               `yaml:"max_position_pct"`
	LotSize          float64               `yaml:"lot_size"`
	StopLossPct      *float64              `yaml:"stop_loss_pct,omitempty"`
	TakeProfitPct    *float64              `yaml:"take_profit_pct,omitempty"`
	ExecutionPrice   ExecutionPrice        `yaml:"execution_price"`
	RiskFreeRate     float64               `yaml:"risk_free_rate"`
	MaxParallel      int                   `yaml:"max_parallel"`
	WriteParquet     bool                  `yaml:"write_parquet"`
	StartTime        *time.Time            `yaml:"start_time,omitempty"`
	EndTime          *time.Time            `yaml:"end_time,omitempty"`
}

// UnmarshalYAML fills absent keys from EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	defaults := EmptyConfig()
	raw := defaults.toYAML()

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = BacktestEngineV1Config{
		Version:          raw.Version,
		InitialCapital:   raw.InitialCapital,
		Broker:           raw.Broker,
		CommissionRate:   raw.CommissionRate,
		MinCommission:    raw.MinCommission,
		FixedFee:         raw.FixedFee,
		StampTaxRate:     raw.StampTaxRate,
		SlippageRate:     raw.SlippageRate,
		PositionFraction: raw.PositionFraction,
		MaxPositionPct:   raw.MaxPositionPct,
		LotSize:          raw.LotSize,
		StopLossPct:      fromPtr(raw.StopLossPct),
		TakeProfitPct:    fromPtr(raw.TakeProfitPct),
		ExecutionPrice:   raw.ExecutionPrice,
		RiskFreeRate:     raw.RiskFreeRate,
		MaxParallel:      raw.MaxParallel,
		WriteParquet:     raw.WriteParquet,
		StartTime:        fromPtr(raw.StartTime),
		EndTime:          fromPtr(raw.EndTime),
	}

	return nil
}

// MarshalYAML omits unset optional fields.
func (c BacktestEngineV1Config) MarshalYAML() (any, error) {
	return c.toYAML(), nil
}

func (c BacktestEngineV1Config) toYAML() configYAML {
	return configYAML{
		Version:          c.Version,
		InitialCapital:   c.InitialCapital,
		Broker:           c.Broker,
		CommissionRate:   c.CommissionRate,
		MinCommission:    c.MinCommission,
		FixedFee:         c.FixedFee,
		StampTaxRate:     c.StampTaxRate,
		SlippageRate:     c.SlippageRate,
		PositionFraction: c.PositionFraction,
		MaxPositionPct:   c.MaxPositionPct,
		LotSize:          c.LotSize,
		StopLossPct:      c.StopLossPct.UnwrapAsPtr(),
		TakeProfitPct:    c.TakeProfitPct.UnwrapAsPtr(),
		ExecutionPrice:   c.ExecutionPrice,
		RiskFreeRate:     c.RiskFreeRate,
		MaxParallel:      c.MaxParallel,
		WriteParquet:     c.WriteParquet,
		StartTime:        c.StartTime.UnwrapAsPtr(),
		EndTime:          c.EndTime.UnwrapAsPtr(),
	}
}

// Validate checks every field before a run starts. All failures are Validation errors.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StopLossPct.IsSome() {
		pct := c.StopLossPct.Unwrap()
		if math.IsNaN(pct) || pct <= 0 || pct >= 1 {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop_loss_pct must be in (0, 1), got %v", pct)
		}
	}

	if c.TakeProfitPct.IsSome() {
		pct := c.TakeProfitPct.Unwrap()
		if math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= 0 {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit, "take_profit_pct must be positive, got %v", pct)
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	if c.Version != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.Version); err != nil {
			return err
		}
	}

	return nil
}

// SchemaMapper describes the config types the reflector cannot infer.
func SchemaMapper(t reflect.Type) *jsonschema.Schema {
	switch {
	case t.String() == "optional.Option[time.Time]":
		return &jsonschema.Schema{
			Type:   "string",
			Format: "date-time",
		}
	case t.String() == "optional.Option[float64]":
		return &jsonschema.Schema{
			Type: "number",
		}
	case strings.Contains(t.String(), "commission_fee.Broker"):
		return &jsonschema.Schema{
			Type: "string",
			Enum: commission_fee.AllBrokers,
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper:                     SchemaMapper,
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(schemaBytes), nil
}

// TestConfig returns a cost-free config with the given window, for tests and examples.
func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Version:          "",
		InitialCapital:   0,
		Broker:           commission_fee.BrokerRate,
		CommissionRate:   0,
		MinCommission:    0,
		FixedFee:         0,
		StampTaxRate:     0,
		SlippageRate:     0,
		PositionFraction: 1,
		MaxPositionPct:   1,
		LotSize:          1,
		StopLossPct:      optional.None[float64](),
		TakeProfitPct:    optional.None[float64](),
		ExecutionPrice:   ExecutionPriceOpen,
		RiskFreeRate:     0,
		MaxParallel:      4,
		WriteParquet:     false,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
	}
}

func fromPtr[T any](value *T) optional.Option[T] {
	if value == nil {
		return optional.None[T]()
	}

	return optional.Some(*value)
}
