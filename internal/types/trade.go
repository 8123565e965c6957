package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonSignal     ExitReason = "signal"
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonHorizonEnd ExitReason = "horizon_end"
)

// Position is an open long holding. Prices are fill prices after slippage.
type Position struct {
	EntryDate       time.Time
	EntryPrice      decimal.Decimal
	Quantity        decimal.Decimal
	EntryCost       decimal.Decimal
	StopLossPrice   optional.Option[decimal.Decimal]
	TakeProfitPrice optional.Option[decimal.Decimal]
}

// MarketValue returns quantity * price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// Trade is a closed entry and exit pair. Created once when a position closes.
type Trade struct {
	Symbol     string     `csv:"symbol" json:"symbol" yaml:"symbol"`
	EntryDate  time.Time  `csv:"entry_date" json:"entry_date" yaml:"entry_date"`
	ExitDate   time.Time  `csv:"exit_date" json:"exit_date" yaml:"exit_date"`
	EntryPrice float64    `csv:"entry_price" json:"entry_price" yaml:"entry_price"`
	ExitPrice  float64    `csv:"exit_price" json:"exit_price" yaml:"exit_price"`
	Quantity   float64    `csv:"quantity" json:"quantity" yaml:"quantity"`
	// Cost is the sum of entry and exit transaction costs.
	Cost float64 `csv:"cost" json:"cost" yaml:"cost"`
	// RealizedPnL is (exit - entry) * quantity - cost.
	RealizedPnL float64    `csv:"realized_pnl" json:"realized_pnl" yaml:"realized_pnl"`
	ExitReason  ExitReason `csv:"exit_reason" json:"exit_reason" yaml:"exit_reason"`
	// HoldingBars is the number of bars between entry and exit.
	HoldingBars int `csv:"holding_bars" json:"holding_bars" yaml:"holding_bars"`
}

// IsWin reports whether the trade made money after costs.
func (t Trade) IsWin() bool {
	return t.RealizedPnL > 0
}
