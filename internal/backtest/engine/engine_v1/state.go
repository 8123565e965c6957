package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
)

// PositionStatus is the state of the long-only state machine.
type PositionStatus string

const (
	PositionStatusFlat PositionStatus = "flat"
	PositionStatusLong PositionStatus = "long"
)

// Ledger tracks every cash movement of one run.
type Ledger struct {
	InitialCapital decimal.Decimal
	Cash           decimal.Decimal
	// Outlays is the sum of buy notionals.
	Outlays decimal.Decimal
	// Proceeds is the sum of sell notionals.
	Proceeds decimal.Decimal
	Costs    decimal.Decimal
	// RealizedPnL is the sum of closed trade P&L after costs.
	RealizedPnL decimal.Decimal
}

func NewLedger(initialCapital decimal.Decimal) *Ledger {
	return &Ledger{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
		Outlays:        decimal.Zero,
		Proceeds:       decimal.Zero,
		Costs:          decimal.Zero,
		RealizedPnL:    decimal.Zero,
	}
}

// Reconcile verifies cash == initial + proceeds - outlays - costs.
func (l *Ledger) Reconcile() error {
	expected := l.InitialCapital.Add(l.Proceeds).Sub(l.Outlays).Sub(l.Costs)
	if !expected.Equal(l.Cash) {
		return errors.Newf(errors.ErrCodeLedgerMismatch, "cash %s does not reconcile with ledger total %s", l.Cash, expected)
	}

	if l.Cash.IsNegative() {
		return errors.Newf(errors.ErrCodeInsufficientCash, "cash went negative: %s", l.Cash)
	}

	return nil
}

// BacktestState is the Flat/Long state machine of one run.
type BacktestState struct {
	symbol     string
	status     PositionStatus
	position   optional.Option[types.Position]
	entryIndex int
	ledger     *Ledger
	trades     []types.Trade
}

func NewBacktestState(symbol string, initialCapital decimal.Decimal) *BacktestState {
	return &BacktestState{
		symbol:   symbol,
		status:   PositionStatusFlat,
		position: optional.None[types.Position](),
		ledger:   NewLedger(initialCapital),
		trades:   nil,
	}
}

func (b *BacktestState) Status() PositionStatus {
	return b.status
}

func (b *BacktestState) Position() optional.Option[types.Position] {
	return b.position
}

func (b *BacktestState) Ledger() *Ledger {
	return b.ledger
}

func (b *BacktestState) Trades() []types.Trade {
	return b.trades
}

// Equity returns cash plus the position marked at price.
func (b *BacktestState) Equity(price decimal.Decimal) decimal.Decimal {
	return b.ledger.Cash.Add(b.PositionValue(price))
}

func (b *BacktestState) PositionValue(price decimal.Decimal) decimal.Decimal {
	if b.position.IsNone() {
		return decimal.Zero
	}

	return b.position.Unwrap().MarketValue(price)
}

// Open moves Flat to Long. The caller has already sized and priced the fill.
func (b *BacktestState) Open(date time.Time, index int, price, quantity, cost decimal.Decimal,
	stopLoss, takeProfit optional.Option[decimal.Decimal],
) error {
	if b.status != PositionStatusFlat {
		return errors.Newf(errors.ErrCodeInvalidTransition, "cannot open %s: already long", b.symbol)
	}

	if !quantity.IsPositive() {
		return errors.Newf(errors.ErrCodeUnfundableOrder, "cannot open %s with quantity %s", b.symbol, quantity)
	}

	notional := price.Mul(quantity)

	outlay := notional.Add(cost)
	if outlay.GreaterThan(b.ledger.Cash) {
		return errors.Newf(errors.ErrCodeInsufficientCash,
			"buy of %s %s at %s needs %s but only %s cash is available", quantity, b.symbol, price, outlay, b.ledger.Cash)
	}

	b.ledger.Cash = b.ledger.Cash.Sub(outlay)
	b.ledger.Outlays = b.ledger.Outlays.Add(notional)
	b.ledger.Costs = b.ledger.Costs.Add(cost)

	b.position = optional.Some(types.Position{
		EntryDate:       date,
		EntryPrice:      price,
		Quantity:        quantity,
		EntryCost:       cost,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
	})
	b.entryIndex = index
	b.status = PositionStatusLong

	return nil
}

// Close moves Long to Flat and records the trade.
func (b *BacktestState) Close(date time.Time, index int, price, cost decimal.Decimal, reason types.ExitReason) (types.Trade, error) {
	if b.status != PositionStatusLong || b.position.IsNone() {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidTransition, "cannot close %s: no open position", b.symbol)
	}

	position := b.position.Unwrap()
	proceeds := price.Mul(position.Quantity)
	pnl := price.Sub(position.EntryPrice).Mul(position.Quantity).Sub(position.EntryCost).Sub(cost)

	b.ledger.Cash = b.ledger.Cash.Add(proceeds).Sub(cost)
	b.ledger.Proceeds = b.ledger.Proceeds.Add(proceeds)
	b.ledger.Costs = b.ledger.Costs.Add(cost)
	b.ledger.RealizedPnL = b.ledger.RealizedPnL.Add(pnl)

	trade := types.Trade{
		Symbol:      b.symbol,
		EntryDate:   position.EntryDate,
		ExitDate:    date,
		EntryPrice:  position.EntryPrice.InexactFloat64(),
		ExitPrice:   price.InexactFloat64(),
		Quantity:    position.Quantity.InexactFloat64(),
		Cost:        position.EntryCost.Add(cost).InexactFloat64(),
		RealizedPnL: pnl.InexactFloat64(),
		ExitReason:  reason,
		HoldingBars: index - b.entryIndex,
	}

	b.trades = append(b.trades, trade)
	b.position = optional.None[types.Position]()
	b.status = PositionStatusFlat

	return trade, nil
}

// RiskExit reports which threshold price breaches, if any. Stop loss wins when both do.
func (b *BacktestState) RiskExit(price decimal.Decimal) optional.Option[types.ExitReason] {
	if b.position.IsNone() {
		return optional.None[types.ExitReason]()
	}

	position := b.position.Unwrap()

	if position.StopLossPrice.IsSome() && price.LessThanOrEqual(position.StopLossPrice.Unwrap()) {
		return optional.Some(types.ExitReasonStopLoss)
	}

	if position.TakeProfitPrice.IsSome() && price.GreaterThanOrEqual(position.TakeProfitPrice.Unwrap()) {
		return optional.Some(types.ExitReasonTakeProfit)
	}

	return optional.None[types.ExitReason]()
}
