package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
)

// Side is the direction of an execution.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fill is a priced and costed execution, ready to apply to the state.
type Fill struct {
	Side     Side
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Notional decimal.Decimal
	Cost     decimal.Decimal
}

// BacktestTrading prices fills, sizes buys and charges costs.
type BacktestTrading struct {
	commission       commission_fee.CommissionFee
	commissionRate   decimal.Decimal
	fixedFee         decimal.Decimal
	stampTaxRate     decimal.Decimal
	slippageRate     decimal.Decimal
	positionFraction decimal.Decimal
	maxPositionPct   decimal.Decimal
	lotSize          decimal.Decimal
	stopLossPct      optional.Option[decimal.Decimal]
	takeProfitPct    optional.Option[decimal.Decimal]
}

func NewBacktestTrading(config BacktestEngineV1Config) *BacktestTrading {
	commissionRate := decimal.NewFromFloat(config.CommissionRate)

	trading := &BacktestTrading{
		commission: commission_fee.GetCommissionFeeHandler(config.Broker, commission_fee.Schedule{
			Rate:    commissionRate,
			Minimum: decimal.NewFromFloat(config.MinCommission),
		}),
		commissionRate:   decimal.Zero,
		fixedFee:         decimal.NewFromFloat(config.FixedFee),
		stampTaxRate:     decimal.NewFromFloat(config.StampTaxRate),
		slippageRate:     decimal.NewFromFloat(config.SlippageRate),
		positionFraction: decimal.NewFromFloat(config.PositionFraction),
		maxPositionPct:   decimal.NewFromFloat(config.MaxPositionPct),
		lotSize:          decimal.NewFromFloat(config.LotSize),
		stopLossPct:      optional.None[decimal.Decimal](),
		takeProfitPct:    optional.None[decimal.Decimal](),
	}

	if config.Broker == commission_fee.BrokerRate {
		trading.commissionRate = commissionRate
	}

	if config.StopLossPct.IsSome() {
		trading.stopLossPct = optional.Some(decimal.NewFromFloat(config.StopLossPct.Unwrap()))
	}

	if config.TakeProfitPct.IsSome() {
		trading.takeProfitPct = optional.Some(decimal.NewFromFloat(config.TakeProfitPct.Unwrap()))
	}

	return trading
}

// FillPrice adjusts price against the trader: up for buys, down for sells.
func (b *BacktestTrading) FillPrice(side Side, price decimal.Decimal) decimal.Decimal {
	if side == SideBuy {
		return price.Mul(decimal.NewFromInt(1).Add(b.slippageRate))
	}

	return price.Mul(decimal.NewFromInt(1).Sub(b.slippageRate))
}

// Cost is the commission plus fixed fee, plus stamp tax on sells.
func (b *BacktestTrading) Cost(side Side, quantity, notional decimal.Decimal) decimal.Decimal {
	cost := b.commission.Calculate(quantity, notional).Add(b.fixedFee)
	if side == SideSell {
		cost = cost.Add(b.stampTaxRate.Mul(notional))
	}

	return cost
}

// SizeBuy prices a buy at price for the given equity and cash.
// The quantity is the largest whole number of lots whose notional plus the broker's actual
// cost fits in the budget. It never clips against cash: an order that cannot be funded or
// breaches the cap fails with a simulation error.
func (b *BacktestTrading) SizeBuy(price, equity, cash decimal.Decimal) (Fill, error) {
	fillPrice := b.FillPrice(SideBuy, price)
	if !fillPrice.IsPositive() {
		return Fill{}, errors.Newf(errors.ErrCodeUnfundableOrder, "cannot buy at non-positive price %s", fillPrice)
	}

	budget := decimal.Min(b.positionFraction, b.maxPositionPct).Mul(equity)
	lotPrice := fillPrice.Mul(b.lotSize)

	// the rate estimate only seeds the search; fixed and minimum fees are settled below
	unitCost := fillPrice.Mul(decimal.NewFromInt(1).Add(b.commissionRate))
	lots := budget.Sub(b.fixedFee).Div(unitCost.Mul(b.lotSize)).Floor()

	for lots.IsPositive() {
		quantity := lots.Mul(b.lotSize)
		notional := fillPrice.Mul(quantity)

		excess := notional.Add(b.Cost(SideBuy, quantity, notional)).Sub(budget)
		if !excess.IsPositive() {
			break
		}

		lots = lots.Sub(decimal.Max(excess.Div(lotPrice).Ceil(), decimal.NewFromInt(1)))
	}

	quantity := lots.Mul(b.lotSize)
	if !quantity.IsPositive() {
		return Fill{}, errors.Newf(errors.ErrCodeUnfundableOrder,
			"budget %s cannot fund one lot of %s at %s with costs", budget.StringFixed(2), b.lotSize, fillPrice)
	}

	notional := fillPrice.Mul(quantity)

	limit := b.maxPositionPct.Mul(equity)
	if notional.GreaterThan(limit) {
		return Fill{}, errors.Newf(errors.ErrCodePositionCapExceeded,
			"position notional %s exceeds cap %s", notional.StringFixed(2), limit.StringFixed(2))
	}

	cost := b.Cost(SideBuy, quantity, notional)
	if notional.Add(cost).GreaterThan(cash) {
		return Fill{}, errors.Newf(errors.ErrCodeInsufficientCash,
			"buy needs %s but only %s cash is available", notional.Add(cost).StringFixed(2), cash.StringFixed(2))
	}

	return Fill{
		Side:     SideBuy,
		Price:    fillPrice,
		Quantity: quantity,
		Notional: notional,
		Cost:     cost,
	}, nil
}

// SellAll prices the exit of the whole position at price.
func (b *BacktestTrading) SellAll(position types.Position, price decimal.Decimal) Fill {
	fillPrice := b.FillPrice(SideSell, price)
	notional := fillPrice.Mul(position.Quantity)

	return Fill{
		Side:     SideSell,
		Price:    fillPrice,
		Quantity: position.Quantity,
		Notional: notional,
		Cost:     b.Cost(SideSell, position.Quantity, notional),
	}
}

// RiskPrices returns the stop-loss and take-profit prices for an entry fill.
func (b *BacktestTrading) RiskPrices(entry decimal.Decimal) (optional.Option[decimal.Decimal], optional.Option[decimal.Decimal]) {
	stop := optional.None[decimal.Decimal]()
	if b.stopLossPct.IsSome() {
		stop = optional.Some(entry.Mul(decimal.NewFromInt(1).Sub(b.stopLossPct.Unwrap())))
	}

	take := optional.None[decimal.Decimal]()
	if b.takeProfitPct.IsSome() {
		take = optional.Some(entry.Mul(decimal.NewFromInt(1).Add(b.takeProfitPct.Unwrap())))
	}

	return stop, take
}
