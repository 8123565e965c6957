package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/marker"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OnBarCallback is called after each simulated day.
type OnBarCallback func(current int, total int) error

type simulateOptions struct {
	logger *logger.Logger
	marker marker.Marker
	onBar  optional.Option[OnBarCallback]
}

type SimulateOption func(*simulateOptions)

func WithLogger(log *logger.Logger) SimulateOption {
	return func(o *simulateOptions) {
		o.logger = log
	}
}

// WithMarker records marks into m instead of a fresh BacktestMarker.
func WithMarker(m marker.Marker) SimulateOption {
	return func(o *simulateOptions) {
		o.marker = m
	}
}

func WithOnBar(callback OnBarCallback) SimulateOption {
	return func(o *simulateOptions) {
		o.onBar = optional.Some(callback)
	}
}

type pendingSignal struct {
	signal types.Signal
	index  int
}

// Simulate runs one sequential backtest of signals over series.
//
// Each day t: the signal pending from t-1 fills at bar t's execution price, an open
// position is checked against its stop-loss and take-profit at close t, signal t becomes
// pending, and on the last bar an open position is closed with horizon_end. Equity is
// appended every day. Any simulation error aborts the run.
func Simulate(series types.PriceSeries, signals types.SignalSeries, config BacktestEngineV1Config, opts ...SimulateOption) (*types.BacktestResult, error) {
	options := simulateOptions{
		logger: nil,
		marker: nil,
		onBar:  optional.None[OnBarCallback](),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.logger == nil {
		options.logger = logger.NewNopLogger()
	}

	if options.marker == nil {
		options.marker = NewBacktestMarker(options.logger)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	if series.Len() == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "price series %s is empty", series.Symbol)
	}

	if err := checkSignalIndex(series, signals); err != nil {
		return nil, err
	}

	sim := &simulation{
		series:  series,
		signals: signals,
		config:  config,
		trading: NewBacktestTrading(config),
		state:   NewBacktestState(series.Symbol, decimal.NewFromFloat(config.InitialCapital)),
		marker:  options.marker,
		log:     options.logger,
		pending: optional.None[pendingSignal](),
		points:  make([]types.EquityPoint, 0, series.Len()),
	}

	total := series.Len()
	for i := range series.Bars {
		if err := sim.step(i); err != nil {
			sim.log.Error("Backtest run aborted",
				zap.String("symbol", series.Symbol),
				zap.Time("date", series.Bars[i].Date),
				zap.Error(err),
			)

			return nil, err
		}

		if options.onBar.IsSome() {
			if err := options.onBar.Unwrap()(i+1, total); err != nil {
				return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "on bar callback failed", err)
			}
		}
	}

	marks, err := sim.marker.GetMarks()
	if err != nil {
		return nil, err
	}

	return &types.BacktestResult{
		Symbol: series.Symbol,
		Trades: sim.state.Trades(),
		Equity: types.EquityCurve{
			InitialCapital: config.InitialCapital,
			Points:         sim.points,
		},
		Marks: marks,
	}, nil
}

type simulation struct {
	series  types.PriceSeries
	signals types.SignalSeries
	config  BacktestEngineV1Config
	trading *BacktestTrading
	state   *BacktestState
	marker  marker.Marker
	log     *logger.Logger
	pending optional.Option[pendingSignal]
	points  []types.EquityPoint
}

func (s *simulation) step(i int) error {
	bar := s.series.Bars[i]
	closePrice := decimal.NewFromFloat(bar.Close)
	last := i == s.series.Len()-1

	if s.pending.IsSome() {
		pending := s.pending.Unwrap()
		s.pending = optional.None[pendingSignal]()

		if err := s.execute(pending, i); err != nil {
			return err
		}
	}

	if s.state.Status() == PositionStatusLong {
		reason := s.state.RiskExit(closePrice)
		if reason.IsSome() {
			if err := s.exit(i, closePrice, reason.Unwrap()); err != nil {
				return err
			}
		}
	}

	// the last bar has no next bar to fill on
	if !last && s.signals.Signals[i] != types.SignalHold {
		s.pending = optional.Some(pendingSignal{signal: s.signals.Signals[i], index: i})
	}

	if last && s.state.Status() == PositionStatusLong {
		if err := s.exit(i, closePrice, types.ExitReasonHorizonEnd); err != nil {
			return err
		}
	}

	if err := s.state.Ledger().Reconcile(); err != nil {
		return err
	}

	positionValue := s.state.PositionValue(closePrice)
	cash := s.state.Ledger().Cash
	s.points = append(s.points, types.EquityPoint{
		Date:          bar.Date,
		Cash:          cash.InexactFloat64(),
		PositionValue: positionValue.InexactFloat64(),
		Equity:        cash.Add(positionValue).InexactFloat64(),
	})

	return nil
}

func (s *simulation) execute(pending pendingSignal, i int) error {
	bar := s.series.Bars[i]
	price := decimal.NewFromFloat(bar.Open)

	if s.config.ExecutionPrice == ExecutionPriceClose {
		price = decimal.NewFromFloat(bar.Close)
	}

	signalDate := s.signals.Dates[pending.index].Format("2006-01-02")
	status := s.state.Status()

	switch {
	case pending.signal == types.SignalBuy && status == PositionStatusFlat:
		fill, err := s.trading.SizeBuy(price, s.state.Equity(price), s.state.Ledger().Cash)
		if err != nil {
			return err
		}

		stop, take := s.trading.RiskPrices(fill.Price)
		if err := s.state.Open(bar.Date, i, fill.Price, fill.Quantity, fill.Cost, stop, take); err != nil {
			return err
		}

		s.log.Debug("Opened position",
			zap.String("symbol", s.series.Symbol),
			zap.Time("date", bar.Date),
			zap.String("quantity", fill.Quantity.String()),
			zap.String("price", fill.Price.String()),
			zap.String("cost", fill.Cost.String()),
		)

		return s.marker.Mark(entryMark(fill, bar, signalDate))
	case pending.signal == types.SignalSell && status == PositionStatusLong:
		return s.exit(i, price, types.ExitReasonSignal)
	default:
		return s.marker.Mark(noOpMark(pending.signal, bar, status, signalDate))
	}
}

func (s *simulation) exit(i int, price decimal.Decimal, reason types.ExitReason) error {
	bar := s.series.Bars[i]
	fill := s.trading.SellAll(s.state.Position().Unwrap(), price)

	trade, err := s.state.Close(bar.Date, i, fill.Price, fill.Cost, reason)
	if err != nil {
		return err
	}

	s.log.Debug("Closed position",
		zap.String("symbol", s.series.Symbol),
		zap.Time("date", bar.Date),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", trade.RealizedPnL),
	)

	return s.marker.Mark(exitMark(fill, bar, reason))
}

func checkSignalIndex(series types.PriceSeries, signals types.SignalSeries) error {
	if signals.Len() != series.Len() || len(signals.Dates) != series.Len() {
		return errors.Newf(errors.ErrCodeMismatchedIndex,
			"signal series %s has %d rows but price series %s has %d", signals.Name, signals.Len(), series.Symbol, series.Len())
	}

	for i, bar := range series.Bars {
		if !signals.Dates[i].Equal(bar.Date) {
			return errors.Newf(errors.ErrCodeMismatchedIndex,
				"signal date %s does not match price date %s at row %d",
				signals.Dates[i].Format("2006-01-02"), bar.Date.Format("2006-01-02"), i)
		}
	}

	return nil
}
