package engine

import (
	"fmt"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/marker"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// BacktestMarker implements the Marker interface for one backtest run.
type BacktestMarker struct {
	mu     sync.Mutex
	marks  []types.Mark
	logger *logger.Logger
}

var _ marker.Marker = (*BacktestMarker)(nil)

// NewBacktestMarker creates a new instance of BacktestMarker.
func NewBacktestMarker(logger *logger.Logger) *BacktestMarker {
	return &BacktestMarker{
		marks:  nil,
		logger: logger,
	}
}

// Mark implements the Marker interface.
func (m *BacktestMarker) Mark(mark types.Mark) error {
	if m == nil {
		return fmt.Errorf("backtest marker is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.marks = append(m.marks, mark)

	if m.logger != nil {
		m.logger.Debug("Mark recorded",
			zap.Time("date", mark.Date),
			zap.String("category", string(mark.Category)),
			zap.String("title", mark.Title),
		)
	}

	return nil
}

// GetMarks implements the Marker interface.
func (m *BacktestMarker) GetMarks() ([]types.Mark, error) {
	if m == nil {
		return nil, fmt.Errorf("backtest marker is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	marks := make([]types.Mark, len(m.marks))
	copy(marks, m.marks)

	return marks, nil
}

// Cleanup drops every recorded mark.
func (m *BacktestMarker) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.marks = nil
}

func entryMark(fill Fill, bar types.PriceBar, signalDate string) types.Mark {
	return types.Mark{
		Date:     bar.Date,
		Category: types.MarkCategoryEntry,
		Signal:   types.SignalBuy,
		Color:    types.MarkColorGreen,
		Shape:    types.MarkShapeTriangle,
		Title:    "Buy",
		Message:  fmt.Sprintf("bought %s at %s on signal from %s", fill.Quantity, fill.Price.StringFixed(4), signalDate),
	}
}

func exitMark(fill Fill, bar types.PriceBar, reason types.ExitReason) types.Mark {
	color := types.MarkColorRed

	switch reason {
	case types.ExitReasonTakeProfit:
		color = types.MarkColorGreen
	case types.ExitReasonHorizonEnd:
		color = types.MarkColorOrange
	case types.ExitReasonSignal, types.ExitReasonStopLoss:
	}

	return types.Mark{
		Date:     bar.Date,
		Category: types.MarkCategoryExit,
		Signal:   types.SignalSell,
		Color:    color,
		Shape:    types.MarkShapeSquare,
		Title:    "Sell",
		Message:  fmt.Sprintf("sold %s at %s (%s)", fill.Quantity, fill.Price.StringFixed(4), reason),
	}
}

func noOpMark(signal types.Signal, bar types.PriceBar, status PositionStatus, signalDate string) types.Mark {
	return types.Mark{
		Date:     bar.Date,
		Category: types.MarkCategoryNoOp,
		Signal:   signal,
		Color:    types.MarkColorYellow,
		Shape:    types.MarkShapeCircle,
		Title:    "Ignored",
		Message:  fmt.Sprintf("%s signal from %s ignored while %s", signal, signalDate, status),
	}
}
