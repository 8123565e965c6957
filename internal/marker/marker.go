package marker

import "github.com/rxtech-lab/argo-backtest/internal/types"

// Marker annotates simulated days with executions and ignored signals.
type Marker interface {
	// Mark records one annotation.
	Mark(mark types.Mark) error
	// GetMarks returns all recorded annotations in insertion order.
	GetMarks() ([]types.Mark, error)
}
