package cost

import (
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
)

// LIFOCostStrategy drains the most recently received lot first
type LIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewLIFOCostStrategy creates a new LIFO cost strategy
func NewLIFOCostStrategy() *LIFOCostStrategy {
	return &LIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			strategy.CostMethodLIFO,
			"Last-in-first-out: outgoing stock consumes the newest lots",
		),
	}
}

// NewTracker returns a tracker that consumes from the tail of the lot queue
func (s *LIFOCostStrategy) NewTracker() strategy.CostTracker {
	return newLayerTracker(consumeTail, false)
}
