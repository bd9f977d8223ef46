package cost

import (
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
)

// FIFOCostStrategy drains the oldest lot first, so stock on hand is valued at the latest receipts
type FIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOCostStrategy creates a new FIFO cost strategy
func NewFIFOCostStrategy() *FIFOCostStrategy {
	return &FIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			strategy.CostMethodFIFO,
			"First-in-first-out: outgoing stock consumes the oldest lots",
		),
	}
}

// NewTracker returns a tracker that consumes from the head of the lot queue
func (s *FIFOCostStrategy) NewTracker() strategy.CostTracker {
	return newLayerTracker(consumeHead, false)
}
