package cost

import (
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
)

// AverageCostStrategy implements weighted average costing. The average is
// recomputed on every costed receipt; sales consume at the current average
// and leave it unchanged.
type AverageCostStrategy struct {
	strategy.BaseStrategy
}

// NewAverageCostStrategy creates a new weighted average cost strategy
func NewAverageCostStrategy() *AverageCostStrategy {
	return &AverageCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			strategy.CostMethodAverage,
			"Weighted average cost recomputed on each costed receipt",
		),
	}
}

// NewTracker returns a tracker that values on-hand stock at the running average
func (s *AverageCostStrategy) NewTracker() strategy.CostTracker {
	return newLayerTracker(consumeHead, true)
}
