package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/strategy/cost"
)

// StrategyRegistry resolves cost strategies by costing method
type StrategyRegistry struct {
	mu             sync.RWMutex
	costStrategies map[strategy.CostMethod]strategy.CostCalculationStrategy
	defaultMethod  strategy.CostMethod
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		costStrategies: make(map[strategy.CostMethod]strategy.CostCalculationStrategy),
	}
}

// NewRegistryWithDefaults registers FIFO, AVERAGE and LIFO and makes defaultMethod the fallback
func NewRegistryWithDefaults(defaultMethod strategy.CostMethod) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()
	for _, s := range []strategy.CostCalculationStrategy{
		cost.NewFIFOCostStrategy(),
		cost.NewAverageCostStrategy(),
		cost.NewLIFOCostStrategy(),
	} {
		if err := r.RegisterCostStrategy(s); err != nil {
			return nil, err
		}
	}
	if err := r.SetDefaultCostMethod(defaultMethod); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterCostStrategy registers a cost calculation strategy
func (r *StrategyRegistry) RegisterCostStrategy(s strategy.CostCalculationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[s.Method()]; exists {
		return shared.ErrInvalidState.WithMessage("cost strategy %q already registered", s.Method())
	}
	r.costStrategies[s.Method()] = s
	return nil
}

// SetDefaultCostMethod selects the strategy used when a caller does not name one
func (r *StrategyRegistry) SetDefaultCostMethod(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[method]; !exists {
		return fmt.Errorf("%w: cost strategy %q not registered", shared.ErrNotFound, method)
	}
	r.defaultMethod = method
	return nil
}

// GetCostStrategy returns the strategy for method, or the default when method is empty
func (r *StrategyRegistry) GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method == "" {
		method = r.defaultMethod
	}
	s, exists := r.costStrategies[method]
	if !exists {
		return nil, shared.NewInvalidInputError("unsupported valuation method %q", method)
	}
	return s, nil
}

// DefaultCostMethod returns the fallback method
func (r *StrategyRegistry) DefaultCostMethod() strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultMethod
}

// ListCostMethods returns the registered methods in name order
func (r *StrategyRegistry) ListCostMethods() []strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]strategy.CostMethod, 0, len(r.costStrategies))
	for m := range r.costStrategies {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
