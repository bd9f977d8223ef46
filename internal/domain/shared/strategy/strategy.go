package strategy

import "strings"

// Strategy is what every pluggable costing strategy can say about itself
type Strategy interface {
	// Name is the lower-case method name, e.g. "fifo"
	Name() string
	Description() string
}

// BaseStrategy carries the method and description shared by cost strategies
type BaseStrategy struct {
	method      CostMethod
	description string
}

// NewBaseStrategy creates a new BaseStrategy for method
func NewBaseStrategy(method CostMethod, description string) BaseStrategy {
	return BaseStrategy{method: method, description: description}
}

// Name returns the method in lower case
func (s BaseStrategy) Name() string {
	return strings.ToLower(string(s.method))
}

// Method returns the costing method
func (s BaseStrategy) Method() CostMethod {
	return s.method
}

// Description returns the strategy description
func (s BaseStrategy) Description() string {
	return s.description
}
