package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CostMethod represents the inventory costing method
type CostMethod string

const (
	CostMethodFIFO    CostMethod = "FIFO"
	CostMethodAverage CostMethod = "AVERAGE"
	CostMethodLIFO    CostMethod = "LIFO"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// IsValid reports whether m is a supported costing method
func (m CostMethod) IsValid() bool {
	switch m {
	case CostMethodFIFO, CostMethodAverage, CostMethodLIFO:
		return true
	}
	return false
}

// ParseCostMethod accepts method names case-insensitively
func ParseCostMethod(s string) (CostMethod, error) {
	m := CostMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown cost method %q", s)
	}
	return m, nil
}

// CostMovement is the slice of a ledger movement that costing needs.
// Quantity is signed: positive adds stock, negative removes it.
type CostMovement struct {
	ID        int64
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
	CreatedAt time.Time
}

// CostLayer is one lot still on hand. Known is false for stock that arrived
// without a cost while no cost had been established yet.
type CostLayer struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	Known    bool
}

// CostPosition is what a tracker reports after replaying a product's movements
type CostPosition struct {
	QtyOnHand      decimal.Decimal
	Value          decimal.Decimal
	UnitCost       decimal.Decimal
	HasUnknownCost bool
	Layers         []CostLayer
}

// CostTracker replays one product's movements in ledger order
type CostTracker interface {
	// Apply folds the next movement into the running position
	Apply(m CostMovement)
	// Position reports the current quantity, value and unknown-cost flag
	Position() CostPosition
}

// CostCalculationStrategy builds trackers for one costing method
type CostCalculationStrategy interface {
	Strategy
	// Method returns the costing method used by this strategy
	Method() CostMethod
	// NewTracker returns a fresh tracker for a single product
	NewTracker() CostTracker
}
