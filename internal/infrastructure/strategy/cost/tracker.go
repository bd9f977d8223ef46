package cost

import (
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

const averagePrecision = 6

// consumeOrder decides which end of the lot queue outgoing stock drains
type consumeOrder int

const (
	consumeHead consumeOrder = iota
	consumeTail
)

// layerTracker keeps lots in arrival order together with a running weighted
// average over costed receipts. The average is maintained for every method
// because FIFO and LIFO fall back to it for stock whose cost is unknown.
type layerTracker struct {
	order      consumeOrder
	valueAtAvg bool
	layers     []strategy.CostLayer
	shortfall  decimal.Decimal
	avg        decimal.Decimal
	avgKnown   bool
}

func newLayerTracker(order consumeOrder, valueAtAvg bool) *layerTracker {
	return &layerTracker{order: order, valueAtAvg: valueAtAvg}
}

// Apply implements strategy.CostTracker
func (t *layerTracker) Apply(m strategy.CostMovement) {
	switch m.Quantity.Sign() {
	case 1:
		t.receive(m.Quantity, m.UnitCost)
	case -1:
		t.consume(m.Quantity.Neg())
	}
}

func (t *layerTracker) onHand() decimal.Decimal {
	qty := decimal.Zero
	for _, l := range t.layers {
		qty = qty.Add(l.Quantity)
	}
	return qty.Sub(t.shortfall)
}

func (t *layerTracker) receive(qty decimal.Decimal, unitCost *decimal.Decimal) {
	cost, known := decimal.Zero, false
	switch {
	case unitCost != nil:
		cost, known = *unitCost, true
		t.updateAverage(qty, cost)
	case t.avgKnown:
		cost, known = t.avg, true
	}

	// Stock that was sold before it arrived is settled first.
	if t.shortfall.IsPositive() {
		fill := decimal.Min(qty, t.shortfall)
		t.shortfall = t.shortfall.Sub(fill)
		qty = qty.Sub(fill)
	}
	if qty.IsPositive() {
		t.layers = append(t.layers, strategy.CostLayer{Quantity: qty, UnitCost: cost, Known: known})
	}
}

// new_avg = (old_qty*old_avg + in_qty*in_cost) / (old_qty+in_qty), old_qty clamped at zero
func (t *layerTracker) updateAverage(qty, cost decimal.Decimal) {
	oldQty := t.onHand()
	if !t.avgKnown || !oldQty.IsPositive() {
		t.avg, t.avgKnown = cost, true
		return
	}
	total := oldQty.Mul(t.avg).Add(qty.Mul(cost))
	t.avg = total.DivRound(oldQty.Add(qty), averagePrecision)
}

func (t *layerTracker) consume(qty decimal.Decimal) {
	for qty.IsPositive() && len(t.layers) > 0 {
		idx := 0
		if t.order == consumeTail {
			idx = len(t.layers) - 1
		}
		layer := &t.layers[idx]
		take := decimal.Min(qty, layer.Quantity)
		layer.Quantity = layer.Quantity.Sub(take)
		qty = qty.Sub(take)
		if layer.Quantity.IsZero() {
			t.layers = append(t.layers[:idx], t.layers[idx+1:]...)
		}
	}
	if qty.IsPositive() {
		t.shortfall = t.shortfall.Add(qty)
	}
}

// Position implements strategy.CostTracker
func (t *layerTracker) Position() strategy.CostPosition {
	qty := t.onHand()
	pos := strategy.CostPosition{
		QtyOnHand: qty,
		Value:     decimal.Zero,
		UnitCost:  decimal.Zero,
		Layers:    append([]strategy.CostLayer(nil), t.layers...),
	}
	if t.avgKnown {
		pos.UnitCost = t.avg
	}
	if qty.IsZero() {
		return pos
	}

	unknown := t.shortfall.IsPositive() || !t.avgKnown
	if t.valueAtAvg {
		for _, l := range t.layers {
			if !l.Known {
				unknown = true
			}
		}
		pos.Value = qty.Mul(t.avg)
	} else {
		value := t.shortfall.Neg().Mul(t.avg)
		for _, l := range t.layers {
			if l.Known {
				value = value.Add(l.Quantity.Mul(l.UnitCost))
				continue
			}
			unknown = true
			value = value.Add(l.Quantity.Mul(t.avg))
		}
		pos.Value = value
		pos.UnitCost = value.DivRound(qty, averagePrecision)
	}
	pos.HasUnknownCost = unknown
	return pos
}
