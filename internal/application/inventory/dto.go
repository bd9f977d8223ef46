package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID            int64            `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	MovementType  string           `json:"movement_type"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   string           `json:"reference_id"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Note          string           `json:"note,omitempty"`
	OperatorID    *uuid.UUID       `json:"operator_id,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ToMovementResponse converts a domain movement to its response form
func ToMovementResponse(m inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		MovementType:  string(m.MovementType),
		ReferenceType: string(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		Note:          m.Note,
		OperatorID:    m.OperatorID,
		RequestID:     m.RequestID,
		CreatedAt:     m.CreatedAt,
	}
}

// MovementListQuery filters a product's movement history
type MovementListQuery struct {
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Cursor string     `form:"cursor"`
	Limit  int        `form:"limit" binding:"omitempty,min=1,max=500"`
}

// MovementPage is one page of movements, newest first
type MovementPage = shared.CursorPage[MovementResponse, string]

// BalanceResponse compares the ledger sum with the cached stock quantity
type BalanceResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	LedgerQty decimal.Decimal `json:"ledger_qty"`
	StockQty  decimal.Decimal `json:"stock_qty"`
	InSync    bool            `json:"in_sync"`
}

// ReceiveGoodsRequest is a goods received note
type ReceiveGoodsRequest struct {
	Reference string             `json:"reference" binding:"required,max=100"`
	Note      string             `json:"note" binding:"max=500"`
	Lines     []ReceiveGoodsLine `json:"lines" binding:"required,min=1,dive"`
	Actor     identity.Actor     `json:"-"`
	RequestID string             `json:"-"`
}

// ReceiveGoodsLine is one costed delivery line
type ReceiveGoodsLine struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// TransferRequest moves stock to or from another location
type TransferRequest struct {
	Reference string         `json:"reference" binding:"required,max=100"`
	Note      string         `json:"note" binding:"max=500"`
	Lines     []TransferLine `json:"lines" binding:"required,min=1,dive"`
	Actor     identity.Actor `json:"-"`
	RequestID string         `json:"-"`
}

// TransferLine is one transferred product. UnitCost is only used for incoming transfers.
type TransferLine struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"decimal_gt0"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// AdjustmentRequest corrects one product's stock by a signed delta
type AdjustmentRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Delta     decimal.Decimal  `json:"delta"`
	Reason    string           `json:"reason" binding:"required,max=500"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Actor     identity.Actor   `json:"-"`
	RequestID string           `json:"-"`
}

// StockTakeRequest records physical counts
type StockTakeRequest struct {
	Reference string           `json:"reference" binding:"required,max=100"`
	Note      string           `json:"note" binding:"max=500"`
	Counts    []StockCountLine `json:"counts" binding:"required,min=1,dive"`
	Actor     identity.Actor   `json:"-"`
	RequestID string           `json:"-"`
}

// StockCountLine is the counted quantity of one product
type StockCountLine struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// StockDocumentResponse lists the movements one stock document wrote
type StockDocumentResponse struct {
	ReferenceType string             `json:"reference_type"`
	ReferenceID   string             `json:"reference_id"`
	Movements     []MovementResponse `json:"movements"`
}

// ProductValuation is one product's line in a valuation report
type ProductValuation struct {
	ProductID      uuid.UUID       `json:"product_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	QtyOnHand      decimal.Decimal `json:"qty_on_hand"`
	Value          decimal.Decimal `json:"value"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	HasUnknownCost bool            `json:"has_unknown_cost"`
}

// ValuationReport values every product under one costing method.
// Date is set for end-of-day snapshots.
type ValuationReport struct {
	Method           strategy.CostMethod `json:"method"`
	Date             string              `json:"date,omitempty"`
	AsOf             time.Time           `json:"as_of"`
	Products         []ProductValuation  `json:"products"`
	TotalValue       decimal.Decimal     `json:"total_value"`
	UnknownCostCount int                 `json:"unknown_cost_count"`
}

// ValuationQuery selects the costing method and, for snapshots, the business date
type ValuationQuery struct {
	Method string `form:"method" binding:"omitempty,oneof=FIFO AVERAGE LIFO fifo average lifo"`
	Date   string `form:"date"`
}

// StockDrift is one product whose cached quantity disagrees with its ledger
type StockDrift struct {
	ProductID  uuid.UUID       `json:"product_id"`
	SKU        string          `json:"sku"`
	StockQty   decimal.Decimal `json:"stock_qty"`
	LedgerQty  decimal.Decimal `json:"ledger_qty"`
	Difference decimal.Decimal `json:"difference"`
}

// ReconciliationReport is the outcome of comparing stock_qty with the ledger
type ReconciliationReport struct {
	Checked  int          `json:"checked"`
	Drifts   []StockDrift `json:"drifts"`
	Repaired bool         `json:"repaired"`
	RanAt    time.Time    `json:"ran_at"`
}

// HasDrift reports whether any product was out of step
func (r *ReconciliationReport) HasDrift() bool {
	return len(r.Drifts) > 0
}
