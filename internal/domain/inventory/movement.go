package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry
type MovementType string

const (
	MovementTypeSale        MovementType = "SALE"
	MovementTypeReturn      MovementType = "RETURN"
	MovementTypeGRN         MovementType = "GRN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"
	MovementTypeStockTake   MovementType = "STOCKTAKE"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	return t.Sign() != 0 || t == MovementTypeAdjustment || t == MovementTypeStockTake
}

// Sign is the required sign of the quantity: -1 outgoing, +1 incoming,
// 0 when either direction is allowed (or the type is unknown).
func (t MovementType) Sign() int {
	switch t {
	case MovementTypeSale, MovementTypeTransferOut:
		return -1
	case MovementTypeGRN, MovementTypeTransferIn, MovementTypeReturn:
		return 1
	}
	return 0
}

// ReferenceType names the kind of document that caused a movement
type ReferenceType string

const (
	ReferenceTypeInvoice     ReferenceType = "INVOICE"
	ReferenceTypeSalesReturn ReferenceType = "SALES_RETURN"
	ReferenceTypeGRN         ReferenceType = "GRN"
	ReferenceTypeTransfer    ReferenceType = "TRANSFER"
	ReferenceTypeStockTake   ReferenceType = "STOCKTAKE"
	ReferenceTypeAdjustment  ReferenceType = "ADJUSTMENT"
)

// IsValid reports whether t is a known document kind
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceTypeInvoice, ReferenceTypeSalesReturn, ReferenceTypeGRN,
		ReferenceTypeTransfer, ReferenceTypeStockTake, ReferenceTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is one immutable signed quantity change. ID is assigned by
// the store and increases monotonically, breaking created_at ties.
type StockMovement struct {
	ID            int64
	ProductID     uuid.UUID
	MovementType  MovementType
	ReferenceType ReferenceType
	ReferenceID   string
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	Note          string
	OperatorID    *uuid.UUID
	RequestID     string
	CreatedAt     time.Time
}

// NewStockMovement validates the sign convention and builds an unsaved movement
func NewStockMovement(
	productID uuid.UUID,
	movementType MovementType,
	referenceType ReferenceType,
	referenceID string,
	quantity decimal.Decimal,
	createdAt time.Time,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewInvalidInputError("Movement product is required")
	}
	if !movementType.IsValid() {
		return nil, shared.NewInvalidInputError("Unknown movement type %q", movementType)
	}
	if quantity.IsZero() {
		return nil, shared.ErrInvalidQuantity.WithMessage("Movement quantity cannot be zero")
	}
	if sign := movementType.Sign(); sign != 0 && quantity.Sign() != sign {
		return nil, shared.ErrInvalidQuantity.WithMessage("%s movements must have a %s quantity", movementType, signName(sign))
	}
	if referenceID == "" {
		return nil, shared.NewInvalidInputError("Movement reference is required")
	}

	return &StockMovement{
		ProductID:     productID,
		MovementType:  movementType,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Quantity:      quantity,
		CreatedAt:     createdAt,
	}, nil
}

func signName(sign int) string {
	if sign < 0 {
		return "negative"
	}
	return "positive"
}

// NewSaleMovement records qty (positive) leaving stock for an invoice
func NewSaleMovement(productID uuid.UUID, qty decimal.Decimal, invoiceID uuid.UUID, at time.Time) (*StockMovement, error) {
	return NewStockMovement(productID, MovementTypeSale, ReferenceTypeInvoice, invoiceID.String(), qty.Neg(), at)
}

// NewReturnMovement records qty (positive) coming back from a customer
func NewReturnMovement(productID uuid.UUID, qty decimal.Decimal, returnID uuid.UUID, at time.Time) (*StockMovement, error) {
	return NewStockMovement(productID, MovementTypeReturn, ReferenceTypeSalesReturn, returnID.String(), qty.Abs(), at)
}

// NewGRNMovement records a costed supplier delivery
func NewGRNMovement(productID uuid.UUID, qty, unitCost decimal.Decimal, grnRef string, at time.Time) (*StockMovement, error) {
	if unitCost.IsNegative() {
		return nil, shared.NewInvalidInputError("Unit cost cannot be negative")
	}
	m, err := NewStockMovement(productID, MovementTypeGRN, ReferenceTypeGRN, grnRef, qty, at)
	if err != nil {
		return nil, err
	}
	return m.WithUnitCost(unitCost), nil
}

// WithUnitCost attaches a unit cost, making the movement costed
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	m.UnitCost = &cost
	return m
}

// WithNote attaches a free-text note
func (m *StockMovement) WithNote(note string) *StockMovement {
	m.Note = note
	return m
}

// WithOperator records who caused the movement and under which request
func (m *StockMovement) WithOperator(operatorID uuid.UUID, requestID string) *StockMovement {
	if operatorID != uuid.Nil {
		m.OperatorID = &operatorID
	}
	m.RequestID = requestID
	return m
}

// IsIncoming reports whether the movement adds stock
func (m *StockMovement) IsIncoming() bool {
	return m.Quantity.IsPositive()
}

// IsCosted reports whether the movement carries a unit cost
func (m *StockMovement) IsCosted() bool {
	return m.UnitCost != nil
}
