package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)

func TestNewStockMovement_SignConvention(t *testing.T) {
	pid := uuid.New()
	tests := []struct {
		name    string
		typ     MovementType
		qty     int64
		wantErr *shared.DomainError
	}{
		{"sale negative", MovementTypeSale, -2, nil},
		{"sale positive rejected", MovementTypeSale, 2, shared.ErrInvalidQuantity},
		{"transfer out negative", MovementTypeTransferOut, -1, nil},
		{"grn positive", MovementTypeGRN, 10, nil},
		{"grn negative rejected", MovementTypeGRN, -10, shared.ErrInvalidQuantity},
		{"return positive", MovementTypeReturn, 1, nil},
		{"transfer in negative rejected", MovementTypeTransferIn, -1, shared.ErrInvalidQuantity},
		{"adjustment either sign", MovementTypeAdjustment, -3, nil},
		{"stocktake either sign", MovementTypeStockTake, 4, nil},
		{"zero rejected", MovementTypeAdjustment, 0, shared.ErrInvalidQuantity},
		{"unknown type", MovementType("LOCK"), 1, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewStockMovement(pid, tt.typ, ReferenceTypeAdjustment, "ref-1", decimal.NewFromInt(tt.qty), at)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, m.MovementType)
		})
	}
}

func TestNewSaleAndReturnMovements(t *testing.T) {
	pid, doc := uuid.New(), uuid.New()

	sale, err := NewSaleMovement(pid, decimal.NewFromInt(3), doc, at)
	require.NoError(t, err)
	assert.True(t, sale.Quantity.Equal(decimal.NewFromInt(-3)))
	assert.Equal(t, ReferenceTypeInvoice, sale.ReferenceType)
	assert.Equal(t, doc.String(), sale.ReferenceID)
	assert.False(t, sale.IsIncoming())

	ret, err := NewReturnMovement(pid, decimal.NewFromInt(2), doc, at)
	require.NoError(t, err)
	assert.True(t, ret.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, ret.IsIncoming())
	assert.False(t, ret.IsCosted())
}

func TestNewGRNMovement(t *testing.T) {
	m, err := NewGRNMovement(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(100), "GRN-1", at)
	require.NoError(t, err)
	require.True(t, m.IsCosted())
	assert.True(t, m.UnitCost.Equal(decimal.NewFromInt(100)))

	_, err = NewGRNMovement(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(-1), "GRN-1", at)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestWithOperator(t *testing.T) {
	m, err := NewSaleMovement(uuid.New(), decimal.NewFromInt(1), uuid.New(), at)
	require.NoError(t, err)

	m.WithOperator(uuid.Nil, "req-1")
	assert.Nil(t, m.OperatorID)
	assert.Equal(t, "req-1", m.RequestID)
}

func TestMovementCursor_RoundTrip(t *testing.T) {
	c := MovementCursor{CreatedAt: at, ID: 42}
	parsed, err := ParseMovementCursor(c.Encode())
	require.NoError(t, err)
	assert.True(t, parsed.CreatedAt.Equal(at))
	assert.Equal(t, int64(42), parsed.ID)

	none, err := ParseMovementCursor("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseMovementCursor("%%%")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
