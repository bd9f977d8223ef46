package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendMovement(t *testing.T, repo *GormStockMovementRepository, productID uuid.UUID, typ inventory.MovementType, qty string, at time.Time) inventory.StockMovement {
	t.Helper()
	m, err := inventory.NewStockMovement(productID, typ, inventory.ReferenceTypeAdjustment, "REF-1", dec(qty), at)
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), m))
	require.NotZero(t, m.ID)
	return *m
}

func TestGormStockMovementRepository_AppendUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockMovementRepository(db)

	m, err := inventory.NewStockMovement(uuid.New(), inventory.MovementTypeGRN, inventory.ReferenceTypeGRN, "GRN-1", dec("1"), testNow)
	require.NoError(t, err)

	err = repo.Append(context.Background(), m)
	assert.True(t, errors.Is(err, shared.ErrConstraintViolation))
	assert.Zero(t, m.ID)
}

func TestGormStockMovementRepository_FindByProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "MILK")
	other := seedProduct(t, db, "EGG")

	first := appendMovement(t, repo, p.ID, inventory.MovementTypeGRN, "10", testNow)
	// same timestamp: insertion id decides the order
	second := appendMovement(t, repo, p.ID, inventory.MovementTypeSale, "-2", testNow)
	third := appendMovement(t, repo, p.ID, inventory.MovementTypeSale, "-1", testNow.Add(time.Hour))
	appendMovement(t, repo, other.ID, inventory.MovementTypeGRN, "4", testNow)

	t.Run("newest first with id tiebreak", func(t *testing.T) {
		got, err := repo.FindByProduct(ctx, p.ID, inventory.MovementQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("keyset pages", func(t *testing.T) {
		page1, err := repo.FindByProduct(ctx, p.ID, inventory.MovementQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)

		cursor := inventory.CursorAfter(page1[1])
		page2, err := repo.FindByProduct(ctx, p.ID, inventory.MovementQuery{Limit: 2, After: &cursor})
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, first.ID, page2[0].ID)
	})

	t.Run("time window", func(t *testing.T) {
		from := testNow.Add(30 * time.Minute)
		got, err := repo.FindByProduct(ctx, p.ID, inventory.MovementQuery{From: &from})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, third.ID, got[0].ID)

		to := testNow
		got, err = repo.FindByProduct(ctx, p.ID, inventory.MovementQuery{To: &to})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("balances", func(t *testing.T) {
		bal, err := repo.Balance(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("7")), "got %s", bal)

		empty, err := repo.Balance(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, empty.IsZero())

		all, err := repo.BalancesByProduct(ctx)
		require.NoError(t, err)
		assert.True(t, all[other.ID].Equal(dec("4")))
		assert.True(t, all[p.ID].Equal(dec("7")))
	})

	t.Run("by reference", func(t *testing.T) {
		got, err := repo.FindByReference(ctx, inventory.ReferenceTypeAdjustment, "REF-1")
		require.NoError(t, err)
		assert.Len(t, got, 4)
		assert.Equal(t, first.ID, got[0].ID)
	})
}

func TestGormStockMovementRepository_Walk(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "RICE")

	grn, err := inventory.NewGRNMovement(p.ID, dec("10"), dec("1.5"), "GRN-7", testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, grn))
	appendMovement(t, repo, p.ID, inventory.MovementTypeSale, "-4", testNow.Add(24*time.Hour))

	var seen []inventory.StockMovement
	until := testNow.Add(time.Hour)
	require.NoError(t, repo.Walk(ctx, &until, func(m inventory.StockMovement) error {
		seen = append(seen, m)
		return nil
	}))
	require.Len(t, seen, 1)
	require.NotNil(t, seen[0].UnitCost)
	assert.True(t, seen[0].UnitCost.Equal(dec("1.5")))

	stop := errors.New("stop")
	count := 0
	err = repo.Walk(ctx, nil, func(inventory.StockMovement) error {
		count++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}
