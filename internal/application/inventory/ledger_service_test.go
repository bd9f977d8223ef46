package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementsFor_PagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.product(t, "RICE")
	for range 5 {
		f.receive(t, rice, "1", "10")
	}

	first, err := f.ledger.MovementsFor(ctx, rice.ID, MovementListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	seen := map[int64]bool{}
	for _, m := range first.Items {
		seen[m.ID] = true
	}
	cursor := first.NextCursor
	for cursor != "" {
		page, err := f.ledger.MovementsFor(ctx, rice.ID, MovementListQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, m := range page.Items {
			assert.False(t, seen[m.ID], "movement %d returned twice", m.ID)
			seen[m.ID] = true
		}
		cursor = ""
		if page.HasMore {
			cursor = page.NextCursor
		}
	}
	assert.Len(t, seen, 5)
}

func TestMovementsFor_Window(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "RICE")
	start := f.now
	for range 4 {
		f.receive(t, rice, "1", "10")
	}

	from := start.Add(time.Minute)
	to := start.Add(2 * time.Minute)
	page, err := f.ledger.MovementsFor(context.Background(), rice.ID, MovementListQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)

	_, err = f.ledger.MovementsFor(context.Background(), rice.ID, MovementListQuery{From: &to, To: &from})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMovementsFor_Errors(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "RICE")

	_, err := f.ledger.MovementsFor(context.Background(), uuid.New(), MovementListQuery{})
	assert.ErrorIs(t, err, shared.ErrProductNotFound)

	_, err = f.ledger.MovementsFor(context.Background(), rice.ID, MovementListQuery{Cursor: "%%%"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestIterateMovements_YieldsEverythingAndRestarts(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "RICE")
	for range 5 {
		f.receive(t, rice, "1", "10")
	}

	seq := f.ledger.IterateMovements(context.Background(), rice.ID, nil, nil, 2)
	count := 0
	for m, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, rice.ID, m.ProductID)
		count++
	}
	assert.Equal(t, 5, count)

	// breaking early and ranging again starts over
	for _, err := range seq {
		require.NoError(t, err)
		break
	}
	again := 0
	for range seq {
		again++
	}
	assert.Equal(t, 5, again)
}

func TestCurrentBalance(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "RICE")
	f.receive(t, rice, "10", "100")
	f.ship(t, rice, "2.5")

	bal, err := f.ledger.CurrentBalance(context.Background(), rice.ID)
	require.NoError(t, err)
	assert.True(t, bal.LedgerQty.Equal(dec("7.5")))
	assert.True(t, bal.InSync)
	assert.Equal(t, "RICE", bal.SKU)

	_, err = f.ledger.CurrentBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrProductNotFound)
}
