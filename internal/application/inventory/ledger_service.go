package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
)

const (
	DefaultMovementPageSize = 50
	MaxMovementPageSize     = 500
)

// LedgerService answers read queries against the stock ledger
type LedgerService struct {
	products  catalog.ProductRepository
	movements inventory.StockMovementRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(products catalog.ProductRepository, movements inventory.StockMovementRepository) *LedgerService {
	return &LedgerService{products: products, movements: movements}
}

// MovementsFor returns one page of a product's movements ordered newest first.
// Pass the previous page's NextCursor to continue.
func (s *LedgerService) MovementsFor(ctx context.Context, productID uuid.UUID, q MovementListQuery) (*MovementPage, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrProductNotFound.WithDetail("product_id", productID.String())
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, shared.NewInvalidInputError("from must not be after to")
	}
	after, err := inventory.ParseMovementCursor(q.Cursor)
	if err != nil {
		return nil, err
	}
	limit := shared.ClampLimit(q.Limit, DefaultMovementPageSize, MaxMovementPageSize)

	rows, err := s.movements.FindByProduct(ctx, productID, inventory.MovementQuery{
		From:  q.From,
		To:    q.To,
		After: after,
		Limit: limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &MovementPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.HasMore = true
		page.NextCursor = inventory.CursorAfter(rows[len(rows)-1]).Encode()
	}
	page.Items = make([]MovementResponse, len(rows))
	for i, m := range rows {
		page.Items[i] = ToMovementResponse(m)
	}
	return page, nil
}

// IterateMovements yields every movement of the product inside [from, to],
// newest first, fetching pageSize rows per query. Ranging over the sequence
// again starts over from the newest movement. A storage error is yielded once
// and ends the sequence.
func (s *LedgerService) IterateMovements(ctx context.Context, productID uuid.UUID, from, to *time.Time, pageSize int) iter.Seq2[inventory.StockMovement, error] {
	pageSize = shared.ClampLimit(pageSize, DefaultMovementPageSize, MaxMovementPageSize)
	return func(yield func(inventory.StockMovement, error) bool) {
		var after *inventory.MovementCursor
		for {
			rows, err := s.movements.FindByProduct(ctx, productID, inventory.MovementQuery{
				From:  from,
				To:    to,
				After: after,
				Limit: pageSize,
			})
			if err != nil {
				yield(inventory.StockMovement{}, err)
				return
			}
			for _, m := range rows {
				if !yield(m, nil) {
					return
				}
			}
			if len(rows) < pageSize {
				return
			}
			next := inventory.CursorAfter(rows[len(rows)-1])
			after = &next
		}
	}
}

// Document returns the movements one stock document wrote, in id order
func (s *LedgerService) Document(ctx context.Context, refType inventory.ReferenceType, refID string) (*StockDocumentResponse, error) {
	if !refType.IsValid() {
		return nil, shared.NewInvalidInputError("Unknown reference type %q", refType)
	}
	rows, err := s.movements.FindByReference(ctx, refType, refID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound.WithMessage("No movements for %s %s", refType, refID)
	}
	resp := &StockDocumentResponse{
		ReferenceType: string(refType),
		ReferenceID:   refID,
		Movements:     make([]MovementResponse, len(rows)),
	}
	for i, m := range rows {
		resp.Movements[i] = ToMovementResponse(m)
	}
	return resp, nil
}

// CurrentBalance returns the ledger sum for the product next to its cached stock_qty
func (s *LedgerService) CurrentBalance(ctx context.Context, productID uuid.UUID) (*BalanceResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	balance, err := s.movements.Balance(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		ProductID: p.ID,
		SKU:       p.SKU,
		LedgerQty: balance,
		StockQty:  p.StockQty,
		InSync:    balance.Equal(p.StockQty),
	}, nil
}
