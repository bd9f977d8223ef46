package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements the append-only ledger using GORM.
// There is no update or delete path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts m and sets m.ID
func (r *GormStockMovementRepository) Append(ctx context.Context, m *inventory.StockMovement) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", m.ProductID).Count(&count).Error; err != nil {
		return translateError(err, "append movement")
	}
	if count == 0 {
		return shared.NewConstraintViolationError("Stock movement references unknown product %s", m.ProductID).
			WithDetail("product_id", m.ProductID.String())
	}

	model := models.StockMovementModelFromDomain(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "append movement")
	}
	m.ID = model.ID
	return nil
}

// FindByProduct returns up to q.Limit movements, newest first
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, q inventory.MovementQuery) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("product_id = ?", productID)
	if q.From != nil {
		query = query.Where("created_at >= ?", q.From.UTC())
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", q.To.UTC())
	}
	if q.After != nil {
		at := q.After.CreatedAt.UTC()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", at, at, q.After.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []models.StockMovementModel
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "list movements")
	}
	return toMovements(rows), nil
}

// FindByReference returns the movements written for one document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, refType inventory.ReferenceType, refID string) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list movements by reference")
	}
	return toMovements(rows), nil
}

// Balance is the signed sum of every movement for the product
func (r *GormStockMovementRepository) Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("SUM(quantity)").
		Where("product_id = ?", productID).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, translateError(err, "ledger balance")
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

type productBalanceRow struct {
	ProductID uuid.UUID
	Total     decimal.Decimal
}

// BalancesByProduct sums the ledger for every product that has movements
func (r *GormStockMovementRepository) BalancesByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []productBalanceRow
	if err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("product_id, SUM(quantity) AS total").
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "ledger balances")
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

// Walk streams movements ordered by product, time and insertion id. fn runs
// while the cursor is open, so it must not query through the same connection.
func (r *GormStockMovementRepository) Walk(ctx context.Context, until *time.Time, fn func(inventory.StockMovement) error) error {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{})
	if until != nil {
		query = query.Where("created_at <= ?", until.UTC())
	}
	rows, err := query.Order("product_id").Order("created_at").Order("id").Rows()
	if err != nil {
		return translateError(err, "walk ledger")
	}
	defer rows.Close()

	for rows.Next() {
		var model models.StockMovementModel
		if err := r.db.ScanRows(rows, &model); err != nil {
			return translateError(err, "walk ledger")
		}
		if err := fn(model.ToDomain()); err != nil {
			return err
		}
	}
	return translateError(rows.Err(), "walk ledger")
}

func toMovements(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
