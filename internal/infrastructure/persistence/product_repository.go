package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrProductNotFound.WithDetail("product_id", id.String())
		}
		return nil, translateError(err, "find product")
	}
	return model.ToDomain(), nil
}

// FindByIDs loads every product in ids. Missing ids are simply absent from the result.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "find products")
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrProductNotFound.WithDetail("sku", sku)
		}
		return nil, translateError(err, "find product by sku")
	}
	return model.ToDomain(), nil
}

// FindByBarcode finds a product by its barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.NewInvalidInputError("Barcode cannot be empty")
	}
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrProductNotFound.WithDetail("barcode", barcode)
		}
		return nil, translateError(err, "find product by barcode")
	}
	return model.ToDomain(), nil
}

// FindAll returns every product ordered by SKU
func (r *GormProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Order("sku").Find(&rows).Error; err != nil {
		return nil, translateError(err, "list products")
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Exists reports whether a product with id exists
func (r *GormProductRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err, "check product")
	}
	return count > 0, nil
}

// Save creates or updates a product. stock_qty is never written here: it only
// moves through the ledger-paired mutators below.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).Model(model).
		Select("sku", "barcode", "name", "name_alt", "unit",
			"price_retail", "price_wholesale", "price_credit", "price_other",
			"is_active", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "update product")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "create product")
	}
	return nil
}

// AdjustStockQty applies stock_qty = stock_qty + delta
func (r *GormProductRepository) AdjustStockQty(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "adjust stock")
	}
	if result.RowsAffected == 0 {
		return shared.ErrProductNotFound.WithDetail("product_id", id.String())
	}
	return nil
}

// DecrementStockGuarded applies stock_qty = stock_qty - qty only while stock_qty >= qty
func (r *GormProductRepository) DecrementStockGuarded(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND stock_qty >= ?", id, qty).
		UpdateColumns(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, translateError(result.Error, "decrement stock")
	}
	return result.RowsAffected == 1, nil
}

// SetStockQty overwrites the cached quantity
func (r *GormProductRepository) SetStockQty(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stock_qty":  qty,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "set stock")
	}
	if result.RowsAffected == 0 {
		return shared.ErrProductNotFound.WithDetail("product_id", id.String())
	}
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
