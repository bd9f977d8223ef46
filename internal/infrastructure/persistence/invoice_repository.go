package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/trade"
	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts the invoice together with its lines and payments
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConstraintViolationError("Receipt number %s is already used", inv.ReceiptNo).
				WithDetail("receipt_no", inv.ReceiptNo)
		}
		return translateError(err, "create invoice")
	}
	return nil
}

// FindByID loads an invoice with its lines and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByReceiptNo loads an invoice by receipt number
func (r *GormInvoiceRepository) FindByReceiptNo(ctx context.Context, receiptNo string) (*trade.Invoice, error) {
	return r.findOne(ctx, "receipt_no = ?", receiptNo)
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, cond string, arg any) (*trade.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Preload("Payments").
		Where(cond, arg).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find invoice")
	}
	return model.ToDomain(), nil
}

// ReceiptNoExists reports whether receiptNo is taken
func (r *GormInvoiceRepository) ReceiptNoExists(ctx context.Context, receiptNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("receipt_no = ?", receiptNo).
		Count(&count).Error; err != nil {
		return false, translateError(err, "check receipt number")
	}
	return count > 0, nil
}

// NextReceiptSequence bumps the per-day counter with an upsert and reads it back
// inside the caller's transaction.
func (r *GormInvoiceRepository) NextReceiptSequence(ctx context.Context, businessDate string) (int64, error) {
	now := time.Now().UTC()
	seq := models.ReceiptSequenceModel{BusinessDate: businessDate, LastValue: 1, UpdatedAt: now}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_value": gorm.Expr("receipt_sequences.last_value + 1"),
			"updated_at": now,
		}),
	}).Create(&seq).Error; err != nil {
		return 0, translateError(err, "next receipt sequence")
	}

	var current models.ReceiptSequenceModel
	if err := r.db.WithContext(ctx).First(&current, "business_date = ?", businessDate).Error; err != nil {
		return 0, translateError(err, "read receipt sequence")
	}
	return current.LastValue, nil
}

// IncrementReturnedQty adds qty to returned_qty while enough quantity remains eligible
func (r *GormInvoiceRepository) IncrementReturnedQty(ctx context.Context, lineID uuid.UUID, qty decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.InvoiceLineModel{}).
		Where("id = ? AND qty >= returned_qty + ?", lineID, qty).
		UpdateColumn("returned_qty", gorm.Expr("returned_qty + ?", qty))
	if result.Error != nil {
		return false, translateError(result.Error, "update returned quantity")
	}
	return result.RowsAffected == 1, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// Create inserts the return and its lines
func (r *GormSalesReturnRepository) Create(ctx context.Context, ret *trade.SalesReturn) error {
	if err := r.db.WithContext(ctx).Create(models.SalesReturnModelFromDomain(ret)).Error; err != nil {
		return translateError(err, "create sales return")
	}
	return nil
}

// FindByInvoice lists the returns processed against an invoice, oldest first
func (r *GormSalesReturnRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]trade.SalesReturn, error) {
	var rows []models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("invoice_id = ?", invoiceID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list sales returns")
	}
	out := make([]trade.SalesReturn, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormSalesReturnRepository implements SalesReturnRepository
var _ trade.SalesReturnRepository = (*GormSalesReturnRepository)(nil)
