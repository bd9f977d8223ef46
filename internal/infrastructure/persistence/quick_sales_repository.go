package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormQuickSalesRepository implements SessionRepository using GORM
type GormQuickSalesRepository struct {
	db *gorm.DB
}

// NewGormQuickSalesRepository creates a new GormQuickSalesRepository
func NewGormQuickSalesRepository(db *gorm.DB) *GormQuickSalesRepository {
	return &GormQuickSalesRepository{db: db}
}

// FindByID finds a session by its ID
func (r *GormQuickSalesRepository) FindByID(ctx context.Context, id uuid.UUID) (*quicksales.Session, error) {
	var model models.QuickSalesSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find session")
	}
	return model.ToDomain(), nil
}

// FindOpenByScope returns the oldest OPEN session of the scope
func (r *GormQuickSalesRepository) FindOpenByScope(ctx context.Context, scope string) (*quicksales.Session, error) {
	var model models.QuickSalesSessionModel
	if err := r.db.WithContext(ctx).
		Where("scope = ? AND status = ?", scope, quicksales.SessionStatusOpen).
		Order("business_date").
		First(&model).Error; err != nil {
		return nil, translateError(err, "find open session")
	}
	return model.ToDomain(), nil
}

// FindByScopeAndDate returns the session for one business day
func (r *GormQuickSalesRepository) FindByScopeAndDate(ctx context.Context, scope, businessDate string) (*quicksales.Session, error) {
	var model models.QuickSalesSessionModel
	if err := r.db.WithContext(ctx).
		Where("scope = ? AND business_date = ?", scope, businessDate).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find session by date")
	}
	return model.ToDomain(), nil
}

// Create inserts a new session
func (r *GormQuickSalesRepository) Create(ctx context.Context, s *quicksales.Session) error {
	model := models.QuickSalesSessionModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrConcurrentOpenSession.
				WithDetail("scope", s.Scope).
				WithDetail("business_date", s.BusinessDate)
		}
		return translateError(err, "create session")
	}
	return nil
}

// IncrementTotals adds to the running aggregates while the session is OPEN
func (r *GormQuickSalesRepository) IncrementTotals(ctx context.Context, sessionID uuid.UUID, lines int64, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.QuickSalesSessionModel{}).
		Where("id = ? AND status = ?", sessionID, quicksales.SessionStatusOpen).
		UpdateColumns(map[string]any{
			"total_lines":  gorm.Expr("total_lines + ?", lines),
			"total_amount": gorm.Expr("total_amount + ?", amount),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, translateError(result.Error, "update session totals")
	}
	return result.RowsAffected == 1, nil
}

// MarkClosed writes the close fields of s while the stored row is still OPEN
func (r *GormQuickSalesRepository) MarkClosed(ctx context.Context, s *quicksales.Session) (bool, error) {
	var closedAt *time.Time
	if s.ClosedAt != nil {
		at := s.ClosedAt.UTC()
		closedAt = &at
	}
	result := r.db.WithContext(ctx).Model(&models.QuickSalesSessionModel{}).
		Where("id = ? AND status = ?", s.ID, quicksales.SessionStatusOpen).
		UpdateColumns(map[string]any{
			"status":     s.Status,
			"closed_at":  closedAt,
			"closed_by":  s.ClosedBy,
			"note":       s.Note,
			"invoice_id": s.InvoiceID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": s.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return false, translateError(result.Error, "close session")
	}
	return result.RowsAffected == 1, nil
}

// InsertLine inserts l and sets l.ID
func (r *GormQuickSalesRepository) InsertLine(ctx context.Context, l *quicksales.Line) error {
	model := models.QuickSalesLineModelFromDomain(l)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "insert line")
	}
	l.ID = model.ID
	return nil
}

// FindLine finds one line of a session
func (r *GormQuickSalesRepository) FindLine(ctx context.Context, sessionID uuid.UUID, lineID int64) (*quicksales.Line, error) {
	var model models.QuickSalesLineModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, lineID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find line")
	}
	line := model.ToDomain()
	return &line, nil
}

// DeleteLine removes one line of a session
func (r *GormQuickSalesRepository) DeleteLine(ctx context.Context, sessionID uuid.UUID, lineID int64) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, lineID).
		Delete(&models.QuickSalesLineModel{})
	if result.Error != nil {
		return translateError(result.Error, "delete line")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Line %d not found in session", lineID)
	}
	return nil
}

// FindLines returns up to limit lines with id > afterID in id order
func (r *GormQuickSalesRepository) FindLines(ctx context.Context, sessionID uuid.UUID, afterID int64, limit int) ([]quicksales.Line, error) {
	query := r.db.WithContext(ctx).Where("session_id = ? AND id > ?", sessionID, afterID).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.QuickSalesLineModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "list lines")
	}
	lines := make([]quicksales.Line, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

// CountLines counts the lines stored for a session
func (r *GormQuickSalesRepository) CountLines(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.QuickSalesLineModel{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "count lines")
	}
	return count, nil
}

// Ensure GormQuickSalesRepository implements SessionRepository
var _ quicksales.SessionRepository = (*GormQuickSalesRepository)(nil)
