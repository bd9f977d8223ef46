package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOperatorRepository implements OperatorRepository using GORM
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewGormOperatorRepository creates a new GormOperatorRepository
func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// FindByID finds an operator by ID
func (r *GormOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Operator, error) {
	var model models.OperatorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find operator")
	}
	return model.ToDomain(), nil
}

// FindByUsername finds an operator by username
func (r *GormOperatorRepository) FindByUsername(ctx context.Context, username string) (*identity.Operator, error) {
	var model models.OperatorModel
	if err := r.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find operator by username")
	}
	return model.ToDomain(), nil
}

// Save creates or updates an operator
func (r *GormOperatorRepository) Save(ctx context.Context, op *identity.Operator) error {
	if err := r.db.WithContext(ctx).Save(models.OperatorModelFromDomain(op)).Error; err != nil {
		return translateError(err, "save operator")
	}
	return nil
}

// Ensure GormOperatorRepository implements OperatorRepository
var _ identity.OperatorRepository = (*GormOperatorRepository)(nil)
