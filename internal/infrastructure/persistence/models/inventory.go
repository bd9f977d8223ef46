package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// StockMovementModel is one ledger row. The bigint identity is the insertion
// sequence used to break created_at ties.
type StockMovementModel struct {
	ID            int64                   `gorm:"primaryKey;autoIncrement"`
	ProductID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_stock_movements_product_time,priority:1"`
	MovementType  inventory.MovementType  `gorm:"type:varchar(20);not null"`
	ReferenceType inventory.ReferenceType `gorm:"type:varchar(20);not null;index:idx_stock_movements_reference,priority:1"`
	ReferenceID   string                  `gorm:"type:varchar(64);not null;index:idx_stock_movements_reference,priority:2"`
	Quantity      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	UnitCost      *decimal.Decimal        `gorm:"type:decimal(18,4)"`
	Note          string                  `gorm:"type:varchar(500)"`
	OperatorID    *uuid.UUID              `gorm:"type:uuid"`
	RequestID     string                  `gorm:"type:varchar(64)"`
	CreatedAt     time.Time               `gorm:"not null;index:idx_stock_movements_product_time,priority:2"`

	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:            m.ID,
		ProductID:     m.ProductID,
		MovementType:  m.MovementType,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		Note:          m.Note,
		OperatorID:    m.OperatorID,
		RequestID:     m.RequestID,
		CreatedAt:     m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
// The ID is left to the database.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ProductID:     mv.ProductID,
		MovementType:  mv.MovementType,
		ReferenceType: mv.ReferenceType,
		ReferenceID:   mv.ReferenceID,
		Quantity:      mv.Quantity,
		UnitCost:      mv.UnitCost,
		Note:          mv.Note,
		OperatorID:    mv.OperatorID,
		RequestID:     mv.RequestID,
		CreatedAt:     mv.CreatedAt.UTC(),
	}
}
