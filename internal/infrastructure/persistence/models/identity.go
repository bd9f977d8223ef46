package models

import (
	"github.com/grocerypos/backend/internal/domain/identity"
)

// OperatorModel is the persistence model for the Operator domain entity.
type OperatorModel struct {
	AggregateModel
	Username    string        `gorm:"type:varchar(64);not null;uniqueIndex"`
	DisplayName string        `gorm:"type:varchar(200)"`
	Role        identity.Role `gorm:"type:varchar(20);not null"`
	PinHash     string        `gorm:"type:varchar(100)"`
	IsActive    bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (OperatorModel) TableName() string {
	return "operators"
}

// ToDomain converts the persistence model to a domain Operator entity.
func (m *OperatorModel) ToDomain() *identity.Operator {
	return &identity.Operator{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		Role:              m.Role,
		PinHash:           m.PinHash,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Operator entity.
func (m *OperatorModel) FromDomain(op *identity.Operator) {
	m.FromDomainAggregateRoot(op.BaseAggregateRoot)
	m.Username = op.Username
	m.DisplayName = op.DisplayName
	m.Role = op.Role
	m.PinHash = op.PinHash
	m.IsActive = op.IsActive
}

// OperatorModelFromDomain creates a new persistence model from a domain Operator entity.
func OperatorModelFromDomain(op *identity.Operator) *OperatorModel {
	m := &OperatorModel{}
	m.FromDomain(op)
	return m
}
