package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
)

// LoginRequest contains the credentials an operator signs in with
type LoginRequest struct {
	Username  string `json:"username" binding:"required,max=50"`
	Pin       string `json:"pin" binding:"required,min=4,max=8"`
	RequestID string `json:"-"`
}

// LoginResult contains the issued token and the signed-in operator
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	TokenType   string       `json:"token_type"`
	Operator    OperatorInfo `json:"operator"`
}

// LogoutRequest identifies the token being revoked
type LogoutRequest struct {
	TokenID   string
	ExpiresAt time.Time
	Actor     identity.Actor
	RequestID string
}

// OperatorInfo is the public view of an operator
type OperatorInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	HasPin      bool      `json:"has_pin"`
	Permissions []string  `json:"permissions"`
}

// CreateOperatorRequest registers a new till operator
type CreateOperatorRequest struct {
	Username    string         `json:"username" binding:"required,max=50"`
	DisplayName string         `json:"display_name" binding:"max=100"`
	Role        string         `json:"role" binding:"required,oneof=cashier supervisor manager admin"`
	Pin         string         `json:"pin" binding:"required,min=4,max=8"`
	Actor       identity.Actor `json:"-"`
	RequestID   string         `json:"-"`
}

// SetPinRequest replaces an operator's PIN
type SetPinRequest struct {
	OperatorID uuid.UUID      `json:"-"`
	Pin        string         `json:"pin" binding:"required,min=4,max=8"`
	Actor      identity.Actor `json:"-"`
	RequestID  string         `json:"-"`
}

// DeactivateOperatorRequest blocks an operator and revokes their tokens
type DeactivateOperatorRequest struct {
	OperatorID uuid.UUID
	Actor      identity.Actor
	RequestID  string
}

// ToOperatorInfo converts a domain Operator to OperatorInfo
func ToOperatorInfo(op *identity.Operator) OperatorInfo {
	return OperatorInfo{
		ID:          op.ID,
		Username:    op.Username,
		DisplayName: op.DisplayName,
		Role:        string(op.Role),
		IsActive:    op.IsActive,
		HasPin:      op.PinHash != "",
		Permissions: identity.PermissionsFor(op.Role),
	}
}
