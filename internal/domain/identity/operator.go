package identity

import (
	"strings"
	"time"
	"unicode"

	"github.com/grocerypos/backend/internal/domain/shared"
)

// PinVerifier compares a plain PIN with a stored hash
type PinVerifier interface {
	Verify(hash, pin string) bool
}

// Operator is a till user. Managers carry a PIN hash used to authorize closes.
type Operator struct {
	shared.BaseAggregateRoot
	Username    string
	DisplayName string
	Role        Role
	PinHash     string
	IsActive    bool
}

// NewOperator creates an active operator
func NewOperator(username, displayName string, role Role, now time.Time) (*Operator, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(username) > 50 {
		return nil, shared.NewInvalidInputError("Username must be 1-50 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewInvalidInputError("Unknown role %q", role)
	}
	return &Operator{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Username:          username,
		DisplayName:       strings.TrimSpace(displayName),
		Role:              role,
		IsActive:          true,
	}, nil
}

// SetPinHash stores an already hashed PIN
func (o *Operator) SetPinHash(hash string, now time.Time) {
	o.PinHash = hash
	o.Touch(now)
	o.IncrementVersion()
}

// VerifyPin reports whether pin matches the stored hash. Operators without a PIN never match.
func (o *Operator) VerifyPin(v PinVerifier, pin string) bool {
	if !o.IsActive || o.PinHash == "" || pin == "" {
		return false
	}
	return v.Verify(o.PinHash, pin)
}

// Deactivate blocks the operator from logging in and authorizing closes
func (o *Operator) Deactivate(now time.Time) {
	if !o.IsActive {
		return
	}
	o.IsActive = false
	o.Touch(now)
	o.IncrementVersion()
}

// ValidatePin checks the PIN format before it is hashed: 4 to 8 digits
func ValidatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return shared.NewInvalidInputError("PIN must be 4-8 digits")
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return shared.NewInvalidInputError("PIN must be 4-8 digits")
		}
	}
	return nil
}

// Actor returns the principal for this operator
func (o *Operator) Actor() Actor {
	return NewActor(o.ID, o.Username, o.Role)
}
