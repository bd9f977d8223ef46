package auth

import (
	"fmt"

	"github.com/grocerypos/backend/internal/domain/identity"
	"golang.org/x/crypto/bcrypt"
)

// PinHasher hashes and checks operator PINs with bcrypt
type PinHasher struct {
	cost int
}

// NewPinHasher creates a hasher. A cost outside bcrypt's range selects bcrypt.DefaultCost.
func NewPinHasher(cost int) *PinHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PinHasher{cost: cost}
}

// Hash validates and hashes pin
func (h *PinHasher) Hash(pin string) (string, error) {
	if err := identity.ValidatePin(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether pin matches hash
func (h *PinHasher) Verify(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

var _ identity.PinVerifier = (*PinHasher)(nil)
