package shared

import (
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
)

// RequirePermission fails with shared.ErrUnauthorized unless actor holds perm.
// The error carries no details about which permission was missing.
func RequirePermission(actor identity.Actor, perm string) error {
	if actor.IsZero() || !actor.HasPermission(perm) {
		return shared.ErrUnauthorized
	}
	return nil
}
