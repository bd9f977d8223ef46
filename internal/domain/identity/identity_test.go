package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainVerifier struct{}

func (plainVerifier) Verify(hash, pin string) bool { return hash == "h:"+pin }

func TestRolePermissions(t *testing.T) {
	cashier := NewActor(uuid.New(), "ana", RoleCashier)
	manager := NewActor(uuid.New(), "budi", RoleManager)

	assert.True(t, cashier.HasPermission(PermQuickSalesSell))
	assert.False(t, cashier.HasPermission(PermQuickSalesClose))
	assert.False(t, cashier.HasPermission(PermSalesReturn))
	assert.True(t, manager.HasPermission(PermQuickSalesClose))
	assert.True(t, manager.HasPermission(PermReportValuation))
	assert.False(t, Actor{}.HasPermission(PermStockView))
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	perms := PermissionsFor(RoleCashier)
	perms[0] = "tampered"
	assert.Equal(t, PermQuickSalesSell, PermissionsFor(RoleCashier)[0])
}

func TestOperator_VerifyPin(t *testing.T) {
	op, err := NewOperator(" Budi ", "Budi S", RoleManager, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "budi", op.Username)

	assert.False(t, op.VerifyPin(plainVerifier{}, "1234"), "no PIN set yet")

	op.SetPinHash("h:1234", time.Now())
	assert.True(t, op.VerifyPin(plainVerifier{}, "1234"))
	assert.False(t, op.VerifyPin(plainVerifier{}, "0000"))
	assert.False(t, op.VerifyPin(plainVerifier{}, ""))

	op.IsActive = false
	assert.False(t, op.VerifyPin(plainVerifier{}, "1234"))
}

func TestNewOperator_RejectsUnknownRole(t *testing.T) {
	_, err := NewOperator("x", "X", Role("owner"), time.Now())
	assert.Error(t, err)
}

func TestValidatePin(t *testing.T) {
	for _, pin := range []string{"1234", "00000000"} {
		assert.NoError(t, ValidatePin(pin), pin)
	}
	for _, pin := range []string{"", "123", "123456789", "12a4", "12 4"} {
		assert.Error(t, ValidatePin(pin), pin)
	}
}

func TestOperator_Deactivate(t *testing.T) {
	now := time.Now()
	op, err := NewOperator("ana", "Ana", RoleCashier, now)
	require.NoError(t, err)

	op.Deactivate(now)
	assert.False(t, op.IsActive)
	assert.Equal(t, 2, op.Version)

	op.Deactivate(now)
	assert.Equal(t, 2, op.Version, "deactivating twice is a no-op")
}

func TestOnlyAdminManagesOperators(t *testing.T) {
	assert.True(t, NewActor(uuid.New(), "root", RoleAdmin).HasPermission(PermOperatorManage))
	assert.False(t, NewActor(uuid.New(), "boss", RoleManager).HasPermission(PermOperatorManage))
}
