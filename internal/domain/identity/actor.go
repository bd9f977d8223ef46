package identity

import (
	"slices"

	"github.com/google/uuid"
)

// Role is the operator's job function at the till
type Role string

const (
	RoleCashier    Role = "cashier"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permission codes checked by the application services
const (
	PermQuickSalesSell  = "quick_sales.sell"
	PermQuickSalesClose = "quick_sales.close"
	PermSalesPost       = "sales.post"
	PermSalesReturn     = "sales.return"
	PermStockReceive    = "stock.receive"
	PermStockAdjust     = "stock.adjust"
	PermStockView       = "stock.view"
	PermReportValuation = "report.valuation"
	PermOperatorManage  = "operator.manage"
	PermCatalogManage   = "catalog.manage"
)

var cashierPermissions = []string{PermQuickSalesSell, PermSalesPost, PermStockView}

var rolePermissions = map[Role][]string{
	RoleCashier:    cashierPermissions,
	RoleSupervisor: append(slices.Clone(cashierPermissions), PermSalesReturn, PermStockReceive),
	RoleManager: append(slices.Clone(cashierPermissions),
		PermSalesReturn, PermStockReceive, PermStockAdjust, PermQuickSalesClose, PermReportValuation,
		PermCatalogManage),
	RoleAdmin: append(slices.Clone(cashierPermissions),
		PermSalesReturn, PermStockReceive, PermStockAdjust, PermQuickSalesClose, PermReportValuation,
		PermCatalogManage, PermOperatorManage),
}

// PermissionsFor returns the default permission set for role
func PermissionsFor(role Role) []string {
	return slices.Clone(rolePermissions[role])
}

// Actor is the authenticated principal behind a request
type Actor struct {
	OperatorID  uuid.UUID
	Username    string
	Role        Role
	Permissions []string
}

// NewActor builds an actor carrying the role's default permissions
func NewActor(operatorID uuid.UUID, username string, role Role) Actor {
	return Actor{OperatorID: operatorID, Username: username, Role: role, Permissions: PermissionsFor(role)}
}

// HasPermission reports whether the actor may perform the action guarded by perm
func (a Actor) HasPermission(perm string) bool {
	return slices.Contains(a.Permissions, perm)
}

// IsZero reports whether no operator is behind the actor
func (a Actor) IsZero() bool {
	return a.OperatorID == uuid.Nil
}
