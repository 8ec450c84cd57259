package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission names.
const (
	PermTenantsManage     = "tenants:manage"
	PermTaxonomyManage    = "taxonomy:manage"
	PermVendorsManage     = "vendors:manage"
	PermOrdersManage      = "orders:manage"
	PermProductsManageOwn = "products:manage_own"
	PermOrdersPlace       = "orders:place"
	PermUsersManage       = "users:manage"
)

// Role names.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleVendor     = "vendor"
	RoleCustomer   = "customer"
)

// AllPermissions lists every permission known to the platform.
var AllPermissions = []string{
	PermTenantsManage,
	PermTaxonomyManage,
	PermVendorsManage,
	PermOrdersManage,
	PermProductsManageOwn,
	PermOrdersPlace,
	PermUsersManage,
}

// DefaultTenantRoles are seeded into every non-platform tenant.
var DefaultTenantRoles = map[string][]string{
	RoleAdmin: {
		PermTaxonomyManage, PermVendorsManage, PermOrdersManage,
		PermProductsManageOwn, PermOrdersPlace, PermUsersManage,
	},
	RoleVendor:   {PermProductsManageOwn, PermOrdersPlace},
	RoleCustomer: {PermOrdersPlace},
}

type Permission struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
