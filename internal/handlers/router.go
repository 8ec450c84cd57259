package handlers

import (
	"digimall/internal/middleware"
	"digimall/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Router wires handlers and middleware onto an echo instance.
type Router struct {
	Tenancy *middleware.TenancyMiddleware
	Auth    *middleware.AuthMiddleware
	RBAC    *middleware.RBACMiddleware
	Logger  *zap.Logger

	Health    *HealthHandlers
	Tenants   *TenantHandlers
	Sessions  *AuthHandlers
	Users     *UserHandlers
	Vendors   *VendorHandlers
	Customers *CustomerHandlers
	Taxonomy  *TaxonomyHandlers
	Products  *ProductHandlers
	Orders    *OrderHandlers
}

// Register mounts the health probes and the tenant-scoped /api/v1 API.
func (r *Router) Register(e *echo.Echo) {
	e.GET("/health", r.Health.HealthCheck)
	e.GET("/health/ready", r.Health.ReadinessCheck)

	api := e.Group("/api/v1",
		middleware.VersionHeader(middleware.APIVersion{Version: "v1", Status: "active"}),
		r.Tenancy.ResolveTenant(),
		middleware.AuditMutations(r.Logger),
	)
	authn := r.Auth.Authenticate()
	can := r.RBAC.RequirePermission

	// Authentication
	api.POST("/auth/register", r.Sessions.Register)
	api.POST("/auth/login", r.Sessions.Login)
	api.POST("/auth/refresh", r.Sessions.Refresh)
	api.POST("/auth/logout", r.Sessions.Logout, authn)
	api.GET("/auth/me", r.Sessions.Me, authn)

	// Storefront
	api.GET("/products", r.Products.ListProducts)
	api.GET("/products/:id", r.Products.GetProduct)
	api.GET("/products/slug/:slug", r.Products.GetProductBySlug)
	api.GET("/collections", r.Taxonomy.CollectionTree)
	api.GET("/collections/:slug", r.Taxonomy.GetCollection)
	api.GET("/brands", r.Taxonomy.ListBrands)
	api.GET("/brands/:id", r.Taxonomy.GetBrand)
	api.GET("/attributes", r.Taxonomy.ListAttributes)
	api.GET("/tags", r.Taxonomy.ListTags)

	api.POST("/vendors/apply", r.Vendors.Apply, authn)

	customer := api.Group("/customer", authn)
	customer.GET("/profile", r.Customers.GetProfile)
	customer.PUT("/profile", r.Customers.UpdateProfile)

	orders := api.Group("/orders", authn, can(models.PermOrdersPlace))
	orders.POST("", r.Orders.PlaceOrder)
	orders.GET("", r.Orders.ListOwnOrders)
	orders.GET("/:id", r.Orders.GetOwnOrder)
	orders.POST("/:id/cancel", r.Orders.CancelOwnOrder)

	// Vendor self-service
	vendor := api.Group("/vendor", authn)
	vendor.GET("/profile", r.Vendors.GetOwnProfile)
	vendor.PUT("/profile", r.Vendors.UpdateOwnProfile)

	catalog := vendor.Group("/products", can(models.PermProductsManageOwn))
	catalog.GET("", r.Products.ListOwnProducts)
	catalog.POST("", r.Products.CreateProduct)
	catalog.GET("/export", r.Products.ExportCatalog)
	catalog.GET("/:id", r.Products.GetOwnProduct)
	catalog.PUT("/:id", r.Products.UpdateProduct)
	catalog.DELETE("/:id", r.Products.DeleteProduct)
	catalog.GET("/:id/variants", r.Products.ListVariants)
	catalog.POST("/:id/variants", r.Products.CreateVariant)
	catalog.PUT("/:id/variants/:variantId", r.Products.UpdateVariant)
	catalog.DELETE("/:id/variants/:variantId", r.Products.DeleteVariant)
	catalog.GET("/:id/images", r.Products.ListProductImages)
	catalog.POST("/:id/images", r.Products.UploadProductImage)
	catalog.DELETE("/:id/images/:imageId", r.Products.DeleteProductImage)

	vendorOrders := vendor.Group("/orders", can(models.PermProductsManageOwn))
	vendorOrders.GET("", r.Orders.ListVendorOrders)
	vendorOrders.GET("/:id", r.Orders.GetVendorOrder)

	// Tenant administration
	admin := api.Group("/admin", authn)

	vendors := admin.Group("/vendors", can(models.PermVendorsManage))
	vendors.GET("", r.Vendors.ListVendors)
	vendors.GET("/:id", r.Vendors.GetVendor)
	vendors.POST("/:id/approve", r.Vendors.ApproveVendor)
	vendors.POST("/:id/reject", r.Vendors.RejectVendor)
	vendors.POST("/:id/suspend", r.Vendors.SuspendVendor)
	vendors.POST("/:id/reinstate", r.Vendors.ReinstateVendor)
	admin.GET("/products", r.Products.SearchProducts, can(models.PermVendorsManage))

	taxonomy := admin.Group("", can(models.PermTaxonomyManage))
	taxonomy.POST("/collections", r.Taxonomy.CreateCollection)
	taxonomy.PUT("/collections/:id", r.Taxonomy.UpdateCollection)
	taxonomy.DELETE("/collections/:id", r.Taxonomy.DeleteCollection)
	taxonomy.POST("/brands", r.Taxonomy.CreateBrand)
	taxonomy.PUT("/brands/:id", r.Taxonomy.UpdateBrand)
	taxonomy.DELETE("/brands/:id", r.Taxonomy.DeleteBrand)
	taxonomy.POST("/attributes", r.Taxonomy.CreateAttribute)
	taxonomy.PUT("/attributes/:id", r.Taxonomy.UpdateAttribute)
	taxonomy.DELETE("/attributes/:id", r.Taxonomy.DeleteAttribute)
	taxonomy.POST("/tags", r.Taxonomy.CreateTag)
	taxonomy.PUT("/tags/:id", r.Taxonomy.UpdateTag)
	taxonomy.DELETE("/tags/:id", r.Taxonomy.DeleteTag)

	adminOrders := admin.Group("/orders", can(models.PermOrdersManage))
	adminOrders.GET("", r.Orders.ListOrders)
	adminOrders.GET("/:id", r.Orders.GetOrder)
	adminOrders.POST("/:id/transition", r.Orders.TransitionOrder)

	users := admin.Group("", can(models.PermUsersManage))
	users.GET("/roles", r.Users.ListRoles)
	users.GET("/permissions", r.Users.ListPermissions)
	users.GET("/users/:id/roles", r.Users.GetUserRoles)
	users.POST("/users/:id/roles", r.Users.AssignRole)
	users.DELETE("/users/:id/roles/:role", r.Users.RevokeRole)

	// Platform administration, central domain only
	platform := api.Group("/platform", r.Tenancy.RequirePlatform(), authn, can(models.PermTenantsManage))
	platform.GET("/tenants", r.Tenants.ListTenants)
	platform.POST("/tenants", r.Tenants.CreateTenant)
	platform.GET("/tenants/:id", r.Tenants.GetTenant)
	platform.PUT("/tenants/:id", r.Tenants.UpdateTenant)
	platform.DELETE("/tenants/:id", r.Tenants.DeleteTenant)
	platform.POST("/tenants/:id/activate", r.Tenants.ActivateTenant)
	platform.POST("/tenants/:id/deactivate", r.Tenants.DeactivateTenant)
	platform.POST("/tenants/:id/restore", r.Tenants.RestoreTenant)
}
