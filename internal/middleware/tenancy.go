package middleware

import (
	"errors"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tenantKey = "tenant"

// TenancyMiddleware resolves the storefront tenant from the Host header.
type TenancyMiddleware struct {
	tenantService services.TenantService
	logger        *zap.Logger
}

func NewTenancyMiddleware(tenantService services.TenantService, logger *zap.Logger) *TenancyMiddleware {
	return &TenancyMiddleware{tenantService: tenantService, logger: logger}
}

// ResolveTenant initializes the tenancy context. Unknown, inactive and
// deleted tenants all answer 404.
func (m *TenancyMiddleware) ResolveTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			tenant, err := m.tenantService.Resolve(req.Context(), req.Host)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.SendNotFoundError(c, "Tenant")
				}
				m.logger.Error("tenant resolution failed", zap.String("host", req.Host), zap.Error(err))
				return common.SendServerError(c, "Failed to resolve tenant")
			}

			c.Set(tenantKey, tenant)
			c.SetRequest(req.WithContext(common.WithTenantID(req.Context(), tenant.ID)))
			return next(c)
		}
	}
}

// RequirePlatform limits a route group to the platform tenant's domain.
func (m *TenancyMiddleware) RequirePlatform() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant, ok := CurrentTenant(c)
			if !ok || !tenant.IsPlatform {
				return common.SendNotFoundError(c, "Resource")
			}
			return next(c)
		}
	}
}

// CurrentTenant returns the tenant resolved for this request.
func CurrentTenant(c echo.Context) (*models.Tenant, bool) {
	tenant, ok := c.Get(tenantKey).(*models.Tenant)
	return tenant, ok && tenant != nil
}
