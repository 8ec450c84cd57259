package middleware

import (
	"digimall/internal/common"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RBACMiddleware struct {
	rbacService services.RBACService
	logger      *zap.Logger
}

func NewRBACMiddleware(rbacService services.RBACService, logger *zap.Logger) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
		logger:      logger,
	}
}

func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			tenantID, err := common.RequireTenant(ctx)
			if err != nil {
				return common.SendUnauthorizedError(c)
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, userID, tenantID, permission)
			if err != nil {
				m.logger.Error("permission check failed",
					zap.String("permission", permission),
					zap.String("user_id", userID.String()),
					zap.Error(err))
				return common.SendServerError(c, "Error checking permission")
			}
			if !hasPermission {
				return common.SendForbiddenError(c, "Insufficient permissions")
			}

			return next(c)
		}
	}
}
