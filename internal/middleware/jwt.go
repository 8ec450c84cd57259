package middleware

import (
	"net/http"

	"digimall/internal/common"
	"digimall/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsKey = "token_claims"

// AuthMiddleware verifies bearer access tokens against the resolved tenant.
type AuthMiddleware struct {
	authService services.AuthService
	logger      *zap.Logger
}

func NewAuthMiddleware(authService services.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, logger: logger}
}

// Authenticate must run after ResolveTenant.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return m.authService.ValidateToken(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(m.bindClaims(next))
	}
}

func (m *AuthMiddleware) bindClaims(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := TokenClaims(c)
		if !ok {
			return common.SendUnauthorizedError(c)
		}

		tenant, ok := CurrentTenant(c)
		if !ok {
			return common.SendUnauthorizedError(c)
		}
		if claims.TenantID != tenant.ID.String() {
			return common.SendForbiddenError(c, "Token was issued for another tenant")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return common.SendUnauthorizedError(c)
		}

		ctx := c.Request().Context()
		revoked, err := m.authService.IsTokenRevoked(ctx, claims.TokenID)
		if err != nil {
			m.logger.Error("token revocation check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, common.CreateErrorResponse("UNAVAILABLE", "Token verification unavailable", nil))
		}
		if revoked {
			return common.SendUnauthorizedError(c)
		}

		ctx = common.WithUserID(ctx, userID)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// TokenClaims returns the verified access token claims for the request.
func TokenClaims(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(claimsKey).(*services.TokenClaims)
	return claims, ok && claims != nil
}
