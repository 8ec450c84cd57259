package handlers

import (
	"net/http"

	"digimall/internal/common"
	"digimall/internal/middleware"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles storefront authentication
type AuthHandlers struct {
	authService services.AuthService
}

func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned on customer sign-up
type RegisterResponse struct {
	User  *models.User          `json:"user"`
	Token *models.TokenResponse `json:"token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /auth/register
func (h *AuthHandlers) Register(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}

	var req services.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Register(c.Request().Context(), tenantID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, RegisterResponse{User: user, Token: token})
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}

	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	v := common.NewValidationError()
	v.Check("email", common.ValidateRequiredString(req.Email, "email"))
	v.Check("password", common.ValidateRequiredString(req.Password, "password"))
	if err := v.OrNil(); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), tenantID, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}

	var req models.RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.GrantType != "" && req.GrantType != "refresh_token" {
		return common.FieldError("grant_type", "grant_type must be refresh_token")
	}

	token, err := h.authService.RefreshToken(c.Request().Context(), tenantID, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// Logout handles POST /auth/logout
func (h *AuthHandlers) Logout(c echo.Context) error {
	claims, ok := middleware.TokenClaims(c)
	if !ok {
		return common.ErrUnauthorized
	}

	var req logoutRequest
	if c.Request().ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}

	if err := h.authService.Logout(c.Request().Context(), claims, req.RefreshToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandlers) Me(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}

	profile, err := h.authService.Me(c.Request().Context(), tenantID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
