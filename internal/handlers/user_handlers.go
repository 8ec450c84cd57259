package handlers

import (
	"net/http"

	"digimall/internal/common"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers lets tenant admins manage role assignments.
type UserHandlers struct {
	rbacService services.RBACService
}

func NewUserHandlers(rbacService services.RBACService) *UserHandlers {
	return &UserHandlers{rbacService: rbacService}
}

type roleRequest struct {
	Role string `json:"role"`
}

// UserRolesResponse lists a user's roles and effective permissions
type UserRolesResponse struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ListRoles handles GET /admin/roles
func (h *UserHandlers) ListRoles(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	roles, err := h.rbacService.ListRoles(c.Request().Context(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// ListPermissions handles GET /admin/permissions
func (h *UserHandlers) ListPermissions(c echo.Context) error {
	permissions, err := h.rbacService.ListPermissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissions)
}

// GetUserRoles handles GET /admin/users/:id/roles
func (h *UserHandlers) GetUserRoles(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	roles, err := h.rbacService.GetUserRoles(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	permissions, err := h.rbacService.GetUserPermissions(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserRolesResponse{Roles: roles, Permissions: permissions})
}

// AssignRole handles POST /admin/users/:id/roles
func (h *UserHandlers) AssignRole(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.rbacService.AssignRole(c.Request().Context(), tenantID, userID, req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole handles DELETE /admin/users/:id/roles/:role
func (h *UserHandlers) RevokeRole(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.rbacService.RevokeRole(c.Request().Context(), tenantID, userID, c.Param("role")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
