package handlers

import (
	"context"
	"net/http"

	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandlers serves platform administration of associations.
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

type tenantRequest struct {
	Name       string       `json:"name"`
	Slug       string       `json:"slug"`
	Domain     string       `json:"domain"`
	Theme      models.Theme `json:"theme"`
	Currency   string       `json:"currency"`
	WebhookURL *string      `json:"webhook_url"`
}

func (r *tenantRequest) toModel() *models.Tenant {
	return &models.Tenant{
		Name:       r.Name,
		Slug:       r.Slug,
		Domain:     r.Domain,
		Theme:      r.Theme,
		Currency:   r.Currency,
		WebhookURL: r.WebhookURL,
	}
}

// CreateTenant handles POST /platform/tenants
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	var req tenantRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tenant := req.toModel()
	if err := h.tenantService.Create(c.Request().Context(), tenant); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tenant)
}

// ListTenants handles GET /platform/tenants
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	filter := models.TenantFilter{
		Status:         c.QueryParam("status"),
		Query:          c.QueryParam("q"),
		IncludeDeleted: c.QueryParam("include_deleted") == "true",
		Limit:          limit,
		Offset:         offset,
	}

	tenants, total, err := h.tenantService.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: tenants, Total: total, Limit: limit, Offset: offset})
}

// GetTenant handles GET /platform/tenants/:id
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tenant, err := h.tenantService.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant handles PUT /platform/tenants/:id
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req tenantRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tenant := req.toModel()
	tenant.ID = id
	if err := h.tenantService.Update(c.Request().Context(), tenant); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

// ActivateTenant handles POST /platform/tenants/:id/activate
func (h *TenantHandlers) ActivateTenant(c echo.Context) error {
	return h.statusAction(c, h.tenantService.Activate)
}

// DeactivateTenant handles POST /platform/tenants/:id/deactivate
func (h *TenantHandlers) DeactivateTenant(c echo.Context) error {
	return h.statusAction(c, h.tenantService.Deactivate)
}

// RestoreTenant handles POST /platform/tenants/:id/restore
func (h *TenantHandlers) RestoreTenant(c echo.Context) error {
	return h.statusAction(c, h.tenantService.Restore)
}

// DeleteTenant handles DELETE /platform/tenants/:id (soft delete)
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tenantService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TenantHandlers) statusAction(c echo.Context, action func(ctx context.Context, id uuid.UUID) error) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := action(ctx, id); err != nil {
		return err
	}
	tenant, err := h.tenantService.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}
