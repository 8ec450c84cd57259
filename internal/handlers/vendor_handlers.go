package handlers

import (
	"context"
	"net/http"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// VendorHandlers serves vendor applications, self-service and moderation.
type VendorHandlers struct {
	vendorService services.VendorService
}

func NewVendorHandlers(vendorService services.VendorService) *VendorHandlers {
	return &VendorHandlers{vendorService: vendorService}
}

type vendorRequest struct {
	BusinessName string  `json:"business_name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	ContactEmail string  `json:"contact_email"`
	Phone        *string `json:"phone"`
}

func (r *vendorRequest) toModel() *models.Vendor {
	return &models.Vendor{
		BusinessName: r.BusinessName,
		Slug:         r.Slug,
		Description:  r.Description,
		ContactEmail: r.ContactEmail,
		Phone:        r.Phone,
	}
}

type statusReasonRequest struct {
	Reason string `json:"reason"`
}

// Apply handles POST /vendors/apply
func (h *VendorHandlers) Apply(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	var req vendorRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	vendor := req.toModel()
	if err := h.vendorService.Apply(c.Request().Context(), tenantID, userID, vendor); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, vendor)
}

// GetOwnProfile handles GET /vendor/profile
func (h *VendorHandlers) GetOwnProfile(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	vendor, err := h.vendorService.GetByUserID(c.Request().Context(), tenantID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendor)
}

// UpdateOwnProfile handles PUT /vendor/profile
func (h *VendorHandlers) UpdateOwnProfile(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	var req vendorRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	vendor, err := h.vendorService.UpdateProfile(c.Request().Context(), tenantID, userID, req.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendor)
}

// ListVendors handles GET /admin/vendors
func (h *VendorHandlers) ListVendors(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	filter := models.VendorFilter{
		Status: c.QueryParam("status"),
		Query:  c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	}
	vendors, total, err := h.vendorService.List(c.Request().Context(), tenantID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: vendors, Total: total, Limit: limit, Offset: offset})
}

// GetVendor handles GET /admin/vendors/:id
func (h *VendorHandlers) GetVendor(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	vendor, err := h.vendorService.GetByID(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendor)
}

// ApproveVendor handles POST /admin/vendors/:id/approve
func (h *VendorHandlers) ApproveVendor(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, tenantID, id uuid.UUID, _ string) (*models.Vendor, error) {
		return h.vendorService.Approve(ctx, tenantID, id)
	})
}

// RejectVendor handles POST /admin/vendors/:id/reject
func (h *VendorHandlers) RejectVendor(c echo.Context) error {
	return h.moderate(c, h.vendorService.Reject)
}

// SuspendVendor handles POST /admin/vendors/:id/suspend
func (h *VendorHandlers) SuspendVendor(c echo.Context) error {
	return h.moderate(c, h.vendorService.Suspend)
}

// ReinstateVendor handles POST /admin/vendors/:id/reinstate
func (h *VendorHandlers) ReinstateVendor(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, tenantID, id uuid.UUID, _ string) (*models.Vendor, error) {
		return h.vendorService.Reinstate(ctx, tenantID, id)
	})
}

func (h *VendorHandlers) moderate(c echo.Context, action func(ctx context.Context, tenantID, id uuid.UUID, reason string) (*models.Vendor, error)) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReasonRequest
	if c.Request().ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}

	vendor, err := action(c.Request().Context(), tenantID, id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendor)
}
