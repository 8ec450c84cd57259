package handlers

import (
	"net/http"

	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers serves the signed-in customer's profile.
type CustomerHandlers struct {
	customerService services.CustomerService
}

func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

type customerRequest struct {
	Phone           *string         `json:"phone"`
	ShippingAddress *models.Address `json:"shipping_address"`
}

// GetProfile handles GET /customer/profile
func (h *CustomerHandlers) GetProfile(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	customer, err := h.customerService.GetProfile(c.Request().Context(), tenantID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateProfile handles PUT /customer/profile
func (h *CustomerHandlers) UpdateProfile(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	var req customerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	update := &models.Customer{Phone: req.Phone, ShippingAddress: req.ShippingAddress}
	customer, err := h.customerService.UpdateProfile(c.Request().Context(), tenantID, userID, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}
