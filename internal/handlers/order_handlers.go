package handlers

import (
	"net/http"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
)

// OrderHandlers handles customer, vendor and admin order requests
type OrderHandlers struct {
	orderService services.OrderService
}

func NewOrderHandlers(orderService services.OrderService) *OrderHandlers {
	return &OrderHandlers{orderService: orderService}
}

type transitionRequest struct {
	Status string `json:"status"`
}

func parseOrderFilter(c echo.Context) (models.OrderSearchFilter, error) {
	limit, offset, err := pagination(c)
	if err != nil {
		return models.OrderSearchFilter{}, err
	}
	filter := models.OrderSearchFilter{
		Status: c.QueryParam("status"),
		Limit:  limit,
		Offset: offset,
	}
	if filter.CustomerID, err = queryUUID(c, "customer_id"); err != nil {
		return filter, err
	}
	if filter.VendorID, err = queryUUID(c, "vendor_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

func orderList(c echo.Context, orders []*models.Order, total int, filter models.OrderSearchFilter) error {
	return c.JSON(http.StatusOK, ListResponse{Items: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// PlaceOrder handles POST /orders
func (h *OrderHandlers) PlaceOrder(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	_, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	var req services.PlaceOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.Place(c.Request().Context(), tenant, userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOwnOrders handles GET /orders
func (h *OrderHandlers) ListOwnOrders(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	orders, total, err := h.orderService.ListForCustomer(c.Request().Context(), tenantID, userID, filter)
	if err != nil {
		return err
	}
	return orderList(c, orders, total, filter)
}

// GetOwnOrder handles GET /orders/:id
func (h *OrderHandlers) GetOwnOrder(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.GetForCustomer(c.Request().Context(), tenantID, userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// CancelOwnOrder handles POST /orders/:id/cancel
func (h *OrderHandlers) CancelOwnOrder(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	_, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.CancelForCustomer(c.Request().Context(), tenant, userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ListVendorOrders handles GET /vendor/orders
func (h *OrderHandlers) ListVendorOrders(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	orders, total, err := h.orderService.ListForVendor(c.Request().Context(), tenantID, userID, filter)
	if err != nil {
		return err
	}
	return orderList(c, orders, total, filter)
}

// GetVendorOrder handles GET /vendor/orders/:id
func (h *OrderHandlers) GetVendorOrder(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.GetForVendor(c.Request().Context(), tenantID, userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /admin/orders
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	orders, total, err := h.orderService.List(c.Request().Context(), tenantID, filter)
	if err != nil {
		return err
	}
	return orderList(c, orders, total, filter)
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.GetByID(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// TransitionOrder handles POST /admin/orders/:id/transition
func (h *OrderHandlers) TransitionOrder(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(req.Status, "status"); err != nil {
		return common.FieldError("status", err.Error())
	}

	order, err := h.orderService.Transition(c.Request().Context(), tenant, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
