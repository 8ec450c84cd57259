package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"digimall/internal/common"
	"digimall/internal/middleware"
	"digimall/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListResponse is the envelope for paginated collections.
type ListResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// HTTPErrorHandler renders every error returned by a handler with the
// standard error envelope. Service errors are mapped by kind.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if rerr := respondError(c, logger, err); rerr != nil {
			logger.Error("failed to write error response", zap.Error(rerr))
		}
	}
}

func respondError(c echo.Context, logger *zap.Logger, err error) error {
	var verr *common.ValidationError
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		return common.SendValidationErrors(c, verr.Fields)
	case errors.Is(err, common.ErrNotFound):
		return common.SendNotFoundError(c, "Resource")
	case errors.Is(err, common.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("INSUFFICIENT_STOCK", err.Error(), nil))
	case errors.Is(err, common.ErrHasChildren):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("HAS_CHILDREN", err.Error(), nil))
	case errors.Is(err, common.ErrConflict):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, common.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("INVALID_TRANSITION", err.Error(), nil))
	case errors.Is(err, common.ErrForbidden):
		return common.SendForbiddenError(c, "You do not have access to this resource")
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrNoTenantContext):
		return common.SendUnauthorizedError(c)
	case errors.Is(err, common.ErrRateLimited):
		return common.SendTooManyRequestsError(c)
	case errors.As(err, &herr):
		return c.JSON(herr.Code, common.CreateErrorResponse(codeForStatus(herr.Code), fmt.Sprint(herr.Message), nil))
	}

	logger.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return common.SendServerError(c, "Internal server error")
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "CLIENT_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "SERVER_ERROR"
	}
	return "CLIENT_ERROR"
}

func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return nil
}

// pathID parses a UUID path parameter, answering 400 when malformed.
func pathID(c echo.Context, param string) (uuid.UUID, error) {
	id, err := common.ValidateUUID(c.Param(param), param)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return id, nil
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, common.FieldError(name, name+" must be a valid UUID")
	}
	return &id, nil
}

func pagination(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, common.FieldError("limit", "limit must be an integer")
		}
		limit = n
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, common.FieldError("offset", "offset must be an integer")
		}
		offset = n
	}
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return 0, 0, common.FieldError("offset", err.Error())
	}
	return limit, offset, nil
}

func requestTenant(c echo.Context) (*models.Tenant, error) {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return nil, common.ErrNoTenantContext
	}
	return tenant, nil
}

// requestUser returns the tenant and authenticated user ids.
func requestUser(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	ctx := c.Request().Context()
	tenantID, err := common.RequireTenant(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, common.ErrUnauthorized
	}
	return tenantID, userID, nil
}
