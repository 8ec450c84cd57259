package common

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationErrors sends a field-level validation error response
func SendValidationErrors(c echo.Context, details map[string]string) error {
	return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// SendForbiddenError sends a forbidden error response
func SendForbiddenError(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, CreateErrorResponse("FORBIDDEN", message, nil))
}

// SendConflictError sends a conflict error response
func SendConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, CreateErrorResponse("CONFLICT", message, nil))
}

// SendTooManyRequestsError sends a rate limit response
func SendTooManyRequestsError(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, CreateErrorResponse("RATE_LIMITED", "Too many requests", nil))
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s contains invalid characters: %v", fieldName, err)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOptionalString validates optional string fields and trims them in place
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		*value = strings.TrimSpace(*value)
		if len(*value) > maxLength {
			return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
		}
	}
	return nil
}

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	domainPattern   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email, fieldName string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return fmt.Errorf("%s must be a valid email address", fieldName)
	}
	return nil
}

// ValidateSlug validates a URL slug
func ValidateSlug(slug, fieldName string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%s may only contain lowercase letters, digits and hyphens", fieldName)
	}
	return nil
}

// ValidateDomain validates a host name without port
func ValidateDomain(domain, fieldName string) error {
	if strings.TrimSpace(domain) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(domain) > 253 || !domainPattern.MatchString(domain) {
		return fmt.Errorf("%s must be a valid host name", fieldName)
	}
	return nil
}

// ValidateCurrency validates an ISO 4217 currency code
func ValidateCurrency(code, fieldName string) error {
	if !currencyPattern.MatchString(code) {
		return fmt.Errorf("%s must be a 3-letter ISO currency code", fieldName)
	}
	return nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// WithTenantID returns a context carrying the tenant id
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// WithUserID returns a context carrying the user id
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequireTenant returns the tenant from context or ErrNoTenantContext
func RequireTenant(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := GetTenantIDFromContext(ctx)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantContext
	}
	return tenantID, nil
}

const maxFreeTextLength = 5000

// ValidateFreeText checks an optional long text field. The value is stored
// as given; encoding is left to whatever renders it.
func ValidateFreeText(field *string, fieldName string) error {
	if field == nil || *field == "" {
		return nil
	}
	if !utf8.ValidString(*field) {
		return fmt.Errorf("%s must be valid UTF-8", fieldName)
	}
	if utf8.RuneCountInString(*field) > maxFreeTextLength {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxFreeTextLength)
	}
	return nil
}

// SanitizeSearchQuery strips LIKE wildcards from free text search input
func SanitizeSearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	query = strings.ReplaceAll(query, "%", "")
	query = strings.ReplaceAll(query, "_", "")
	if runes := []rune(query); len(runes) > 100 {
		query = string(runes[:100])
	}
	return strings.TrimSpace(query)
}

// ValidateSortOrder validates sort order parameters
func ValidateSortOrder(sortOrder string) string {
	if strings.ToLower(sortOrder) == "asc" {
		return "ASC"
	}
	return "DESC"
}

// ValidatePaginationParams clamps pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}
