package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion describes a served API version.
type APIVersion struct {
	Version    string
	Status     string // active, deprecated
	SunsetDate *time.Time
}

// VersionHeader stamps responses with the API version and, for deprecated
// versions, the sunset date.
func VersionHeader(v APIVersion) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", v.Version)
			if v.Status == "deprecated" {
				h.Set("X-API-Deprecated", "true")
				if v.SunsetDate != nil {
					h.Set("X-API-Sunset", v.SunsetDate.Format(time.RFC3339))
				}
			}
			return next(c)
		}
	}
}
