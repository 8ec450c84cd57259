package middleware

import (
	"net/http"
	"time"

	"digimall/internal/common"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger logs every request through zap with the tenant and user
// attached when the tenancy context and authentication ran.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("user_agent", v.UserAgent),
			}
			fields = append(fields, requestIdentity(c)...)
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			logger.Log(levelForStatus(v.Status), "request", fields...)
			return nil
		},
	})
}

// AuditMutations records state-changing requests made by authenticated users.
func AuditMutations(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return err
			}
			if _, ok := common.GetUserIDFromContext(c.Request().Context()); !ok {
				return err
			}

			fields := append(requestIdentity(c),
				zap.String("action", method+" "+c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			logger.Info("audit", fields...)
			return err
		}
	}
}

func requestIdentity(c echo.Context) []zap.Field {
	var fields []zap.Field
	ctx := c.Request().Context()
	if tenantID, ok := common.GetTenantIDFromContext(ctx); ok {
		fields = append(fields, zap.String("tenant_id", tenantID.String()))
	}
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		fields = append(fields, zap.String("user_id", userID.String()))
	}
	return fields
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
