package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware creates a middleware for request logging
func LoggerMiddleware(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Start timer
			start := time.Now()
			path := c.Request().URL.Path
			raw := c.Request().URL.RawQuery

			// Process request
			err := next(c)

			latency := time.Since(start)

			if raw != "" {
				path = path + "?" + raw
			}

			entry := logger.WithFields(logrus.Fields{
				"status":    c.Response().Status,
				"latency":   latency.String(),
				"client_ip": c.RealIP(),
				"method":    c.Request().Method,
				"path":      path,
			})

			// Log with appropriate level based on status code
			switch {
			case c.Response().Status >= 500:
				entry.Error("request failed")
			case c.Response().Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}

			return err
		}
	}
}
