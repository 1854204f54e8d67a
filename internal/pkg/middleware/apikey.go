package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/railmetrics/ohespeed/internal/pkg/config"
	"github.com/railmetrics/ohespeed/internal/utils"
)

const (
	APIKeyHeader = "X-API-Key"
)

// ClientAPIKeys stores the mapping of client names to their API keys.
// Keys come from the environment so rotation needs no rebuild.
var ClientAPIKeys = map[string]string{
	"ingestion-service": config.GetEnv("INGESTION_SERVICE_API_KEY", ""),
	"reporting-service": config.GetEnv("REPORTING_SERVICE_API_KEY", ""),
	"operator-console":  config.GetEnv("OPERATOR_CONSOLE_API_KEY", ""),
}

// LookupClientByAPIKey returns the client name owning the given key.
func LookupClientByAPIKey(apiKey string) (string, bool) {
	for client, key := range ClientAPIKeys {
		if key != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return client, true
		}
	}
	return "", false
}

// ValidateAPIKey middleware validates the API key for trusted-client access
func ValidateAPIKey(allowedClients ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				return utils.ErrorResponseHandler(c, http.StatusUnauthorized, "API key is required")
			}

			client, ok := LookupClientByAPIKey(apiKey)
			if !ok {
				return utils.ErrorResponseHandler(c, http.StatusUnauthorized, "Invalid API key")
			}

			allowed := len(allowedClients) == 0
			for _, name := range allowedClients {
				if name == client {
					allowed = true
					break
				}
			}
			if !allowed {
				return utils.ErrorResponseHandler(c, http.StatusForbidden, "Client not allowed")
			}

			c.Set("client", client)
			return next(c)
		}
	}
}
