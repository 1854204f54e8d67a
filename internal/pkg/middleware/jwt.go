package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	jwtpkg "github.com/railmetrics/ohespeed/internal/pkg/jwt"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/internal/utils"
)

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Get the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			// Check if the Authorization header has the correct format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return utils.UnauthorizedResponse(c, "Invalid authorization format")
			}

			// Validate the token using our JWT package
			claims, err := jwtpkg.ValidateToken(parts[1], config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			client, ok := (*claims)["client"]
			if !ok {
				return utils.UnauthorizedResponse(c, "Invalid token: missing client claim")
			}

			// Set the client identity in the context
			c.Set("client", client)
			if role, ok := (*claims)["role"]; ok {
				c.Set("client_role", role)
			}

			return next(c)
		}
	}
}
