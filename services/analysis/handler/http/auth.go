package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	jwtpkg "github.com/railmetrics/ohespeed/internal/pkg/jwt"
	"github.com/railmetrics/ohespeed/internal/utils"
)

// tokenResponse carries an issued bearer token
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Client    string `json:"client"`
}

// IssueToken exchanges a valid API key for a bearer token scoped to the
// analysis API. The API-key middleware has already identified the
// client by the time this runs.
func (h *AnalysisHandler) IssueToken(c echo.Context) error {
	client, ok := c.Get("client").(string)
	if !ok || client == "" {
		return utils.UnauthorizedResponse(c, "Client identity missing")
	}

	token, expiresAt, err := jwtpkg.GenerateToken(client, "operator", h.cfg)
	if err != nil {
		return utils.InternalServerErrorResponse(c, "Failed to issue token")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Token issued", tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Client:    client,
	})
}
