package middlewares

import (
	"crypto/subtle"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
)

const (
	// APIKeyHeader authenticates interactive API clients.
	APIKeyHeader = "x-api-key"

	// CronSecretHeader authenticates external schedulers hitting the manual
	// engine trigger endpoints.
	CronSecretHeader = "x-cron-secret"
)

// secureCompare compares two strings in a way that is safer against timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func keyAuth(header, secret string) echo.MiddlewareFunc {
	// A missing secret is a server-side misconfiguration, not a client error.
	if secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("auth secret is not configured for this endpoint group"),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(header)
			if token == "" || !secureCompare(token, secret) {
				return response.Unauthorized(c)
			}

			return next(c)
		}
	}
}

// APIKeyAuth guards the interactive API surface.
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	return keyAuth(APIKeyHeader, apiKey)
}

// CronAuth guards the manual engine trigger endpoints. They accept either the
// cron secret or the regular API key, so operators can fire them by hand.
func CronAuth(cronSecret, apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cronSecret != "" && secureCompare(c.Request().Header.Get(CronSecretHeader), cronSecret) {
				return next(c)
			}
			if apiKey != "" && secureCompare(c.Request().Header.Get(APIKeyHeader), apiKey) {
				return next(c)
			}
			return response.Unauthorized(c)
		}
	}
}
