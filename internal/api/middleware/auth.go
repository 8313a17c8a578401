package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

// authErrorKey holds the reason a presented token was not accepted.
const authErrorKey = "auth_error"

var errInvalidToken = domain.Authentication("invalid token")

// Authenticate resolves a bearer token into a principal and attaches it to
// the request context. A missing or unusable token leaves the request
// anonymous; an unusable one is remembered so that RequireRole can answer
// "invalid token" on gated routes while open routes stay reachable.
func Authenticate(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				c.Set(authErrorKey, error(errInvalidToken))
				return next(c)
			}

			p, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				c.Set(authErrorKey, err)
				return next(c)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.ContextWithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

// tokenError returns the error recorded by Authenticate, if any.
func tokenError(c echo.Context) error {
	err, _ := c.Get(authErrorKey).(error)
	return err
}
