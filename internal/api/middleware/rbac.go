package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/autoworks/jobcard-service/internal/api/metrics"
	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/service"
)

// RequireRole rejects the request unless the attached principal holds one of
// roles. It applies the same gate the services run. A rejected bearer token
// is reported as such instead of as a missing principal.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := domain.PrincipalFromContext(c.Request().Context())
			if p == nil {
				if err := tokenError(c); err != nil {
					metrics.AccessDeniedTotal.WithLabelValues("invalid_token").Inc()
					return err
				}
			}
			if err := service.Authorize(p, roles...); err != nil {
				reason := "access_denied"
				if errors.Is(err, domain.ErrNotAuthenticated) {
					reason = "not_authenticated"
				}
				metrics.AccessDeniedTotal.WithLabelValues(reason).Inc()
				return err
			}
			return next(c)
		}
	}
}
