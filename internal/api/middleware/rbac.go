package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/api/metrics"
	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
)

// RequireRole enforces role-based access control. It must run after Authenticate.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return guard("role", func(c echo.Context, a access.Actor) access.Decision {
		return access.Decide(a, roles...)
	})
}

// RequirePermission enforces one flag of the actor's permissions bundle.
func RequirePermission(perm access.Permission) echo.MiddlewareFunc {
	return guard("permission", func(c echo.Context, a access.Actor) access.Decision {
		return access.Can(a, perm)
	})
}

// guard adapts a pure decision into middleware. A request with no identity
// is treated as unauthenticated.
func guard(name string, decide func(echo.Context, access.Actor) access.Decision) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok {
				return domain.ErrNoToken
			}
			d := decide(c, a)
			observe(name, d)
			if err := d.Err(); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func observe(guard string, d access.Decision) {
	result := "allow"
	if !d.Allowed {
		result = string(d.Reason)
	}
	metrics.AccessDecisionsTotal.WithLabelValues(guard, result).Inc()
}
