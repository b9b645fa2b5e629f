package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/api/metrics"
	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

type identityKey struct{}

type identity struct {
	user  *domain.User
	actor access.Actor
}

// Authenticate resolves the Authorization header and stores the acting user
// in the request context. Every failure ends the request.
func Authenticate(resolver ports.IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			user, err := resolver.Resolve(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(authFailureReason(err)).Inc()
				return err
			}
			SetUser(c, user)
			return next(c)
		}
	}
}

// SetUser attaches user as the acting identity of the request.
func SetUser(c echo.Context, user *domain.User) {
	ctx := context.WithValue(c.Request().Context(), identityKey{}, identity{
		user:  user,
		actor: access.ActorFromUser(user),
	})
	c.SetRequest(c.Request().WithContext(ctx))
}

// ActorFrom returns the acting identity. ok is false on unauthenticated routes.
func ActorFrom(c echo.Context) (access.Actor, bool) {
	id, ok := c.Request().Context().Value(identityKey{}).(identity)
	return id.actor, ok
}

// UserFrom returns the full user record resolved for the request, or nil.
func UserFrom(c echo.Context) *domain.User {
	id, _ := c.Request().Context().Value(identityKey{}).(identity)
	return id.user
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return "no_token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	}
	return "error"
}
