package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/api/middleware"
	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
)

// ctxActor returns the identity the Authenticate middleware stored. Its
// absence means the route was wired without authentication.
func ctxActor(c echo.Context) (access.Actor, *domain.User, error) {
	a, ok := middleware.ActorFrom(c)
	user := middleware.UserFrom(c)
	if !ok || user == nil {
		return access.Actor{}, nil, domain.ErrNoToken
	}
	return a, user, nil
}

// bind decodes and validates a request body. Any failure is a 400.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusBadRequest {
			return err
		}
		return domain.Invalid("Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.Invalid(err.Error())
	}
	return nil
}

// projectIDParam reads the :projectId route parameter. An unparsable id
// cannot name a project.
func projectIDParam(c echo.Context) (int64, error) {
	id, ok := access.ParseProjectID(c.Param("projectId"))
	if !ok {
		return 0, domain.ErrProjectNotFound
	}
	return id, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}
