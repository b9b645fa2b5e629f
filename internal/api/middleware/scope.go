package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/core/access"
)

// maxPeekBytes bounds how much of a body the scope guards read.
const maxPeekBytes = 1 << 20

// RequireProjectAccess guards project-scoped routes. The target id comes
// from the projectId route parameter, else the projectId field of a JSON body.
func RequireProjectAccess(policy access.ScopePolicy) echo.MiddlewareFunc {
	return guard("project_scope", func(c echo.Context, a access.Actor) access.Decision {
		id, ok := access.ParseProjectID(targetID(c, "projectId"))
		return policy.ProjectScope(a, id, ok)
	})
}

// RequireActivityAccess guards activity-scoped routes the same way, keyed on activityId.
func RequireActivityAccess(policy access.ScopePolicy) echo.MiddlewareFunc {
	return guard("activity_scope", func(c echo.Context, a access.Actor) access.Decision {
		id, ok := access.ParseActivityID(targetID(c, "activityId"))
		return policy.ActivityScope(a, id, ok)
	})
}

// targetID returns the raw id for name, or nil when the request carries none.
func targetID(c echo.Context, name string) any {
	if v := c.Param(name); v != "" {
		return v
	}
	body := peekJSON(c)
	if body == nil {
		return nil
	}
	return body[name]
}

// peekJSON decodes a JSON object body and restores it for the handler.
func peekJSON(c echo.Context) map[string]any {
	req := c.Request()
	if req.Body == nil || req.ContentLength == 0 {
		return nil
	}
	body := req.Body
	raw, err := io.ReadAll(io.LimitReader(body, maxPeekBytes))
	req.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), body), Closer: body}
	if err != nil || len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil
	}
	return fields
}

// readCloser replays the peeked prefix ahead of the unread body and closes the original.
type readCloser struct {
	io.Reader
	io.Closer
}
