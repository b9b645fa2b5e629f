package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/infrastructure/db/redis"
)

type stubResolver struct {
	user *domain.User
	err  error
}

func (s stubResolver) Resolve(_ context.Context, authorization string) (*domain.User, error) {
	if authorization == "" {
		return nil, domain.ErrNoToken
	}
	return s.user, s.err
}

var (
	adminUser  = &domain.User{ID: "a1", Role: domain.RoleAdmin, IsActive: true}
	teamUser   = &domain.User{ID: "t1", Role: domain.RoleTeam, IsActive: true, TeamActivities: []string{"act-1"}}
	clientUser = &domain.User{ID: "c1", Role: domain.RoleClient, IsActive: true, ClientProjects: []int64{3, 7}}
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestAuthenticate_StoresActor(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer token")

	called := false
	h := Authenticate(stubResolver{user: clientUser})(func(c echo.Context) error {
		called = true
		a, found := ActorFrom(c)
		if !found || a.ID != "c1" || a.Role != domain.RoleClient {
			t.Fatalf("unexpected actor: %+v (found=%v)", a, found)
		}
		if UserFrom(c) != clientUser {
			t.Fatalf("user not stored")
		}
		return ok(c)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to run with 200, got called=%v code=%d", called, rec.Code)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		header string
		err    error
		want   error
	}{
		{"missing header", "", nil, domain.ErrNoToken},
		{"invalid token", "Bearer bad", domain.ErrInvalidToken, domain.ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/", "")
			if tc.header != "" {
				c.Request().Header.Set(echo.HeaderAuthorization, tc.header)
			}
			h := Authenticate(stubResolver{err: tc.err})(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := h(c); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(domain.RoleAdmin, domain.RoleTeam)

	c, rec := newContext(http.MethodGet, "/", "")
	SetUser(c, teamUser)
	if err := mw(ok)(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("team should pass: err=%v code=%d", err, rec.Code)
	}

	c, _ = newContext(http.MethodGet, "/", "")
	SetUser(c, clientUser)
	if err := mw(ok)(c); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("client should be denied, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/", "")
	if err := mw(ok)(c); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("missing identity should be unauthenticated, got %v", err)
	}
}

func TestRequirePermission(t *testing.T) {
	mw := RequirePermission(access.ManageTasks)

	c, _ := newContext(http.MethodPost, "/", "")
	SetUser(c, &domain.User{ID: "t2", Role: domain.RoleTeam, Permissions: domain.DefaultPermissions(domain.RoleTeam)})
	if err := mw(ok)(c); err != nil {
		t.Fatalf("team default permissions include manage tasks: %v", err)
	}

	c, _ = newContext(http.MethodPost, "/", "")
	SetUser(c, &domain.User{ID: "c2", Role: domain.RoleClient, Permissions: domain.DefaultPermissions(domain.RoleClient)})
	if err := mw(ok)(c); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("client should be denied, got %v", err)
	}
}

func TestRequireProjectAccess_RouteParam(t *testing.T) {
	mw := RequireProjectAccess(access.ScopePolicy{})
	cases := []struct {
		user    *domain.User
		param   string
		allowed bool
	}{
		{clientUser, "7", true},
		{clientUser, "9", false},
		{clientUser, "abc", false},
		{adminUser, "999", true},
		{teamUser, "999", true}, // team is not checked against a project allow-list
	}
	for _, tc := range cases {
		c, _ := newContext(http.MethodGet, "/api/projects/"+tc.param, "")
		c.SetParamNames("projectId")
		c.SetParamValues(tc.param)
		SetUser(c, tc.user)

		err := mw(ok)(c)
		if tc.allowed && err != nil {
			t.Fatalf("%s on %s: expected allow, got %v", tc.user.Role, tc.param, err)
		}
		if !tc.allowed && !errors.Is(err, domain.ErrAccessDenied) {
			t.Fatalf("%s on %s: expected ErrAccessDenied, got %v", tc.user.Role, tc.param, err)
		}
	}
}

func TestRequireProjectAccess_StrictPolicy(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "")
	c.SetParamNames("projectId")
	c.SetParamValues("7")
	SetUser(c, teamUser)

	if err := RequireProjectAccess(access.ScopePolicy{StrictFallthrough: true})(ok)(c); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("strict policy should deny team, got %v", err)
	}
}

func TestRequireProjectAccess_BodyField(t *testing.T) {
	mw := RequireProjectAccess(access.ScopePolicy{})

	for _, body := range []string{`{"projectId":7,"title":"x"}`, `{"projectId":"7"}`} {
		c, _ := newContext(http.MethodPost, "/", body)
		SetUser(c, clientUser)

		h := mw(func(c echo.Context) error {
			// The handler still sees the full body.
			b, _ := io.ReadAll(c.Request().Body)
			if string(b) != body {
				t.Fatalf("body not restored: %q", b)
			}
			return ok(c)
		})
		if err := h(c); err != nil {
			t.Fatalf("body %s: expected allow, got %v", body, err)
		}
	}

	for _, body := range []string{`{"projectId":9}`, `{"title":"no id"}`, `not json`, `{"projectId":7.5}`} {
		c, _ := newContext(http.MethodPost, "/", body)
		SetUser(c, clientUser)
		if err := mw(ok)(c); !errors.Is(err, domain.ErrAccessDenied) {
			t.Fatalf("body %s: expected ErrAccessDenied, got %v", body, err)
		}
	}
}

func TestRequireProjectAccess_LargeBodyRestored(t *testing.T) {
	body := `{"title":"` + strings.Repeat("x", 2*maxPeekBytes) + `","projectId":7}`
	c, _ := newContext(http.MethodPost, "/", body)
	SetUser(c, teamUser)

	var got []byte
	h := RequireProjectAccess(access.ScopePolicy{})(func(c echo.Context) error {
		got, _ = io.ReadAll(c.Request().Body)
		return ok(c)
	})
	if err := h(c); err != nil {
		t.Fatalf("team should pass the project guard: %v", err)
	}
	if len(got) != len(body) || string(got) != body {
		t.Fatalf("handler saw %d of %d body bytes", len(got), len(body))
	}
	if err := c.Request().Body.Close(); err != nil {
		t.Fatalf("close restored body: %v", err)
	}
}

func TestRequireActivityAccess(t *testing.T) {
	mw := RequireActivityAccess(access.ScopePolicy{})

	c, _ := newContext(http.MethodGet, "/", "")
	c.SetParamNames("activityId")
	c.SetParamValues("act-1")
	SetUser(c, teamUser)
	if err := mw(ok)(c); err != nil {
		t.Fatalf("team with act-1 should pass: %v", err)
	}

	c, _ = newContext(http.MethodPost, "/", `{"activityId":"act-2"}`)
	SetUser(c, teamUser)
	if err := mw(ok)(c); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("team without act-2 should be denied, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/", "")
	SetUser(c, clientUser)
	if err := mw(ok)(c); err != nil {
		t.Fatalf("client falls through the activity guard: %v", err)
	}
}

type stubLimiter struct {
	res redis.Result
	err error
}

func (s stubLimiter) Allow(context.Context, string) (redis.Result, error) { return s.res, s.err }

func TestRateLimit(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/auth/login", "")
	err := RateLimit(stubLimiter{res: redis.Result{RetryAfter: 1500 * time.Millisecond}}, "auth", zerolog.Nop())(ok)(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}

	c, rec = newContext(http.MethodPost, "/api/auth/login", "")
	if err := RateLimit(stubLimiter{err: errors.New("down")}, "auth", zerolog.Nop())(ok)(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("limiter failure should fail open: err=%v code=%d", err, rec.Code)
	}

	c, rec = newContext(http.MethodPost, "/api/auth/login", "")
	if err := RateLimit(stubLimiter{res: redis.Result{Allowed: true, Remaining: 4}}, "auth", zerolog.Nop())(ok)(c); err != nil {
		t.Fatalf("allowed request failed: %v", err)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("missing remaining header")
	}
}
