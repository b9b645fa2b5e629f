package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/infrastructure/token"
)

func seedIdentity(t *testing.T) (*stubUserRepo, *token.JWTIssuer, *IdentityResolver) {
	t.Helper()
	repo := newStubUserRepo()
	repo.put(&domain.User{ID: "u1", Username: "alice", Role: domain.RoleClient, IsActive: true, PasswordHash: "hash"})
	repo.put(&domain.User{ID: "u2", Username: "bob", Role: domain.RoleTeam, IsActive: false})
	issuer := token.NewJWTIssuer("secret", time.Hour)
	return repo, issuer, NewIdentityResolver(repo, issuer)
}

func bearer(t *testing.T, issuer *token.JWTIssuer, userID string) string {
	t.Helper()
	tok, _, err := issuer.Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func TestIdentityResolver_Success(t *testing.T) {
	_, issuer, r := seedIdentity(t)

	u, err := r.Resolve(context.Background(), bearer(t, issuer, "u1"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID != "u1" || u.Role != domain.RoleClient {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash != "" {
		t.Fatalf("resolved user must not carry the password hash")
	}
}

func TestIdentityResolver_NoToken(t *testing.T) {
	_, _, r := seedIdentity(t)

	for _, h := range []string{"", "   ", "Bearer", "Bearer ", "bearer    "} {
		if _, err := r.Resolve(context.Background(), h); !errors.Is(err, domain.ErrNoToken) {
			t.Fatalf("header %q: expected ErrNoToken, got %v", h, err)
		}
	}
}

func TestIdentityResolver_InvalidToken(t *testing.T) {
	_, issuer, r := seedIdentity(t)

	other := token.NewJWTIssuer("other-secret", time.Hour)
	cases := map[string]string{
		"garbage":       "Bearer not-a-jwt",
		"wrong secret":  bearer(t, other, "u1"),
		"deleted user":  bearer(t, issuer, "u404"),
		"inactive user": bearer(t, issuer, "u2"),
		"basic scheme":  "Basic dXNlcjpwYXNz",
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Resolve(context.Background(), h); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIdentityResolver_StoreFailureIsNotAnAuthError(t *testing.T) {
	repo, issuer, r := seedIdentity(t)
	repo.findErr = errStore

	_, err := r.Resolve(context.Background(), bearer(t, issuer, "u1"))
	if !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if domain.KindOf(err) != domain.KindInfrastructure {
		t.Fatalf("expected infrastructure kind, got %s", domain.KindOf(err))
	}
}

func TestIdentityResolver_MalformedID(t *testing.T) {
	repo, issuer, r := seedIdentity(t)
	repo.findErr = domain.ErrInvalidID

	if _, err := r.Resolve(context.Background(), bearer(t, issuer, "not-hex")); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
