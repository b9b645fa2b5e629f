package ports

import (
	"context"
	"time"

	"github.com/pmhub/project-manager/internal/core/domain"
)

// RegisterInput carries a self-service or admin-issued account creation.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Company  string
	Role     domain.Role
}

// Session is an issued bearer token and the user it binds to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, user *domain.User) (*Session, error)
}

// IdentityResolver recovers the acting user from an Authorization header value.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) (*domain.User, error)
}
