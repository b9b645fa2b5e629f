package ports

import (
	"context"
	"time"

	"github.com/pmhub/project-manager/internal/core/domain"
)

// ListUsersFilter carries query parameters for the admin user listing.
type ListUsersFilter struct {
	Role     domain.Role // optional
	IsActive *bool       // optional
	Search   string      // optional: case-insensitive match on username, name, email
	Page     int         // 1-based
	Limit    int
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByID loads a user without the password hash.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail and FindByUsername include the password hash for verification.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// ListByRoles returns active users holding any of roles, sorted by name.
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]*domain.User, error)
	CountActive(ctx context.Context, roles ...domain.Role) (int64, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// AddClientProject appends projectID to a client's allow-list if absent.
	AddClientProject(ctx context.Context, id string, projectID int64) error
	Delete(ctx context.Context, id string) error
}
