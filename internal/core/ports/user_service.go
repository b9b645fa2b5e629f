package ports

import (
	"context"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
)

// UpdateUserInput is a partial update. Nil fields are not touched.
type UpdateUserInput struct {
	Username       *string
	Email          *string
	Name           *string
	Avatar         *string
	Company        *string
	Password       *string
	Role           *domain.Role
	IsActive       *bool
	ClientProjects *[]int64
	TeamActivities *[]string
	Permissions    *domain.Permissions
}

// AdminFieldsSet reports whether the update touches fields only an admin may change.
func (in UpdateUserInput) AdminFieldsSet() bool {
	return in.Role != nil || in.IsActive != nil || in.ClientProjects != nil ||
		in.TeamActivities != nil || in.Permissions != nil
}

type ListUsersResult struct {
	Users      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type UserService interface {
	List(ctx context.Context, actor access.Actor, filter ListUsersFilter) (*ListUsersResult, error)
	Team(ctx context.Context) ([]*domain.User, error)
	Clients(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, actor access.Actor, id string) (*domain.User, error)
	Create(ctx context.Context, actor access.Actor, in RegisterInput) (*domain.User, error)
	Update(ctx context.Context, actor access.Actor, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
	ToggleStatus(ctx context.Context, actor access.Actor, id string) (*domain.User, error)
}
