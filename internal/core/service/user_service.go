package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type UserService struct {
	users  ports.UserRepository
	hasher passwordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log, now: time.Now}
}

func (s *UserService) List(ctx context.Context, actor access.Actor, f ports.ListUsersFilter) (*ports.ListUsersResult, error) {
	if err := access.Decide(actor, domain.RoleAdmin).Err(); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ports.ListUsersResult{
		Users:      users,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: int((total + int64(f.Limit) - 1) / int64(f.Limit)),
	}, nil
}

func (s *UserService) Team(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleTeam)
}

func (s *UserService) Clients(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRoles(ctx, domain.RoleClient)
}

// Get lets users read their own profile and admins read any. The access check
// runs before the lookup.
func (s *UserService) Get(ctx context.Context, actor access.Actor, id string) (*domain.User, error) {
	if actor.ID != id && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrAccessDenied
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, actor access.Actor, in ports.RegisterInput) (*domain.User, error) {
	if err := access.Decide(actor, domain.RoleAdmin).Err(); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleClient
	}
	user, err := createUser(ctx, s.users, s.hasher, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("created_by", actor.ID).Msg("user created")
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor access.Actor, id string, in ports.UpdateUserInput) (*domain.User, error) {
	isAdmin := actor.Role == domain.RoleAdmin
	if actor.ID != id && !isAdmin {
		return nil, domain.ErrAccessDenied
	}
	if in.AdminFieldsSet() && !isAdmin {
		return nil, domain.ErrAccessDenied
	}
	if in.IsActive != nil && !*in.IsActive && actor.ID == id {
		return nil, domain.ErrSelfDeactivate
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, domain.Invalid("role must be one of: admin team client")
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := domain.UserPatch{
		Name:           in.Name,
		Avatar:         in.Avatar,
		Company:        in.Company,
		Role:           in.Role,
		IsActive:       in.IsActive,
		ClientProjects: in.ClientProjects,
		TeamActivities: in.TeamActivities,
		Permissions:    in.Permissions,
	}

	var username, email string
	if in.Username != nil && *in.Username != target.Username {
		username = *in.Username
		patch.Username = in.Username
	}
	if in.Email != nil {
		if e := normalizeEmail(*in.Email); e != target.Email {
			email = e
			patch.Email = &e
		}
	}
	if err := ensureUnique(ctx, s.users, target.ID, username, email); err != nil {
		return nil, err
	}

	if in.Password != nil && *in.Password != "" {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("updated_by", actor.ID).Msg("user updated")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor access.Actor, id string) error {
	if err := selfActionErr(access.SelfAction(actor, id), domain.ErrSelfDelete); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("deleted_by", actor.ID).Msg("user deleted")
	return nil
}

func (s *UserService) ToggleStatus(ctx context.Context, actor access.Actor, id string) (*domain.User, error) {
	if err := selfActionErr(access.SelfAction(actor, id), domain.ErrSelfToggle); err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !target.IsActive
	return s.users.Update(ctx, id, domain.UserPatch{IsActive: &active})
}

func selfActionErr(d access.Decision, selfErr error) error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == access.ReasonSelfAction:
		return selfErr
	default:
		return domain.ErrAccessDenied
	}
}
