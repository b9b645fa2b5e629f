package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

// AuthService implements registration, login and token refresh.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenIssuer
	activity ports.ActivityRecorder
	hasher   passwordHasher
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenIssuer, activity ports.ActivityRecorder, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		activity: activity,
		log:      log,
		now:      time.Now,
	}
}

// Register creates a non-admin account and signs the caller in. Admin accounts
// are only created by another admin or from the command line.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	if in.Role == "" {
		in.Role = domain.RoleClient
	}
	if in.Role == domain.RoleAdmin {
		return nil, domain.ErrRoleNotAssignable
	}

	user, err := createUser(ctx, s.users, s.hasher, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.matches(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	if s.activity != nil {
		s.activity.Record(ports.ActivityInput{
			Type:       domain.ActivityLogin,
			Title:      user.Name + " logged in",
			Actor:      memberOf(user),
			OccurredAt: now,
		})
	}

	return s.session(user)
}

func (s *AuthService) Refresh(_ context.Context, user *domain.User) (*ports.Session, error) {
	return s.session(user)
}

func (s *AuthService) session(user *domain.User) (*ports.Session, error) {
	tok, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &ports.Session{Token: tok, ExpiresAt: exp, User: user}, nil
}

// createUser is shared by self-registration and admin-issued creation.
func createUser(ctx context.Context, users ports.UserRepository, hasher passwordHasher, in ports.RegisterInput, now time.Time) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Invalid("Username, email and password are required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, domain.Invalid("role must be one of: admin team client")
	}

	if err := ensureUnique(ctx, users, "", in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := hasher.hash(in.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Username
	}

	return users.Create(ctx, &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		Name:           name,
		PasswordHash:   hash,
		Role:           in.Role,
		Company:        in.Company,
		IsActive:       true,
		ClientProjects: []int64{},
		TeamActivities: []string{},
		Permissions:    domain.DefaultPermissions(in.Role),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// ensureUnique rejects a username or email already held by a user other than selfID.
func ensureUnique(ctx context.Context, users ports.UserRepository, selfID, username, email string) error {
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		if err == nil && u.ID != selfID {
			return domain.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
	}
	if username != "" {
		u, err := users.FindByUsername(ctx, username)
		if err == nil && u.ID != selfID {
			return domain.ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func memberOf(u *domain.User) domain.Member {
	return domain.Member{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: string(u.Role)}
}
