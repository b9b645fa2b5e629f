package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const bearerPrefix = "bearer "

// IdentityResolver turns an Authorization header into the acting user.
type IdentityResolver struct {
	users  ports.UserRepository
	tokens ports.TokenIssuer
}

func NewIdentityResolver(users ports.UserRepository, tokens ports.TokenIssuer) *IdentityResolver {
	return &IdentityResolver{users: users, tokens: tokens}
}

// Resolve returns domain.ErrNoToken when no credential was sent and
// domain.ErrInvalidToken for every other credential failure. Store failures are
// passed through wrapped so they surface as infrastructure errors.
func (r *IdentityResolver) Resolve(ctx context.Context, authorization string) (*domain.User, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, domain.ErrNoToken
	}

	userID, err := r.tokens.Verify(raw)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := r.users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidID):
		return nil, domain.ErrInvalidToken
	case err != nil:
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

// bearerToken strips the scheme. A header that carries no token at all,
// including a bare "Bearer", reports ok=false.
func bearerToken(header string) (string, bool) {
	h := strings.TrimSpace(header)
	if h == "" || strings.EqualFold(h, strings.TrimSpace(bearerPrefix)) {
		return "", false
	}
	if len(h) >= len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		h = strings.TrimSpace(h[len(bearerPrefix):])
	}
	return h, h != ""
}
