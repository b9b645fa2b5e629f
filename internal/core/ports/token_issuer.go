package ports

import "time"

// TokenIssuer signs and verifies bearer tokens bound to a single user id.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	// Verify returns the embedded user id. Every failure is domain.ErrInvalidToken.
	Verify(token string) (userID string, err error)
}
