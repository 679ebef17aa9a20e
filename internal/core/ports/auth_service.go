package ports

import (
	"context"
	"time"

	"github.com/mmp/docrepo/internal/core/domain"
)

// AuthService issues and revokes bearer tokens.
type AuthService interface {
	Login(ctx context.Context, name, password string) (string, *domain.User, error)
	// Logout revokes the token identified by tokenID until expiresAt.
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// TokenRevocations is the revocation list consulted on every authenticated
// request.
type TokenRevocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
