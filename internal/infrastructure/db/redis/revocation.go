package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmp/docrepo/internal/core/ports"
)

// RevocationList records revoked token ids in Redis until the token would
// have expired on its own.
// Key format: revoked:<token_id>
type RevocationList struct {
	client *redis.Client
}

var _ ports.TokenRevocations = (*RevocationList)(nil)

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks tokenID as revoked for ttl.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := l.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return storageError("revoke", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, storageError("revocation check", err)
	}
	return n > 0, nil
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}
