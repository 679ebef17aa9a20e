package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmp/docrepo/internal/core/domain"
)

const (
	dialTimeout = 5 * time.Second
	// opTimeout bounds each revocation command.
	opTimeout = 2 * time.Second
)

// Config holds the revocation store connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client for the revocation list and pings it once. The
// client is closed again when the ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, storageError("ping", err)
	}
	return client, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", domain.ErrStorage, op, err)
}
