// Package redis stores revoked refresh-token IDs in Redis so revocations are
// shared by every server instance and survive restarts.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/taskmgr-api/internal/redact"
	"github.com/phrazzld/taskmgr-api/internal/service/auth"
)

const keyPrefix = "taskmgr:revoked:"

// Denylist implements auth.TokenDenylist with one expiring key per token.
type Denylist struct {
	client *goredis.Client
	logger *slog.Logger
	now    func() time.Time
}

var _ auth.TokenDenylist = (*Denylist)(nil)

// NewDenylist parses url, connects and pings the server.
func NewDenylist(ctx context.Context, url string, logger *slog.Logger) (*Denylist, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Denylist{
		client: client,
		logger: logger.With(slog.String("component", "redis_denylist")),
		now:    time.Now,
	}, nil
}

// Revoke implements auth.TokenDenylist.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, keyPrefix+tokenID, "1", ttl).Err(); err != nil {
		d.logger.Error("failed to revoke token",
			slog.String("token_id", tokenID),
			slog.String("error", redact.Error(err)))
		return err
	}
	return nil
}

// IsRevoked implements auth.TokenDenylist.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping reports whether Redis is reachable.
func (d *Denylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (d *Denylist) Close() error {
	return d.client.Close()
}
