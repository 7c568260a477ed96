package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "praxis:provisioned:"

// Redis is a ProvisionCache shared across processes. Failures degrade to
// cache misses so a Redis outage only costs extra verification queries.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis-backed cache. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) IsProvisioned(ctx context.Context, ns string) bool {
	n, err := r.client.Exists(ctx, keyPrefix+ns).Result()
	if err != nil {
		r.logger.Warn("provision cache read failed", "namespace", ns, "error", err)
		return false
	}
	return n > 0
}

func (r *Redis) MarkProvisioned(ctx context.Context, ns string) {
	if err := r.client.Set(ctx, keyPrefix+ns, "1", r.ttl).Err(); err != nil {
		r.logger.Warn("provision cache write failed", "namespace", ns, "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, ns string) {
	if err := r.client.Del(ctx, keyPrefix+ns).Err(); err != nil {
		r.logger.Warn("provision cache invalidation failed", "namespace", ns, "error", err)
	}
}

var _ ProvisionCache = (*Redis)(nil)
