package classroom

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// codeCacheTTL bounds staleness after a code is regenerated out-of-band.
// Regeneration also invalidates explicitly; the TTL is the backstop.
const codeCacheTTL = 24 * time.Hour

const codeKeyPrefix = "classroom:code:"

// codeCache resolves join codes to classroom IDs through Redis. Every
// operation is best-effort: a cache outage degrades joins to database
// lookups, never to failures.
type codeCache struct {
	client redis.UniversalClient
	log    *slog.Logger
}

func newCodeCache(client redis.UniversalClient, log *slog.Logger) *codeCache {
	return &codeCache{client: client, log: log}
}

func (c *codeCache) resolve(ctx context.Context, code string) (uuid.UUID, bool) {
	if c.client == nil {
		return uuid.Nil, false
	}

	raw, err := c.client.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.WarnContext(ctx, "join code cache read failed", slog.Any("error", err))
		}
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *codeCache) store(ctx context.Context, code string, id uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, codeKeyPrefix+code, id.String(), codeCacheTTL).Err(); err != nil {
		c.log.WarnContext(ctx, "join code cache write failed", slog.Any("error", err))
	}
}

func (c *codeCache) invalidate(ctx context.Context, code string) {
	if c.client == nil || code == "" {
		return
	}
	if err := c.client.Del(ctx, codeKeyPrefix+code).Err(); err != nil {
		c.log.WarnContext(ctx, "join code cache invalidation failed", slog.Any("error", err))
	}
}
