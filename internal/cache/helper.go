package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"glimpse/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: look up key in Redis and
// unmarshal into dest on a hit; on a miss call load, then write the
// loaded value back with the given TTL. Cache failures never fail the
// read, the loader result wins.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client != nil {
		ctx, span := observability.TraceRedisOperation(ctx, "get")
		raw, err := client.Get(ctx, key).Bytes()
		span.End()
		if err == nil {
			if err := json.Unmarshal(raw, dest); err == nil {
				observability.RecordCacheResult("hit")
				return nil
			}
			// Corrupt entry, drop it and fall through to the loader.
			client.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			observability.RecordCacheResult("error")
		}
	}

	observability.RecordCacheResult("miss")
	if err := load(); err != nil {
		return err
	}

	if client != nil {
		if raw, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}
