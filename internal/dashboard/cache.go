package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dashboard"

// ErrCacheUnavailable wraps Redis failures so callers can serve uncached data.
var ErrCacheUnavailable = errors.New("dashboard: cache unavailable")

// Cache wraps Redis based caching with per-organization version controls.
// A nil Cache, or one without a client, always calls the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(orgID uuid.UUID) string {
	return keyPrefix + ":version:" + orgID.String()
}

// Version returns the organization's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, orgID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(orgID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		ver, err = c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return ver, nil
}

// BuildKey composes the cache key with the organization's current version.
func (c *Cache) BuildKey(ctx context.Context, orgID uuid.UUID, parts ...string) (string, error) {
	base := strings.Join(append([]string{keyPrefix, orgID.String()}, parts...), ":")
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx, orgID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", base, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("dashboard: cache loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}
	return nil
}

// Bump invalidates every cached entry of the organization.
func (c *Cache) Bump(ctx context.Context, orgID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(orgID)).Err()
}
