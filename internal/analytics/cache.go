package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "bizdash:analytics:version"
	// BumpChannel carries the new version after every record mutation.
	BumpChannel = "bizdash.records.bump"
)

// Cache memoizes aggregation results in Redis under keys that embed a
// snapshot version. Bumping the version orphans every earlier entry.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache. A nil client disables memoization.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current snapshot version, starting at 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		// SetNX so concurrent first readers agree on the version.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	case err != nil:
		return 0, err
	case ver <= 0:
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return ver, nil
}

// BuildKey joins the scope parts and appends the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	scope := strings.Join(append([]string{"bizdash", "analytics"}, parts...), ":")
	if !c.enabled() {
		return scope, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return scope + ":v" + strconv.FormatInt(ver, 10), nil
}

// Bump advances the snapshot version and announces it on BumpChannel.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version announcements from other processes
// until ctx is done. A version lower than the local one is ignored.
func (c *Cache) ListenForInvalidation(ctx context.Context, logger *slog.Logger) {
	if !c.enabled() {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				announced, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					logger.Warn("ignore malformed cache bump", slog.String("payload", msg.Payload))
					continue
				}
				local, err := c.Version(ctx)
				if err != nil || announced <= local {
					continue
				}
				if err := c.client.Set(ctx, cacheVersionKey, announced, 0).Err(); err != nil {
					logger.Warn("apply cache bump", slog.Any("error", err))
				}
			}
		}
	}()
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// partial results were computed with some inputs missing and are not stored.
type partial interface {
	Partial() bool
}

// Memoize returns the cached value for scope or computes and stores it.
// Cache failures are logged and fall through to load, so a Redis outage
// only costs recomputation.
func Memoize[T any](ctx context.Context, c *Cache, logger *slog.Logger, scope []string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}
	if logger == nil {
		logger = slog.Default()
	}
	key, err := c.BuildKey(ctx, scope...)
	if err != nil {
		logger.Warn("analytics cache unavailable", slog.Any("error", err))
		return load(ctx)
	}
	var cached T
	hit, err := c.get(ctx, key, &cached)
	if err != nil {
		logger.Warn("analytics cache read", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return cached, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if p, ok := any(value).(partial); ok && p.Partial() {
		return value, nil
	}
	if err := c.put(ctx, key, value); err != nil {
		logger.Warn("analytics cache write", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}
