package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/weatherbot/core/logger"
)

// Cache stores decoded forecasts by key. Get reports ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (Forecast, bool, error)
	Set(ctx context.Context, key string, f Forecast, ttl time.Duration) error
}

// RedisCache keeps forecasts as JSON strings in Redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache wraps an existing client. Keys are prefixed with "weather:".
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, prefix: "weather:"}
}

// DialRedis parses url, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (Forecast, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Forecast{}, false, nil
	}
	if err != nil {
		return Forecast{}, false, err
	}
	var f Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return Forecast{}, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return f, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, f Forecast, ttl time.Duration) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

// CachedSource serves forecasts from cache and falls through to next on a
// miss. Cache failures are logged and never surface to the caller.
type CachedSource struct {
	next  Source
	cache Cache
	ttl   time.Duration
}

// NewCachedSource wraps next with cache.
func NewCachedSource(next Source, cache Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, cache: cache, ttl: ttl}
}

// CacheKey normalises a city query: trimmed, lowercased, inner spaces collapsed.
func CacheKey(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}

func (s *CachedSource) Fetch(ctx context.Context, city string) (Forecast, error) {
	key := CacheKey(city)
	if key == "" {
		return s.next.Fetch(ctx, city)
	}

	f, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		logger.Warn(ctx, logger.CompWeather, "cache.lookup", slog.String("city", key), slog.String("err", err.Error()))
	case ok:
		logger.Debug(ctx, logger.CompWeather, "cache.lookup", slog.String("city", key), slog.String("cache", "hit"))
		return f, nil
	default:
		logger.Debug(ctx, logger.CompWeather, "cache.lookup", slog.String("city", key), slog.String("cache", "miss"))
	}

	f, err = s.next.Fetch(ctx, city)
	if err != nil {
		return Forecast{}, err
	}
	if err := s.cache.Set(ctx, key, f, s.ttl); err != nil {
		logger.Warn(ctx, logger.CompWeather, "cache.store", slog.String("city", key), slog.String("err", err.Error()))
	}
	return f, nil
}
