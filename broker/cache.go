package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/market"
)

const (
	DefaultCacheTTL = 12 * time.Hour
	cachePrefix     = "tradeguard:spec:"
)

// RedisCache serves specs from Redis and fills misses from next. A Redis
// outage degrades to calling next directly.
type RedisCache struct {
	client redis.Cmdable
	next   market.SpecProvider
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, next market.SpecProvider, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, next: next, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

func cacheKey(symbol string) string {
	return cachePrefix + market.NormalizeSymbol(symbol)
}

func (r *RedisCache) Spec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	key := cacheKey(symbol)

	val, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s market.SymbolSpec
		if err := json.Unmarshal(val, &s); err == nil && s.Validate() == nil {
			return s, nil
		}
		log.Warn().Str("key", key).Msg("discarding corrupt cached spec")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("key", key).Msg("redis get")
	}

	if r.next == nil {
		return market.SymbolSpec{}, fmt.Errorf("%w: %s not cached", ErrSpecUnavailable, symbol)
	}
	s, err := r.next.Spec(ctx, symbol)
	if err != nil {
		return market.SymbolSpec{}, err
	}

	b, err := json.Marshal(s)
	if err != nil {
		return s, nil
	}
	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis set")
	}
	return s, nil
}

// Invalidate drops a cached spec.
func (r *RedisCache) Invalidate(ctx context.Context, symbol string) error {
	if err := r.client.Del(ctx, cacheKey(symbol)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
