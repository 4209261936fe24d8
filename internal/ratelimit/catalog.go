package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/catalog/internal/config"
)

const (
	keyCatalogClient = "catalog:read:client:%s"
	keySeedLock      = "catalog:seed:lock"
)

// CatalogLimiter throttles catalog reads per client and serializes seeding
// across replicas. A nil *CatalogLimiter allows everything.
type CatalogLimiter struct {
	bucket  *TokenBucket
	locker  *Locker
	rate    float64
	burst   int
	lockTTL time.Duration
}

// NewRedisClient returns nil when rate limiting is disabled.
func NewRedisClient(cfg config.Config) (*redis.Client, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	}), nil
}

func NewCatalogLimiter(cfg config.Config, client *redis.Client) (*CatalogLimiter, error) {
	if client == nil {
		return nil, nil
	}
	return NewCatalogLimiterWithClient(cfg.RateLimit, client)
}

// NewCatalogLimiterWithClient builds a limiter over any redis client, including ring and cluster clients.
func NewCatalogLimiterWithClient(cfg config.RateLimitConfig, client LockClient) (*CatalogLimiter, error) {
	if cfg.CatalogRate <= 0 || cfg.CatalogBurst <= 0 {
		return nil, errors.New("catalog rate limit must be positive")
	}
	lockTTL := cfg.SeedLockTTL
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &CatalogLimiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.CatalogRate,
		burst:   cfg.CatalogBurst,
		lockTTL: lockTTL,
	}, nil
}

func (l *CatalogLimiter) Enabled() bool {
	return l != nil
}

func (l *CatalogLimiter) AllowClient(ctx context.Context, clientID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCatalogClient, strings.TrimSpace(clientID)), l.rate, l.burst)
}

// TryLockSeed returns ok=true without a token when locking is disabled.
func (l *CatalogLimiter) TryLockSeed(ctx context.Context) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, keySeedLock, l.lockTTL)
}

func (l *CatalogLimiter) ReleaseSeed(ctx context.Context, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, keySeedLock, token)
}
