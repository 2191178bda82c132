package regulatory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"go.uber.org/zap"
)

const keyPrefix = "rfq-pricing:duty"

// NewRedisClient connects to redis. Returns nil without error when redis is disabled.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// CachedProvider keeps successful duty lookups in redis for ttl.
// Failures are never cached. Redis errors fall through to the remote lookup.
type CachedProvider struct {
	next    pricing.DutyProvider
	rdb     *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCachedProvider wraps next. A nil rdb or a zero ttl disables caching.
func NewCachedProvider(next pricing.DutyProvider, rdb *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, metrics: m, logger: logger}
}

func (p *CachedProvider) LookupDuty(ctx context.Context, query pricing.DutyQuery) (*pricing.DutyInfo, error) {
	if !p.enabled() {
		p.metrics.DutyLookup("remote")
		return p.next.LookupDuty(ctx, query)
	}

	key := CacheKey(query)
	raw, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var info pricing.DutyInfo
		if jsonErr := json.Unmarshal(raw, &info); jsonErr == nil {
			p.metrics.DutyLookup("cache")
			return &info, nil
		}
		p.logger.Warn("discarding unreadable cached duty rate", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		p.logger.Warn("duty cache read failed", zap.String("key", key), zap.Error(err))
	}

	p.metrics.DutyLookup("remote")
	info, err := p.next.LookupDuty(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(info); err == nil {
		if err := p.rdb.Set(ctx, key, payload, p.ttl).Err(); err != nil {
			p.logger.Warn("duty cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return info, nil
}

func (p *CachedProvider) enabled() bool {
	return p.rdb != nil && p.ttl > 0
}

// CacheKey is tenant scoped since trade agreements differ per importing entity. It carries every
// field the remote lookup is queried with, so category only lookups never share an entry.
func CacheKey(q pricing.DutyQuery) string {
	return strings.Join([]string{
		keyPrefix,
		q.TenantID.String(),
		q.HSCode,
		q.MaterialID,
		string(q.Category),
		string(q.Origin),
		strings.ToUpper(q.Country),
	}, ":")
}
