package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/domain"
	"github.com/opsagent/reorder/internal/engine"
)

const recommendationKeyPrefix = "reorder:recommendation"

// RecommendationCache memoizes policy output per SKU, evaluation date
// and engine options. Recommendations are pure functions of their
// inputs, so a hit is always valid until the underlying data changes.
type RecommendationCache interface {
	Get(ctx context.Context, sku string, evalDate time.Time, opts engine.Options) (domain.ReorderRecommendation, bool, error)
	Set(ctx context.Context, rec domain.ReorderRecommendation, opts engine.Options) error
	InvalidateAll(ctx context.Context) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationCache struct{}

func NewRecommendationCache(cfg config.CacheConfig) (RecommendationCache, error) {
	if !cfg.Enabled {
		return &noopRecommendationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecommendationCache{client: client, ttl: ttl}, nil
}

func NewNoopRecommendationCache() RecommendationCache {
	return &noopRecommendationCache{}
}

func (c *redisRecommendationCache) Get(ctx context.Context, sku string, evalDate time.Time, opts engine.Options) (domain.ReorderRecommendation, bool, error) {
	key := buildRecommendationKey(sku, evalDate, opts)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return domain.ReorderRecommendation{}, false, nil
	}
	if err != nil {
		return domain.ReorderRecommendation{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.ReorderRecommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.ReorderRecommendation{}, false, fmt.Errorf("decode recommendation cache: %w", err)
	}
	return rec, true, nil
}

func (c *redisRecommendationCache) Set(ctx context.Context, rec domain.ReorderRecommendation, opts engine.Options) error {
	key := buildRecommendationKey(rec.SKU, rec.EvaluationDate, opts)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode recommendation cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, recommendationKeyPrefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (n *noopRecommendationCache) Get(ctx context.Context, sku string, evalDate time.Time, opts engine.Options) (domain.ReorderRecommendation, bool, error) {
	return domain.ReorderRecommendation{}, false, nil
}

func (n *noopRecommendationCache) Set(ctx context.Context, rec domain.ReorderRecommendation, opts engine.Options) error {
	return nil
}

func (n *noopRecommendationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRecommendationKey(sku string, evalDate time.Time, opts engine.Options) string {
	return fmt.Sprintf("%s:%s", recommendationKeyPrefix, optionsHash(sku, evalDate, opts))
}

// optionsHash folds every engine option into the key so different
// parameter sets never share a cache entry.
func optionsHash(sku string, evalDate time.Time, opts engine.Options) string {
	parts := []string{
		"sku=" + strings.TrimSpace(sku),
		"date=" + evalDate.Format("2006-01-02"),
		fmt.Sprintf("window=%d", opts.WindowDays),
		fmt.Sprintf("z=%.4f", opts.ZScore),
		fmt.Sprintf("floor=%.4f", opts.DemandFloor),
		"missing=" + string(opts.MissingDays),
		fmt.Sprintf("inclusive=%t", opts.IncludeEvalDate),
	}

	if len(opts.VolatilityWindows) > 0 {
		windows := append([]int(nil), opts.VolatilityWindows...)
		sort.Ints(windows)
		strs := make([]string, len(windows))
		for i, w := range windows {
			strs[i] = fmt.Sprintf("%d", w)
		}
		parts = append(parts, "volatility="+strings.Join(strs, ","))
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
