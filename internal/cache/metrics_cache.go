package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"daily-diet/internal/model"
)

// generationTTL exceeds the session cookie lifetime.
const generationTTL = 32 * 24 * time.Hour

// MetricsCache keeps computed meal metrics per session until the next write or the TTL.
type MetricsCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewMetricsCache(client *redisv9.Client, ttl time.Duration) *MetricsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MetricsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *MetricsCache) GetMetrics(ctx context.Context, sessionID string) (*model.MealMetrics, bool, error) {
	raw, err := c.client.Get(ctx, metricsKey(sessionID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get metrics failed: %w", err)
	}

	var metrics model.MealMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached metrics failed: %w", err)
	}
	return &metrics, true, nil
}

func (c *MetricsCache) Generation(ctx context.Context, sessionID string) (int64, error) {
	generation, err := readGeneration(ctx, c.client, sessionID)
	if err != nil {
		return 0, fmt.Errorf("redis get metrics generation failed: %w", err)
	}
	return generation, nil
}

// SetMetrics stores metrics computed at generation. It is a no-op when a write bumped the
// generation in the meantime, including one racing with this call.
func (c *MetricsCache) SetMetrics(ctx context.Context, sessionID string, generation int64, metrics model.MealMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics cache failed: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		current, err := readGeneration(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Set(ctx, metricsKey(sessionID), payload, c.ttl)
			return nil
		})
		return err
	}, generationKey(sessionID))
	if errors.Is(err, redisv9.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set metrics failed: %w", err)
	}
	return nil
}

func (c *MetricsCache) DeleteMetrics(ctx context.Context, sessionID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, generationKey(sessionID))
		pipe.Expire(ctx, generationKey(sessionID), generationTTL)
		pipe.Del(ctx, metricsKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete metrics failed: %w", err)
	}
	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
}

func readGeneration(ctx context.Context, cmd stringGetter, sessionID string) (int64, error) {
	generation, err := cmd.Get(ctx, generationKey(sessionID)).Int64()
	if errors.Is(err, redisv9.Nil) {
		return 0, nil
	}
	return generation, err
}

func metricsKey(sessionID string) string {
	return fmt.Sprintf("meals:metrics:%s", sessionID)
}

func generationKey(sessionID string) string {
	return fmt.Sprintf("meals:metrics:gen:%s", sessionID)
}
