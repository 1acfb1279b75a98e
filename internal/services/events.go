package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/datadash-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// CollectionEventChannel carries one message per source that wrote rows.
	CollectionEventChannel = "datapoints:collected"
	// CacheKeySummary holds the serialized Summary result.
	CacheKeySummary = "datapoints:summary"
)

// CollectionEvent announces freshly written DataPoints.
type CollectionEvent struct {
	RoundID     string            `json:"round_id"`
	SourceType  models.SourceType `json:"source_type"`
	Count       int               `json:"count"`
	CollectedAt time.Time         `json:"collected_at"`
}

// EventBus fans collection events out over Redis and keeps the summary
// cache honest. A nil *EventBus is valid and does nothing.
type EventBus struct {
	Redis *redis.Client
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{Redis: rdb}
}

// PublishCollected drops the cached summary and publishes ev.
func (b *EventBus) PublishCollected(ctx context.Context, ev CollectionEvent) error {
	if b == nil || b.Redis == nil {
		return nil
	}
	if err := b.Redis.Del(ctx, CacheKeySummary).Err(); err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.Redis.Publish(ctx, CollectionEventChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish collection event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription to collection events. Callers must Close it.
func (b *EventBus) Subscribe(ctx context.Context) *redis.PubSub {
	return b.Redis.Subscribe(ctx, CollectionEventChannel)
}
