package services

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/datadash-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// waitForSubscriber blocks until the hub's Redis subscription is live.
func waitForSubscriber(t *testing.T, rdb *redis.Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := rdb.PubSubNumSub(context.Background(), CollectionEventChannel).Result()
		if err == nil && counts[CollectionEventChannel] > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("hub never subscribed")
}

func TestStreamHub_FansOutEvents(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewEventBus(rdb)
	hub := NewStreamHub(ctx, bus)
	first, unsubFirst := hub.Subscribe()
	second, unsubSecond := hub.Subscribe()
	defer unsubSecond()
	waitForSubscriber(t, rdb)

	if err := bus.PublishCollected(ctx, CollectionEvent{SourceType: models.SourceWeather, Count: 2}); err != nil {
		t.Fatalf("PublishCollected: %v", err)
	}

	for i, ch := range []<-chan []byte{first, second} {
		select {
		case payload := <-ch:
			if !strings.Contains(string(payload), `"source_type":"weather"`) {
				t.Fatalf("listener %d got %s", i, payload)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("listener %d timed out", i)
		}
	}

	unsubFirst()
	unsubFirst()
	if hub.Listeners() != 1 {
		t.Fatalf("expected 1 listener after unsubscribe, got %d", hub.Listeners())
	}
}
