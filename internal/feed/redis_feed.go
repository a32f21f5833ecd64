// Package feed carries action change events from the API to the dispatcher.
// Every status update publishes a before/after snapshot pair; the dispatch
// trigger decides whether the transition warrants execution.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"action-dispatch-service/internal/config"
)

// Change is a before/after snapshot of an action's status field.
type Change struct {
	ActionID string `json:"action_id"`
	Before   string `json:"before_status"`
	After    string `json:"after_status"`
}

// RedisFeed is a FIFO change feed backed by a Redis list.
type RedisFeed struct {
	client *redis.Client
	key    string
}

// NewRedisFeed builds a feed client from config.
func NewRedisFeed(cfg config.Config) *RedisFeed {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	key := cfg.FeedKey
	if key == "" {
		key = "actions:changes"
	}
	return &RedisFeed{client: client, key: key}
}

// NewRedisFeedWithClient wires an existing client, used by tests.
func NewRedisFeedWithClient(client *redis.Client, key string) *RedisFeed {
	return &RedisFeed{client: client, key: key}
}

// Publish appends a change event to the feed.
func (f *RedisFeed) Publish(ctx context.Context, ch Change) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return f.client.RPush(ctx, f.key, raw).Err()
}

// Next pops the oldest change event, blocking up to the given duration.
// The second return is false when the feed was empty for the whole window.
func (f *RedisFeed) Next(ctx context.Context, block time.Duration) (Change, bool, error) {
	res, err := f.client.BLPop(ctx, block, f.key).Result()
	if errors.Is(err, redis.Nil) {
		return Change{}, false, nil
	}
	if err != nil {
		return Change{}, false, err
	}
	if len(res) < 2 {
		return Change{}, false, fmt.Errorf("unexpected blpop reply length %d", len(res))
	}
	var ch Change
	if err := json.Unmarshal([]byte(res[1]), &ch); err != nil {
		return Change{}, false, fmt.Errorf("unmarshal change: %w", err)
	}
	return ch, true, nil
}

// Depth returns the number of pending change events.
func (f *RedisFeed) Depth(ctx context.Context) (int64, error) {
	return f.client.LLen(ctx, f.key).Result()
}
