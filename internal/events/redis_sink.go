package events

import (
	"context"
	"encoding/json"
	"fmt"

	rd "github.com/redis/go-redis/v9"
)

// RedisSink publishes events on a per-auction pub/sub channel for gateway nodes
type RedisSink struct {
	rdb    *rd.Client
	prefix string
}

func NewRedisSink(rdb *rd.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "auction"
	}
	return &RedisSink{rdb: rdb, prefix: prefix}
}

func (s *RedisSink) Name() string { return "redis" }

// Channel returns the pub/sub channel name for an auction
func (s *RedisSink) Channel(auctionID string) string {
	return fmt.Sprintf("%s:%s:events", s.prefix, auctionID)
}

func (s *RedisSink) Deliver(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis sink: marshal event: %w", err)
	}
	return s.rdb.Publish(ctx, s.Channel(evt.AuctionID), b).Err()
}
