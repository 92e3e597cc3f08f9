package invalidation

import (
	"context"
)

// StalePublisher is satisfied by *redis.Client.
type StalePublisher interface {
	MarkStale(ctx context.Context, path, scope string) error
}

// RedisSink writes stale markers to Redis and announces them on the invalidation channel.
type RedisSink struct {
	publisher StalePublisher
}

func NewRedisSink(publisher StalePublisher) *RedisSink {
	return &RedisSink{publisher: publisher}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) MarkStale(ctx context.Context, event Event) error {
	return s.publisher.MarkStale(ctx, event.Path, string(event.Scope))
}

// Broadcaster is satisfied by the websocket hub.
type Broadcaster interface {
	Broadcast(path, scope string) error
}

// BroadcastSink pushes stale markers to connected render workers.
type BroadcastSink struct {
	broadcaster Broadcaster
}

func NewBroadcastSink(b Broadcaster) *BroadcastSink {
	return &BroadcastSink{broadcaster: b}
}

func (s *BroadcastSink) Name() string { return "websocket" }

func (s *BroadcastSink) MarkStale(_ context.Context, event Event) error {
	return s.broadcaster.Broadcast(event.Path, string(event.Scope))
}
