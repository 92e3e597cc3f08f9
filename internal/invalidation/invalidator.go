package invalidation

import (
	"context"
	"sync"

	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
)

// Sink receives stale markers. Implementations: Redis publisher, websocket hub, Recorder.
type Sink interface {
	Name() string
	MarkStale(ctx context.Context, event Event) error
}

// Invalidator is fire-and-forget: sink failures are logged, never returned to the mutation.
type Invalidator struct {
	deps    map[Entity][]View
	sinks   []Sink
	metrics *metrics.StorefrontMetrics
}

// NewInvalidator fans stale markers out to sinks. m may be nil.
func NewInvalidator(m *metrics.StorefrontMetrics, sinks ...Sink) *Invalidator {
	return &Invalidator{deps: Dependencies, sinks: sinks, metrics: m}
}

// Invalidate marks every view depending on targets as stale.
func (i *Invalidator) Invalidate(ctx context.Context, targets ...Target) {
	if i == nil {
		return
	}
	events := Resolve(i.deps, targets...)
	for _, event := range events {
		for _, sink := range i.sinks {
			err := sink.MarkStale(ctx, event)
			i.metrics.ObserveInvalidation(sink.Name(), err)
			if err != nil {
				logger.From(ctx).Warn("Failed to mark view stale", map[string]interface{}{
					"sink":  sink.Name(),
					"path":  event.Path,
					"scope": event.Scope,
					"error": err.Error(),
				})
			}
		}
	}
	logger.From(ctx).Debug("Views marked stale", map[string]interface{}{
		"targets": len(targets),
		"events":  len(events),
	})
}

// Recorder is an in-memory sink, used by tests and as a fallback when no bus is configured.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) MarkStale(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Paths returns the recorded paths in arrival order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.events))
	for _, e := range r.events {
		paths = append(paths, e.Path)
	}
	return paths
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
