// Package delta publishes value changes to the data bus and fans them out to
// in-process subscribers and websocket clients.
package delta

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/infrastructure/metrics"
	"github.com/wilhelmsk/core/internal/ports"
)

// Bus is the in-process data bus. Subscribers are called synchronously and
// must not block.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]ports.DeltaSubscriber
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewBus creates an empty bus
func NewBus(log *logger.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		subscribers: make(map[string]ports.DeltaSubscriber),
		logger:      log.WithComponent("bus"),
		metrics:     m,
	}
}

var _ ports.DeltaPublisher = (*Bus)(nil)

// Subscribe registers s under id and returns a function that removes it
func (b *Bus) Subscribe(id string, s ports.DeltaSubscriber) func() {
	b.mu.Lock()
	b.subscribers[id] = s
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Subscribers returns the number of registered subscribers
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish hands delta to every subscriber
func (b *Bus) Publish(ctx context.Context, delta entities.Delta) {
	b.mu.RLock()
	subs := make([]ports.DeltaSubscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.HandleDelta(delta)
	}

	b.metrics.DeltaPublished()
	for _, u := range delta.Updates {
		for _, v := range u.Values {
			b.logger.LogDelta(u.Source.Label, v.Path, len(subs))
		}
	}
}

// Emitter turns defaults changes into deltas. Only paths under the local
// vessel are published; the vessel prefix is stripped.
type Emitter struct {
	label string
	bus   ports.DeltaPublisher
	now   func() time.Time
}

// NewEmitter creates an emitter that labels its updates with label
func NewEmitter(label string, bus ports.DeltaPublisher) *Emitter {
	return &Emitter{label: label, bus: bus, now: time.Now}
}

// Emit publishes value at path. A nil value is sent as JSON null, meaning
// the field was removed. It reports whether a delta was sent.
func (e *Emitter) Emit(ctx context.Context, path string, value json.RawMessage) bool {
	if e == nil || e.bus == nil || !entities.IsSelfPath(path) {
		return false
	}
	e.bus.Publish(ctx, entities.NewDelta(e.label, path, value, e.now()))
	return true
}
