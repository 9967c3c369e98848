// Package event provides the in-process publish/subscribe bus that
// decouples data-layer components from the UI shell reacting to them.
// Delivery is synchronous fan-out to the subscribers current at emit time.
package event

import (
	"sync"
)

// Topics emitted by the data layer.
const (
	// TopicSwitchToHomeStack asks the shell to leave the first-run flow.
	TopicSwitchToHomeStack = "SwitchToHomeStack"

	// TopicUpdateTimeline asks the home timeline to refresh.
	TopicUpdateTimeline = "UpdateTimeline"

	// TopicUpdateList asks list views to reload after a membership change.
	TopicUpdateList = "UpdateList"

	// TopicShowLoader and TopicHideLoader bracket long-running operations.
	TopicShowLoader = "CommonLoader.Show"
	TopicHideLoader = "CommonLoader.Hide"
)

// Handler receives the payload passed to Emit.
type Handler func(payload any)

// Bus is a topic-keyed synchronous event bus.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]Handler
	seq  uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]Handler)}
}

// Subscribe registers fn for topic and returns its unsubscribe func.
// Unsubscribing twice is safe.
func (b *Bus) Subscribe(topic string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	id := b.seq
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Emit delivers payload to every current subscriber of topic, on the
// caller's goroutine, before returning.
func (b *Bus) Emit(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
}
