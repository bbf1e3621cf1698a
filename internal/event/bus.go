package event

import (
	"context"
	"sync"
)

// Bus is an in-process publisher that fans events out to subscriber
// functions synchronously. Subscribers run on the mutating goroutine, so
// a mutation is fully observed before the call that caused it returns.
type Bus struct {
	mu          sync.RWMutex
	subscribers []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every subsequent event.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

func (b *Bus) Publish(_ context.Context, evt Event) error {
	b.mu.RLock()
	subscribers := make([]func(Event), len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, fn := range subscribers {
		fn(evt)
	}
	return nil
}
