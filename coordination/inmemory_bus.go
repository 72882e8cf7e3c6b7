package coordination

import (
	"encoding/json"
	"sync"
)

// InMemoryEventBus is a process-local EventBus, used in tests and as the
// default transport for a single-process deployment that has not wired
// NatsEventBus.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(payload []byte)
}

// NewInMemoryEventBus returns an empty bus.
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{handlers: make(map[string][]func(payload []byte))}
}

func (b *InMemoryEventBus) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.RLock()
	handlers := append([]func([]byte){}, b.handlers[subject]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *InMemoryEventBus) Subscribe(subject string, handler func(payload []byte)) (func() error, error) {
	b.mu.Lock()
	b.handlers[subject] = append(b.handlers[subject], handler)
	idx := len(b.handlers[subject]) - 1
	b.mu.Unlock()

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[subject]
		if idx < len(hs) {
			hs[idx] = func([]byte) {} // no-op out the slot, preserving other indices
		}
		return nil
	}, nil
}

func (b *InMemoryEventBus) Close() {}
