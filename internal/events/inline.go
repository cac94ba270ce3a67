package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Inline delivers events to in-process handlers synchronously. It stands in for Kafka
// when no brokers are configured so consumers such as the search indexer still run.
type Inline struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewInline() *Inline {
	return &Inline{handlers: map[string][]Handler{}}
}

func (i *Inline) Subscribe(topic string, h Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.handlers[topic] = append(i.handlers[topic], h)
}

func (i *Inline) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("inline: json.Marshal failed: %w", err)
	}

	i.mu.RLock()
	hs := append([]Handler(nil), i.handlers[topic]...)
	i.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, []byte(key), data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
