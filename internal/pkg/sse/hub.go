// Package sse fans messages out to in-process subscribers keyed by topic.
// The HTTP layer turns a subscription into a text/event-stream response.
package sse

import (
	"sync"
	"time"
)

const (
	// BufferSize is the per-subscriber backlog before messages are dropped.
	BufferSize = 16
	// UrgentWait bounds how long Publish blocks on a full subscriber for an
	// urgent message.
	UrgentWait = 100 * time.Millisecond
)

type subscriber[T any] struct {
	ch   chan T
	once sync.Once
}

// Hub delivers messages of type T to every subscriber of a topic. Slow
// subscribers lose normal messages rather than block the publisher.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{topics: make(map[string]map[*subscriber[T]]struct{})}
}

// Subscribe returns a receive channel for topic and a cancel func that
// closes it. Cancel is safe to call more than once.
func (h *Hub[T]) Subscribe(topic string) (<-chan T, func()) {
	sub := &subscriber[T]{ch: make(chan T, BufferSize)}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber[T]]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() { h.unsubscribe(topic, sub) }
}

func (h *Hub[T]) unsubscribe(topic string, sub *subscriber[T]) {
	sub.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		delete(h.topics[topic], sub)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
		close(sub.ch)
	})
}

// Publish sends msg to the subscribers of topic and returns how many took it.
func (h *Hub[T]) Publish(topic string, msg T, urgent bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.topics[topic] {
		if offer(sub.ch, msg, urgent) {
			delivered++
		}
	}
	return delivered
}

func offer[T any](ch chan T, msg T, urgent bool) bool {
	select {
	case ch <- msg:
		return true
	default:
	}
	if !urgent {
		return false
	}

	timer := time.NewTimer(UrgentWait)
	defer timer.Stop()
	select {
	case ch <- msg:
		return true
	case <-timer.C:
		return false
	}
}

// Subscribers returns the number of open subscriptions on topic.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
