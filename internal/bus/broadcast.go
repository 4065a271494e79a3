// Package bus implements the typed broadcast and watch primitives that
// back node output handles and the strategy's play-index/time/cycle
// channels. Broadcast fan-out is grounded on the teacher's
// internal/events.EventBus subscription registry, narrowed from a
// worker-pool dispatcher to a per-handle, publish-ordered fan-out with
// the same "buffer full -> drop, log, count" policy.
package bus

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultCapacity is the bounded channel capacity per OutputHandle
// subscriber, per the data model's OutputHandle invariant.
const DefaultCapacity = 100

// Broadcast is a bounded, publish-ordered fan-out channel. Each
// subscriber gets its own buffered channel; a slow subscriber whose
// buffer is full has its oldest pending message dropped (not the new
// one), so the stream stays current — matching the spec's statement
// that the backtest driver re-emits Trigger every cycle, so a dropped
// message is not fatal.
type Broadcast[T any] struct {
	mu          sync.Mutex
	logger      *zap.Logger
	name        string
	subscribers []chan T
	dropped     uint64
}

// NewBroadcast creates a broadcast channel for diagnostic name (the
// handle's NodeId/HandleId, used only in log lines).
func NewBroadcast[T any](logger *zap.Logger, name string) *Broadcast[T] {
	return &Broadcast[T]{logger: logger, name: name}
}

// Subscribe registers a new subscriber and returns its receive channel.
// Subscriptions created before a Publish always observe that publish;
// this is the mechanism the strategy runtime uses to guarantee no event
// published after subscription is lost beyond buffer bounds.
func (b *Broadcast[T]) Subscribe() <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, DefaultCapacity)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends value to every subscriber in publish order. A full
// subscriber buffer drops its oldest pending value to make room,
// logging a warning; this never blocks the publisher.
func (b *Broadcast[T]) Publish(value T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- value:
		default:
			select {
			case <-ch:
				b.dropped++
				b.logger.Warn("broadcast buffer full, dropped oldest pending message",
					zap.String("handle", b.name),
				)
			default:
			}
			select {
			case ch <- value:
			default:
				// Still full (concurrent drain raced us); skip this subscriber
				// rather than block the publisher.
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcast[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Dropped returns the count of dropped messages across all subscribers,
// for diagnostics.
func (b *Broadcast[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
