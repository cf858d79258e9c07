// Package feed fans document changes out to in-process subscribers.
//
// Stores without a native change feed (SQLite) publish every write here.
// Each change carries the full document, so a subscriber that falls behind
// only needs the newest one: when its buffer is full the oldest queued
// change is dropped instead of blocking the writer.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

const defaultSubscriberCapacity = 16

// Option customizes Broadcaster construction.
type Option func(*Broadcaster)

// WithSubscriberCapacity overrides the buffered channel size per subscriber.
func WithSubscriberCapacity(capacity int) Option {
	return func(b *Broadcaster) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// Broadcaster delivers changes to subscribers keyed by document key.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	capacity    int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New constructs a Broadcaster.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subscribers: map[string]map[*subscriber]struct{}{},
		capacity:    defaultSubscriberCapacity,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers for changes to key. The channel is closed when ctx
// is done or the Broadcaster is closed.
func (b *Broadcaster) Subscribe(ctx context.Context, key string) <-chan storage.Change {
	sub := newSubscriber(b.capacity)

	select {
	case <-b.done:
		sub.close()
		return sub.ch
	default:
	}

	b.mu.Lock()
	if b.subscribers[key] == nil {
		b.subscribers[key] = map[*subscriber]struct{}{}
	}
	b.subscribers[key][sub] = struct{}{}
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.remove(key, sub)
	}()
	return sub.ch
}

// Publish delivers change to every current subscriber of change.Key.
func (b *Broadcaster) Publish(change storage.Change) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers[change.Key]))
	for sub := range b.subscribers[change.Key] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.deliver(change) {
			slog.Debug("Feed subscriber behind, dropped oldest change", "key", change.Key)
		}
	}
}

// Subscribers returns the number of live subscriptions to key.
func (b *Broadcaster) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[key])
}

// Close ends every subscription and waits for their cleanup to finish.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *Broadcaster) remove(key string, sub *subscriber) {
	b.mu.Lock()
	if subs := b.subscribers[key]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subscribers, key)
		}
	}
	b.mu.Unlock()
	sub.close()
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan storage.Change
	closed bool
}

func newSubscriber(capacity int) *subscriber {
	return &subscriber{ch: make(chan storage.Change, capacity)}
}

// deliver queues change, evicting the oldest queued change if the buffer
// is full. It reports whether anything was evicted.
func (s *subscriber) deliver(change storage.Change) (dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for {
		select {
		case s.ch <- change:
			return dropped
		default:
			select {
			case <-s.ch:
				dropped = true
			default:
			}
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
