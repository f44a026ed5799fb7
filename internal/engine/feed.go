package engine

import (
	"errors"
	"sync"

	"github.com/roach88/listsync/internal/list"
)

// Feed is an in-memory list.Source.
//
// Emit calls every subscribed handler in subscription order and joins their
// errors, so a rejected event surfaces to whoever emitted it.
type Feed[T any] struct {
	mu       sync.Mutex
	name     string
	handlers []*feedHandler[T]
}

type feedHandler[T any] struct {
	fn func(T) error
}

// NewFeed creates an empty feed.
func NewFeed[T any](name string) *Feed[T] {
	return &Feed[T]{name: name}
}

// Name returns the channel name of the feed.
func (f *Feed[T]) Name() string {
	return f.name
}

// Subscribe implements list.Source.
func (f *Feed[T]) Subscribe(fn func(T) error) list.Subscription {
	h := &feedHandler[T]{fn: fn}
	f.mu.Lock()
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
	return &feedSubscription[T]{feed: f, handler: h}
}

// Emit delivers v to every handler and returns their joined errors.
func (f *Feed[T]) Emit(v T) error {
	f.mu.Lock()
	handlers := make([]*feedHandler[T], len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h.fn(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Listeners returns the number of attached handlers.
func (f *Feed[T]) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func (f *Feed[T]) remove(h *feedHandler[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.handlers {
		if cur == h {
			f.handlers = append(f.handlers[:i:i], f.handlers[i+1:]...)
			return
		}
	}
}

type feedSubscription[T any] struct {
	once    sync.Once
	feed    *Feed[T]
	handler *feedHandler[T]
}

// Unsubscribe detaches the handler. Safe to call more than once.
func (s *feedSubscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s.handler)
	})
}
