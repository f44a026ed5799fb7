package list

import (
	"cmp"
	"errors"
)

// fakeSource is an in-memory Source that counts attached listeners.
type fakeSource[T any] struct {
	handlers map[int]func(T) error
	next     int
	released int
}

func newFakeSource[T any]() *fakeSource[T] {
	return &fakeSource[T]{handlers: make(map[int]func(T) error)}
}

func (s *fakeSource[T]) Subscribe(h func(T) error) Subscription {
	id := s.next
	s.next++
	s.handlers[id] = h
	return &fakeSubscription[T]{source: s, id: id}
}

func (s *fakeSource[T]) emit(v T) error {
	var errs []error
	for id := 0; id < s.next; id++ {
		if h, ok := s.handlers[id]; ok {
			errs = append(errs, h(v))
		}
	}
	return errors.Join(errs...)
}

func (s *fakeSource[T]) listeners() int {
	return len(s.handlers)
}

type fakeSubscription[T any] struct {
	source *fakeSource[T]
	id     int
	done   bool
}

func (f *fakeSubscription[T]) Unsubscribe() {
	if f.done {
		return
	}
	f.done = true
	delete(f.source.handlers, f.id)
	f.source.released++
}

// fixture wires a list to five fake sources and records every notification.
type fixture struct {
	added, removed, changed, moved *fakeSource[Event[int]]
	loaded                         *fakeSource[any]
	changes                        []Change[int]
	signals                        []any
}

func newFixture() *fixture {
	return &fixture{
		added:   newFakeSource[Event[int]](),
		removed: newFakeSource[Event[int]](),
		changed: newFakeSource[Event[int]](),
		moved:   newFakeSource[Event[int]](),
		loaded:  newFakeSource[any](),
	}
}

func (f *fixture) sources() Sources[int] {
	return Sources[int]{
		Added:   f.added,
		Removed: f.removed,
		Changed: f.changed,
		Moved:   f.moved,
		Loaded:  f.loaded,
	}
}

func (f *fixture) observers() Observers[int] {
	return Observers[int]{
		Added: func(i int, e Entry[int]) {
			f.changes = append(f.changes, Change[int]{Kind: KindAdded, Index: i, ToIndex: NoIndex, Entry: e})
		},
		Removed: func(i int, e Entry[int]) {
			f.changes = append(f.changes, Change[int]{Kind: KindRemoved, Index: i, ToIndex: NoIndex, Entry: e})
		},
		Changed: func(i int, e Entry[int]) {
			f.changes = append(f.changes, Change[int]{Kind: KindChanged, Index: i, ToIndex: NoIndex, Entry: e})
		},
		Moved: func(from, to int, e Entry[int]) {
			f.changes = append(f.changes, Change[int]{Kind: KindMoved, Index: from, ToIndex: to, Entry: e})
		},
		Loaded: func(signal any) {
			f.signals = append(f.signals, signal)
		},
	}
}

func (f *fixture) last() Change[int] {
	return f.changes[len(f.changes)-1]
}

func (f *fixture) totalListeners() int {
	return f.added.listeners() + f.removed.listeners() + f.changed.listeners() +
		f.moved.listeners() + f.loaded.listeners()
}

func values(l *List[int]) []int {
	out := make([]int, 0, l.Len())
	for _, e := range l.All() {
		out = append(out, e.Value)
	}
	return out
}

func change(kind Kind, index int, key string, value int) Change[int] {
	return Change[int]{Kind: kind, Index: index, ToIndex: NoIndex, Entry: Entry[int]{Key: key, Value: value}}
}

func moveChange(from, to int, key string, value int) Change[int] {
	return Change[int]{Kind: KindMoved, Index: from, ToIndex: to, Entry: Entry[int]{Key: key, Value: value}}
}

var intCmp = cmp.Compare[int]
