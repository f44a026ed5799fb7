package list

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// List is the synchronization engine: it owns the materialized sequence and
// applies mutation events to it one at a time.
//
// Thread-safety model: none. A List has a single logical writer (whatever
// delivers its events). Readers on other goroutines must synchronize with
// that writer themselves.
//
// INVARIANTS:
//   - No two entries share a key
//   - A rejected event leaves the sequence untouched
//   - Observers run after the mutation is committed, once per event
type List[V any] struct {
	entries   []Entry[V]
	place     placement[V]
	observers Observers[V]
	subs      subscriptionSet
	loaded    bool
	signal    any
	cfg       config
}

// New creates a sibling-key list. Every added or moved event is placed right
// after the key named by its Hint, or first.
//
// Only sources whose observer is non-nil are subscribed.
func New[V any](src Sources[V], obs Observers[V], opts ...Option) *List[V] {
	return newList(src, obs, siblingPlacement[V]{}, opts)
}

// NewSorted creates a comparator list. Entries are kept in ascending cmp
// order; hints are ignored and moves are derived from value changes.
//
// cmp must be a total order over values.
func NewSorted[V any](src Sources[V], obs Observers[V], cmp func(a, b V) int, opts ...Option) *List[V] {
	if cmp == nil {
		panic("list: NewSorted requires a comparator")
	}
	return newList(src, obs, sortedPlacement[V]{cmp: cmp}, opts)
}

func newList[V any](src Sources[V], obs Observers[V], place placement[V], opts []Option) *List[V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &List[V]{
		place:     place,
		observers: obs,
		cfg:       cfg,
	}
	l.attach(src)

	l.cfg.logger.Debug("list created",
		"sorted", place.ordersByValue(),
		"subscriptions", l.subs.len(),
	)
	return l
}

// Apply runs one event-processing step: resolve, mutate, notify.
//
// The returned Change is the delta that was committed and passed to the
// matching observer. On error nothing was mutated and no observer ran.
func (l *List[V]) Apply(ev Event[V]) (Change[V], error) {
	start := time.Now()

	var (
		ch  Change[V]
		err error
	)
	switch ev.Kind {
	case KindAdded:
		ch, err = l.add(ev)
	case KindRemoved:
		ch, err = l.remove(ev)
	case KindChanged:
		ch, err = l.change(ev)
	case KindMoved:
		ch, err = l.move(ev)
	default:
		err = fmt.Errorf("unknown event kind: %d", ev.Kind)
	}
	if err != nil {
		l.reject(ev, err)
		return Change[V]{}, err
	}

	l.notify(ch)

	if l.cfg.recorder != nil {
		l.cfg.recorder.EventApplied(ev.Kind, time.Since(start))
	}
	l.cfg.logger.Debug("event applied",
		"kind", ev.Kind.String(),
		"key", ev.Entry.Key,
		"index", ch.Index,
		"to", ch.ToIndex,
		"len", len(l.entries),
	)
	return ch, nil
}

func (l *List[V]) add(ev Event[V]) (Change[V], error) {
	if IndexOfKey(l.entries, ev.Entry.Key) >= 0 {
		return Change[V]{}, NewDuplicateKeyError(ev.Entry.Key)
	}
	i, err := l.place.added(l.entries, ev)
	if err != nil {
		return Change[V]{}, err
	}
	l.entries = slices.Insert(l.entries, i, ev.Entry)
	return Change[V]{Kind: KindAdded, Index: i, ToIndex: NoIndex, Entry: ev.Entry}, nil
}

func (l *List[V]) remove(ev Event[V]) (Change[V], error) {
	i := IndexOfKey(l.entries, ev.Entry.Key)
	if i < 0 {
		return Change[V]{}, NewNotFoundError(KindRemoved, ev.Entry.Key)
	}
	removed := l.entries[i]
	l.entries = slices.Delete(l.entries, i, i+1)
	return Change[V]{Kind: KindRemoved, Index: i, ToIndex: NoIndex, Entry: removed}, nil
}

func (l *List[V]) change(ev Event[V]) (Change[V], error) {
	i := IndexOfKey(l.entries, ev.Entry.Key)
	if i < 0 {
		return Change[V]{}, NewNotFoundError(KindChanged, ev.Entry.Key)
	}
	if !l.place.ordersByValue() {
		l.entries[i] = ev.Entry
		return Change[V]{Kind: KindChanged, Index: i, ToIndex: NoIndex, Entry: ev.Entry}, nil
	}
	return l.relocate(i, ev)
}

func (l *List[V]) move(ev Event[V]) (Change[V], error) {
	i := IndexOfKey(l.entries, ev.Entry.Key)
	if i < 0 {
		return Change[V]{}, NewNotFoundError(KindMoved, ev.Entry.Key)
	}
	return l.relocate(i, ev)
}

// relocate moves the entry at from to the destination chosen by the
// placement. A comparator list reports an unmoved entry as a change.
func (l *List[V]) relocate(from int, ev Event[V]) (Change[V], error) {
	to, err := l.place.relocate(l.entries, from, ev)
	if err != nil {
		return Change[V]{}, err
	}

	l.entries = slices.Insert(slices.Delete(l.entries, from, from+1), to, ev.Entry)

	if to == from && l.place.ordersByValue() {
		return Change[V]{Kind: KindChanged, Index: to, ToIndex: NoIndex, Entry: ev.Entry}, nil
	}
	return Change[V]{Kind: KindMoved, Index: from, ToIndex: to, Entry: ev.Entry}, nil
}

// notify dispatches a committed change to its observer, if any.
func (l *List[V]) notify(ch Change[V]) {
	switch ch.Kind {
	case KindAdded:
		if l.observers.Added != nil {
			l.observers.Added(ch.Index, ch.Entry)
		}
	case KindRemoved:
		if l.observers.Removed != nil {
			l.observers.Removed(ch.Index, ch.Entry)
		}
	case KindChanged:
		if l.observers.Changed != nil {
			l.observers.Changed(ch.Index, ch.Entry)
		}
	case KindMoved:
		if l.observers.Moved != nil {
			l.observers.Moved(ch.Index, ch.ToIndex, ch.Entry)
		}
	}
}

func (l *List[V]) reject(ev Event[V], err error) {
	if l.cfg.recorder != nil {
		l.cfg.recorder.EventRejected(ev.Kind, CodeOf(err))
	}
	l.cfg.logger.Error("event rejected",
		"kind", ev.Kind.String(),
		"key", ev.Entry.Key,
		"hint", ev.Hint.String(),
		"error", err,
	)
}

func (l *List[V]) markLoaded(signal any) {
	l.loaded = true
	l.signal = signal
	l.cfg.logger.Debug("load complete", "len", len(l.entries))
	if l.observers.Loaded != nil {
		l.observers.Loaded(signal)
	}
}

// Clear releases every subscription and drops all entries.
// It is idempotent and safe on a list that never subscribed.
func (l *List[V]) Clear() {
	released := l.subs.len()
	l.subs.release()
	l.entries = nil
	l.loaded = false
	l.signal = nil
	l.cfg.logger.Debug("list cleared", "released", released)
}

// Len returns the number of entries.
func (l *List[V]) Len() int {
	return len(l.entries)
}

// At returns the entry at index i. It panics if i is out of range.
func (l *List[V]) At(i int) Entry[V] {
	return l.entries[i]
}

// All iterates entries in order.
func (l *List[V]) All() iter.Seq2[int, Entry[V]] {
	return func(yield func(int, Entry[V]) bool) {
		for i, e := range l.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Entries returns a copy of the sequence.
func (l *List[V]) Entries() []Entry[V] {
	return slices.Clone(l.entries)
}

// Keys returns the keys in order.
func (l *List[V]) Keys() []string {
	keys := make([]string, len(l.entries))
	for i, e := range l.entries {
		keys[i] = e.Key
	}
	return keys
}

// IndexOf returns the index of key, or -1.
func (l *List[V]) IndexOf(key string) int {
	return IndexOfKey(l.entries, key)
}

// Get returns the entry for key.
func (l *List[V]) Get(key string) (Entry[V], bool) {
	i := IndexOfKey(l.entries, key)
	if i < 0 {
		return Entry[V]{}, false
	}
	return l.entries[i], true
}

// Loaded reports whether the load-completion signal has been received.
func (l *List[V]) Loaded() bool {
	return l.loaded
}

// LoadSignal returns the last load-completion payload, uninterpreted.
func (l *List[V]) LoadSignal() any {
	return l.signal
}

// Subscriptions returns the number of attached sources.
func (l *List[V]) Subscriptions() int {
	return l.subs.len()
}

// Sorted reports whether the list orders entries by comparator.
func (l *List[V]) Sorted() bool {
	return l.place.ordersByValue()
}
