package list

// Subscription is an attached listener on a Source.
// Unsubscribe must be safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Source produces values of one kind and delivers them to subscribed handlers.
//
// The handler's error is the result of the event-processing step; a Source
// must hand it back to whoever produced the value.
type Source[T any] interface {
	Subscribe(handler func(T) error) Subscription
}

// Sources groups the four mutation channels and the load-completion channel.
// Any of them may be nil.
type Sources[V any] struct {
	Added   Source[Event[V]]
	Removed Source[Event[V]]
	Changed Source[Event[V]]
	Moved   Source[Event[V]]
	Loaded  Source[any]
}

// IndexFunc observes an added, removed or changed entry at index.
type IndexFunc[V any] func(index int, entry Entry[V])

// MoveFunc observes an entry moved from one index to another.
type MoveFunc[V any] func(from, to int, entry Entry[V])

// LoadFunc observes the opaque load-completion signal.
type LoadFunc func(signal any)

// Observers holds the optional callbacks of a List.
// A nil callback means its source is never subscribed.
type Observers[V any] struct {
	Added   IndexFunc[V]
	Removed IndexFunc[V]
	Changed IndexFunc[V]
	Moved   MoveFunc[V]
	Loaded  LoadFunc
}

// subscriptionSet releases each acquired subscription exactly once.
type subscriptionSet struct {
	subs []Subscription
}

func (s *subscriptionSet) add(sub Subscription) {
	if sub != nil {
		s.subs = append(s.subs, sub)
	}
}

func (s *subscriptionSet) len() int {
	return len(s.subs)
}

// release detaches every subscription. Calling it again is a no-op.
func (s *subscriptionSet) release() {
	subs := s.subs
	s.subs = nil
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// attach subscribes l to every source whose observer is present.
func (l *List[V]) attach(src Sources[V]) {
	channels := []struct {
		kind     Kind
		source   Source[Event[V]]
		observed bool
	}{
		{KindAdded, src.Added, l.observers.Added != nil},
		{KindRemoved, src.Removed, l.observers.Removed != nil},
		{KindChanged, src.Changed, l.observers.Changed != nil},
		{KindMoved, src.Moved, l.observers.Moved != nil},
	}

	for _, ch := range channels {
		if ch.source == nil || !ch.observed {
			continue
		}
		kind := ch.kind
		l.subs.add(ch.source.Subscribe(func(ev Event[V]) error {
			return l.receive(kind, ev)
		}))
	}

	if src.Loaded != nil && l.observers.Loaded != nil {
		l.subs.add(src.Loaded.Subscribe(func(signal any) error {
			l.markLoaded(signal)
			return nil
		}))
	}
}

// receive normalizes an event arriving on the channel for kind and applies it.
func (l *List[V]) receive(channel Kind, ev Event[V]) error {
	if ev.Kind == 0 {
		ev.Kind = channel
	}
	if ev.Kind != channel {
		err := NewKindMismatchError(channel, ev.Kind, ev.Entry.Key)
		l.reject(ev, err)
		return err
	}
	_, err := l.Apply(ev)
	return err
}
