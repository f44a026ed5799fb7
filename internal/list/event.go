package list

import "fmt"

// Entry is a key and an opaque value stored in a List.
type Entry[V any] struct {
	Key   string
	Value V
}

// Kind identifies a mutation event.
type Kind int

const (
	// KindAdded inserts a new entry.
	KindAdded Kind = iota + 1
	// KindRemoved deletes an existing entry.
	KindRemoved
	// KindChanged replaces the value of an existing entry.
	KindChanged
	// KindMoved repositions an existing entry.
	KindMoved
)

// Kinds lists every mutation kind in channel order.
var Kinds = []Kind{KindAdded, KindRemoved, KindChanged, KindMoved}

// String returns the lower-case event name.
func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	case KindChanged:
		return "changed"
	case KindMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// ParseKind parses the name produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Hint names the entry that should immediately precede the affected entry.
// The zero Hint means "place first".
type Hint struct {
	key   string
	after bool
}

// First returns the hint that places an entry at index 0.
func First() Hint {
	return Hint{}
}

// After returns the hint that places an entry right after key.
func After(key string) Hint {
	return Hint{key: key, after: true}
}

// Key returns the sibling key and whether one is set.
func (h Hint) Key() (string, bool) {
	return h.key, h.after
}

// IsFirst reports whether the hint places the entry first.
func (h Hint) IsFirst() bool {
	return !h.after
}

func (h Hint) String() string {
	if !h.after {
		return "first"
	}
	return "after " + h.key
}

// Event is one mutation delivered by an upstream source.
type Event[V any] struct {
	Kind  Kind
	Entry Entry[V]
	Hint  Hint
}

// Added builds an added event.
func Added[V any](key string, value V, hint Hint) Event[V] {
	return Event[V]{Kind: KindAdded, Entry: Entry[V]{Key: key, Value: value}, Hint: hint}
}

// Removed builds a removed event. The value is the entry's last known value.
func Removed[V any](key string, value V) Event[V] {
	return Event[V]{Kind: KindRemoved, Entry: Entry[V]{Key: key, Value: value}}
}

// Changed builds a changed event carrying the new value.
func Changed[V any](key string, value V) Event[V] {
	return Event[V]{Kind: KindChanged, Entry: Entry[V]{Key: key, Value: value}}
}

// Moved builds a moved event.
func Moved[V any](key string, value V, hint Hint) Event[V] {
	return Event[V]{Kind: KindMoved, Entry: Entry[V]{Key: key, Value: value}, Hint: hint}
}

// NoIndex marks the absent destination of a non-move Change.
const NoIndex = -1

// Change is the positional delta produced by applying one event.
//
// Index is the insert, remove or change position. For moves Index is the
// origin and ToIndex the destination; otherwise ToIndex is NoIndex.
type Change[V any] struct {
	Kind    Kind
	Index   int
	ToIndex int
	Entry   Entry[V]
}

// IsMove reports whether the change carries a destination index.
func (c Change[V]) IsMove() bool {
	return c.ToIndex != NoIndex
}

func (c Change[V]) String() string {
	if c.IsMove() {
		return fmt.Sprintf("%s %s %d->%d", c.Kind, c.Entry.Key, c.Index, c.ToIndex)
	}
	return fmt.Sprintf("%s %s @%d", c.Kind, c.Entry.Key, c.Index)
}
