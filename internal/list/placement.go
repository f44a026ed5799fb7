package list

// placement is the position-resolution strategy of a List.
type placement[V any] interface {
	// added returns the insertion index for an added event.
	added(entries []Entry[V], ev Event[V]) (int, error)

	// relocate returns the destination of the entry at from, as an index
	// into the sequence with that entry removed.
	relocate(entries []Entry[V], from int, ev Event[V]) (int, error)

	// ordersByValue reports whether value changes can reorder entries.
	ordersByValue() bool
}

type siblingPlacement[V any] struct{}

func (siblingPlacement[V]) added(entries []Entry[V], ev Event[V]) (int, error) {
	return ResolveSibling(entries, ev.Hint, ev.Kind, ev.Entry.Key)
}

func (siblingPlacement[V]) relocate(entries []Entry[V], from int, ev Event[V]) (int, error) {
	after, ok := ev.Hint.Key()
	if !ok {
		return 0, nil
	}
	// An entry cannot follow itself: once removed its key is gone.
	if after == ev.Entry.Key {
		return 0, NewPositionError(ev.Kind, ev.Entry.Key, after)
	}
	j := IndexOfKey(entries, after)
	if j < 0 {
		return 0, NewPositionError(ev.Kind, ev.Entry.Key, after)
	}
	if j > from {
		j--
	}
	return j + 1, nil
}

func (siblingPlacement[V]) ordersByValue() bool { return false }

type sortedPlacement[V any] struct {
	cmp func(a, b V) int
}

func (p sortedPlacement[V]) added(entries []Entry[V], ev Event[V]) (int, error) {
	return ResolveSorted(entries, ev.Entry.Value, p.cmp), nil
}

// relocate returns the stable search index of the new value in the sequence
// without the entry, so a value that ties with its successor lands after it.
func (p sortedPlacement[V]) relocate(entries []Entry[V], from int, ev Event[V]) (int, error) {
	// entries is sorted, so the search over the full slice is valid. The old
	// entry sits before j only if its value is <= the new one; shift past the
	// slot that is about to be vacated.
	j := ResolveSorted(entries, ev.Entry.Value, p.cmp)
	if j > from {
		j--
	}
	return j, nil
}

func (sortedPlacement[V]) ordersByValue() bool { return true }
