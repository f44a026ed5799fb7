package list

import "sort"

// IndexOfKey returns the index of key in entries, or -1.
func IndexOfKey[V any](entries []Entry[V], key string) int {
	for i := range entries {
		if entries[i].Key == key {
			return i
		}
	}
	return -1
}

// ResolveSibling returns the insertion index named by hint.
//
// A first hint resolves to 0 regardless of length. An after hint resolves to
// the index just past its sibling; an unknown sibling is a POSITION error
// attributed to kind and key.
func ResolveSibling[V any](entries []Entry[V], hint Hint, kind Kind, key string) (int, error) {
	after, ok := hint.Key()
	if !ok {
		return 0, nil
	}
	i := IndexOfKey(entries, after)
	if i < 0 {
		return 0, NewPositionError(kind, key, after)
	}
	return i + 1, nil
}

// ResolveSorted returns the insertion index for value in entries ordered by cmp.
//
// The result is the first index whose value compares strictly greater than
// value, so a new entry lands after every entry it compares equal to.
func ResolveSorted[V any](entries []Entry[V], value V, cmp func(a, b V) int) int {
	return sort.Search(len(entries), func(i int) bool {
		return cmp(entries[i].Value, value) > 0
	})
}
