package list

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay mirrors the observer stream onto a plain slice. If the notifications
// are correct, the mirror always equals the list.
type replay struct {
	entries []Entry[int]
}

func (r *replay) observers() Observers[int] {
	return Observers[int]{
		Added: func(i int, e Entry[int]) {
			r.entries = slices.Insert(r.entries, i, e)
		},
		Removed: func(i int, _ Entry[int]) {
			r.entries = slices.Delete(r.entries, i, i+1)
		},
		Changed: func(i int, e Entry[int]) {
			r.entries[i] = e
		},
		Moved: func(from, to int, e Entry[int]) {
			r.entries = slices.Insert(slices.Delete(r.entries, from, from+1), to, e)
		},
	}
}

func randomEvent(rng *rand.Rand, l *List[int], next *int) Event[int] {
	keys := l.Keys()
	hint := func() Hint {
		if len(keys) == 0 || rng.IntN(4) == 0 {
			return First()
		}
		return After(keys[rng.IntN(len(keys))])
	}
	if len(keys) == 0 || rng.IntN(3) == 0 {
		*next++
		return Added(fmt.Sprintf("k%d", *next), rng.IntN(20), hint())
	}
	key := keys[rng.IntN(len(keys))]
	switch rng.IntN(3) {
	case 0:
		return Removed(key, 0)
	case 1:
		return Changed(key, rng.IntN(20))
	default:
		h := hint()
		if k, ok := h.Key(); ok && k == key {
			h = First()
		}
		return Moved(key, rng.IntN(20), h)
	}
}

// sortedModel applies events the literal way: remove the entry, then insert
// the new value after every entry that is not greater than it.
type sortedModel struct {
	entries []Entry[int]
}

func (m *sortedModel) insert(e Entry[int]) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Value > e.Value })
	m.entries = slices.Insert(m.entries, i, e)
}

func (m *sortedModel) remove(key string) {
	m.entries = slices.DeleteFunc(m.entries, func(e Entry[int]) bool { return e.Key == key })
}

func (m *sortedModel) apply(ev Event[int]) {
	switch ev.Kind {
	case KindAdded:
		m.insert(ev.Entry)
	case KindRemoved:
		m.remove(ev.Entry.Key)
	case KindChanged, KindMoved:
		m.remove(ev.Entry.Key)
		m.insert(ev.Entry)
	}
}

func checkInvariants(t *testing.T, l *List[int], mirror *replay) {
	t.Helper()
	seen := make(map[string]bool, l.Len())
	for _, e := range l.All() {
		require.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
	}
	require.Equal(t, l.Entries(), mirror.entries)
	if l.Sorted() {
		require.True(t, slices.IsSortedFunc(l.Entries(), func(a, b Entry[int]) int {
			return intCmp(a.Value, b.Value)
		}))
	}
}

func TestList_RandomStreamKeepsInvariants(t *testing.T) {
	for _, sorted := range []bool{false, true} {
		t.Run(fmt.Sprintf("sorted=%v", sorted), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			mirror := &replay{}
			var l *List[int]
			if sorted {
				l = NewSorted(Sources[int]{}, mirror.observers(), intCmp)
			} else {
				l = New(Sources[int]{}, mirror.observers())
			}

			model := &sortedModel{}
			next := 0
			for range 2000 {
				ev := randomEvent(rng, l, &next)
				_, err := l.Apply(ev)
				require.NoError(t, err, "event %s %s", ev.Kind, ev.Entry.Key)
				checkInvariants(t, l, mirror)
				if sorted {
					model.apply(ev)
					require.True(t, slices.Equal(model.entries, l.Entries()),
						"event %s %s: want %v, got %v", ev.Kind, ev.Entry.Key, model.entries, l.Entries())
				}
			}
		})
	}
}

func TestList_RejectedEventLeavesState(t *testing.T) {
	mirror := &replay{}
	l := New(Sources[int]{}, mirror.observers())
	_, _ = l.Apply(Added("a", 1, First()))
	_, _ = l.Apply(Added("b", 2, After("a")))
	before := l.Entries()

	bad := []Event[int]{
		Added("a", 9, First()),
		Added("c", 9, After("ghost")),
		Removed("ghost", 0),
		Changed("ghost", 0),
		Moved("ghost", 0, First()),
		Moved("a", 0, After("ghost")),
		Moved("a", 0, After("a")),
	}
	for _, ev := range bad {
		_, err := l.Apply(ev)
		assert.Error(t, err)
		assert.Equal(t, before, l.Entries())
		assert.Equal(t, before, mirror.entries)
	}
}

type countingRecorder struct {
	applied  map[Kind]int
	rejected map[ErrorCode]int
}

func (r *countingRecorder) EventApplied(kind Kind, _ time.Duration) {
	r.applied[kind]++
}

func (r *countingRecorder) EventRejected(_ Kind, code ErrorCode) {
	r.rejected[code]++
}

func TestList_Recorder(t *testing.T) {
	rec := &countingRecorder{applied: map[Kind]int{}, rejected: map[ErrorCode]int{}}
	l := New(Sources[int]{}, Observers[int]{}, WithRecorder(rec))

	_, _ = l.Apply(Added("a", 1, First()))
	_, _ = l.Apply(Changed("a", 2))
	_, _ = l.Apply(Removed("ghost", 0))
	_, _ = l.Apply(Added("a", 1, First()))

	assert.Equal(t, map[Kind]int{KindAdded: 1, KindChanged: 1}, rec.applied)
	assert.Equal(t, map[ErrorCode]int{ErrCodeNotFound: 1, ErrCodeDuplicateKey: 1}, rec.rejected)
}
