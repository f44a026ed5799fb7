package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptions_NoObserversNoListeners(t *testing.T) {
	f := newFixture()
	l := New(f.sources(), Observers[int]{})

	assert.Equal(t, 0, l.Subscriptions())
	assert.Equal(t, 0, f.totalListeners())
}

func TestSubscriptions_OnlyObservedChannels(t *testing.T) {
	f := newFixture()
	l := New(f.sources(), Observers[int]{
		Added: func(int, Entry[int]) {},
		Moved: func(int, int, Entry[int]) {},
	})

	assert.Equal(t, 2, l.Subscriptions())
	assert.Equal(t, 1, f.added.listeners())
	assert.Equal(t, 0, f.removed.listeners())
	assert.Equal(t, 0, f.changed.listeners())
	assert.Equal(t, 1, f.moved.listeners())
	assert.Equal(t, 0, f.loaded.listeners())
}

func TestSubscriptions_LoadedNeedsObserver(t *testing.T) {
	f := newFixture()
	obs := f.observers()
	obs.Loaded = nil
	l := New(f.sources(), obs)

	assert.Equal(t, 4, l.Subscriptions())
	assert.Equal(t, 0, f.loaded.listeners())
}

func TestSubscriptions_NilSourcesSkipped(t *testing.T) {
	f := newFixture()
	l := New(Sources[int]{Added: f.added}, f.observers())

	assert.Equal(t, 1, l.Subscriptions())
}

func TestClear_ReleasesEverything(t *testing.T) {
	f := newFixture()
	l := New(f.sources(), f.observers())
	require.NoError(t, f.added.emit(Added("a", 1, First())))
	require.NoError(t, f.loaded.emit(nil))
	require.Equal(t, 5, f.totalListeners())

	l.Clear()

	assert.Equal(t, 0, f.totalListeners())
	assert.Equal(t, 0, l.Subscriptions())
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Loaded())

	// Events after Clear never reach the list.
	require.NoError(t, f.added.emit(Added("b", 2, First())))
	assert.Equal(t, 0, l.Len())
}

func TestClear_Idempotent(t *testing.T) {
	f := newFixture()
	l := New(f.sources(), f.observers())

	l.Clear()
	assert.NotPanics(t, l.Clear)

	assert.Equal(t, 0, f.totalListeners())
	for _, src := range []*fakeSource[Event[int]]{f.added, f.removed, f.changed, f.moved} {
		assert.Equal(t, 1, src.released, "each subscription released exactly once")
	}
	assert.Equal(t, 1, f.loaded.released)
}

func TestClear_NeverSubscribed(t *testing.T) {
	l := New(Sources[int]{}, Observers[int]{})
	assert.NotPanics(t, func() {
		l.Clear()
		l.Clear()
	})
}

func TestSubscriptionSet_SkipsNil(t *testing.T) {
	var s subscriptionSet
	s.add(nil)
	assert.Equal(t, 0, s.len())
	s.release()
}
