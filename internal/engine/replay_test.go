package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
)

// journalRun materializes deliveries into s under session and snapshots the
// result. Rejected deliveries are journaled and skipped.
func journalRun(t *testing.T, s *store.Store, session string, layout Layout, ds ...Delivery) *Materializer {
	t.Helper()
	ctx := context.Background()
	m, err := NewMaterializer(layout, WithEngineOptions(WithSession(session), WithJournal(s)))
	require.NoError(t, err)
	require.NoError(t, s.WriteSession(ctx, m.SessionRecord("test")))

	for _, d := range ds {
		m.Engine().Enqueue(d)
	}
	for {
		ok, _ := m.Engine().Step(ctx)
		if !ok {
			break
		}
	}

	snap, err := m.Snapshot()
	require.NoError(t, err)
	require.NoError(t, s.WriteSnapshot(ctx, snap))
	return m
}

func TestReplay_Matches(t *testing.T) {
	s := setupTestStore(t)
	orig := journalRun(t, s, "s1", Layout{},
		added("a", 1),
		Mutation(list.Added[ir.Value]("b", ir.Int(2), list.After("a"))),
		Mutation(list.Removed[ir.Value]("ghost", ir.Null{})), // rejected
		Mutation(list.Moved[ir.Value]("a", ir.Int(5), list.After("b"))),
		LoadComplete(nil),
	)

	res, err := Replay(context.Background(), s, "s1")
	require.NoError(t, err)
	assert.True(t, res.Match())
	assert.Equal(t, 4, res.Events, "rejected events are not replayed")
	assert.Equal(t, orig.List().Entries(), res.Materializer.List().Entries())
	assert.True(t, res.Materializer.List().Loaded())
}

func TestReplay_SortedSession(t *testing.T) {
	s := setupTestStore(t)
	obj := func(n int64) ir.Value { return ir.Object{"n": ir.Int(n)} }
	journalRun(t, s, "sorted", Layout{Mode: ModeSorted, SortBy: "n"},
		Mutation(list.Added("a", obj(3), list.First())),
		Mutation(list.Added("b", obj(1), list.First())),
		Mutation(list.Changed("b", obj(9))),
	)

	res, err := Replay(context.Background(), s, "sorted")
	require.NoError(t, err)
	assert.True(t, res.Match())
	assert.Equal(t, []string{"a", "b"}, res.Materializer.List().Keys())
}

func TestReplay_DetectsDivergence(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	journalRun(t, s, "s1", Layout{}, added("a", 1))

	require.NoError(t, s.WriteSnapshot(ctx, store.Snapshot{Session: "s1", Hash: "bogus"}))

	res, err := Replay(ctx, s, "s1")
	require.NoError(t, err)
	assert.False(t, res.Match())
}

func TestReplay_NoSnapshot(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, store.Session{ID: "bare", Mode: "sibling"}))

	res, err := Replay(ctx, s, "bare")
	require.NoError(t, err)
	assert.Empty(t, res.Expected)
	assert.False(t, res.Match())
}

func TestReplay_UnknownSession(t *testing.T) {
	s := setupTestStore(t)
	_, err := Replay(context.Background(), s, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReplay_UsesStoredObserveSet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	m, err := NewMaterializer(Layout{},
		WithEngineOptions(WithSession("partial"), WithJournal(s)),
		ObserveOnly(ChannelLoaded, ChannelAdded),
	)
	require.NoError(t, err)
	sess := m.SessionRecord("test")
	assert.Equal(t, []string{"added", "loaded"}, sess.Observe, "stored in channel order")
	require.NoError(t, s.WriteSession(ctx, sess))

	m.Engine().Enqueue(added("a", 1))
	m.Engine().Enqueue(Mutation(list.Changed[ir.Value]("a", ir.Int(2))))
	m.Engine().Enqueue(Mutation(list.Removed[ir.Value]("a", ir.Null{})))
	m.Engine().Enqueue(LoadComplete(nil))
	require.NoError(t, m.Engine().Drain(ctx))
	require.Equal(t, []string{"a"}, m.List().Keys())

	snap, err := m.Snapshot()
	require.NoError(t, err)
	require.NoError(t, s.WriteSnapshot(ctx, snap))

	res, err := Replay(ctx, s, "partial")
	require.NoError(t, err)
	assert.True(t, res.Match(), "unheard deliveries stay unheard on replay")
	assert.Equal(t, m.List().Entries(), res.Materializer.List().Entries())
}

func TestReplay_RejectsUnknownStoredChannel(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, store.Session{ID: "odd", Mode: "sibling", Observe: []string{"bogus"}}))

	_, err := Replay(ctx, s, "odd")
	assert.ErrorContains(t, err, "observe")
}
