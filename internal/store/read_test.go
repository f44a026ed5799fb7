package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
)

func TestReadEvents_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := createTestSession(t, s, "s1")

	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, s.WriteEvent(ctx, createTestEvent(id, seq, "k", ir.Int(seq))))
	}

	events, err := s.ReadEvents(ctx, id, false)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestReadEvents_AppliedOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := createTestSession(t, s, "s1")

	ok := createTestEvent(id, 1, "a", ir.Int(1))
	bad := createTestEvent(id, 2, "a", ir.Int(1))
	bad.Applied = false
	bad.ErrorCode = "DUPLICATE_KEY"
	require.NoError(t, s.WriteEvent(ctx, ok))
	require.NoError(t, s.WriteEvent(ctx, bad))

	all, err := s.ReadEvents(ctx, id, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	applied, err := s.ReadEvents(ctx, id, true)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].Seq)
}

func TestReadEvents_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background(), "none", false)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)
	id := createTestSession(t, s, "s1")

	_, err := s.ReadSnapshot(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	createTestSession(t, s, "b")
	createTestSession(t, s, "a")

	sessions, err = s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)
}

func TestGetSessionState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := createTestSession(t, s, "s1")

	require.NoError(t, s.WriteEvent(ctx, createTestEvent(id, 1, "a", ir.Int(1))))
	rejected := createTestEvent(id, 2, "a", ir.Int(1))
	rejected.Applied = false
	require.NoError(t, s.WriteEvent(ctx, rejected))

	state, err := s.GetSessionState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Events)
	assert.Equal(t, 1, state.Applied)
	assert.Equal(t, 1, state.Rejected)
	assert.Equal(t, int64(2), state.LastSeq)
	assert.False(t, state.HasSnapshot)
	assert.Empty(t, state.Corrupt)

	require.NoError(t, s.WriteSnapshot(ctx, Snapshot{Session: id, Hash: "h"}))
	state, err = s.GetSessionState(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.HasSnapshot)
}

func TestGetSessionState_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	id := createTestSession(t, s, "s1")
	require.NoError(t, s.WriteEvent(ctx, createTestEvent(id, 1, "a", ir.Int(1))))

	_, err := s.db.Exec(`UPDATE events SET value = '2' WHERE session = ? AND seq = 1`, id)
	require.NoError(t, err)

	state, err := s.GetSessionState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, state.Corrupt)
}
