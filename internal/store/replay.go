package store

import (
	"context"
	"fmt"
)

// SessionState summarizes a session's journal for recovery and reporting.
type SessionState struct {
	Session     Session
	Events      int
	Applied     int
	Rejected    int
	LastSeq     int64
	HasSnapshot bool
	// Corrupt lists the seqs whose stored hash no longer matches the row.
	Corrupt []int64
}

// GetSessionState reads a session's journal and verifies each event hash.
func (s *Store) GetSessionState(ctx context.Context, id string) (SessionState, error) {
	sess, err := s.ReadSession(ctx, id)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}
	state := SessionState{Session: sess}

	events, err := s.ReadEvents(ctx, id, false)
	if err != nil {
		return state, fmt.Errorf("get session state: %w", err)
	}
	state.Events = len(events)
	for _, ev := range events {
		if ev.Applied {
			state.Applied++
		} else {
			state.Rejected++
		}
		if ev.Seq > state.LastSeq {
			state.LastSeq = ev.Seq
		}
		hash, err := ev.ComputeHash()
		if err != nil || hash != ev.Hash {
			state.Corrupt = append(state.Corrupt, ev.Seq)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshot_meta WHERE session = ?
	`, id).Scan(&n); err != nil {
		return state, fmt.Errorf("get session state: snapshot: %w", err)
	}
	state.HasSnapshot = n > 0
	return state, nil
}
