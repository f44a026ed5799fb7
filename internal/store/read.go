package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a session or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// ReadSession retrieves a session by id.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var (
		sess    Session
		observe string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode, sort_by, source, observe FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Mode, &sess.SortBy, &sess.Source, &observe)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	sess.Observe = splitObserve(observe)
	return sess, nil
}

// ListSessions returns every session ordered by id.
// Returns an empty slice (not nil) if the store has none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, sort_by, source, observe FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var (
			sess    Session
			observe string
		)
		if err := rows.Scan(&sess.ID, &sess.Mode, &sess.SortBy, &sess.Source, &observe); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Observe = splitObserve(observe)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadEvents returns the journal of a session ordered by seq.
// With appliedOnly, rejected deliveries are skipped.
// Returns an empty slice (not nil) if no events exist.
func (s *Store) ReadEvents(ctx context.Context, session string, appliedOnly bool) ([]Event, error) {
	query := `
		SELECT session, seq, kind, key, has_after, after_key, value, applied, error_code, hash
		FROM events
		WHERE session = ?`
	if appliedOnly {
		query += ` AND applied = 1`
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev        Event
		hasAfter  int
		applied   int
		valueJSON string
	)
	err := rows.Scan(
		&ev.Session,
		&ev.Seq,
		&ev.Kind,
		&ev.Key,
		&hasAfter,
		&ev.AfterKey,
		&valueJSON,
		&applied,
		&ev.ErrorCode,
		&ev.Hash,
	)
	if err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.HasAfter = hasAfter != 0
	ev.Applied = applied != 0
	ev.Value, err = unmarshalValue(valueJSON)
	if err != nil {
		return Event{}, fmt.Errorf("event %s/%d: %w", ev.Session, ev.Seq, err)
	}
	return ev, nil
}

// ReadSnapshot returns the stored sequence of a session.
// Returns ErrNotFound if no snapshot was written.
func (s *Store) ReadSnapshot(ctx context.Context, session string) (Snapshot, error) {
	snap := Snapshot{Session: session}
	var (
		length int
		loaded int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, hash, length, loaded FROM snapshot_meta WHERE session = ?
	`, session).Scan(&snap.Seq, &snap.Hash, &length, &loaded)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", session, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot meta: %w", err)
	}
	snap.Loaded = loaded != 0

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM snapshots
		WHERE session = ?
		ORDER BY position ASC
	`, session)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snap.Entries = make([]SnapshotEntry, 0, length)
	for rows.Next() {
		var (
			e         SnapshotEntry
			valueJSON string
		)
		if err := rows.Scan(&e.Key, &valueJSON); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot entry: %w", err)
		}
		if e.Value, err = unmarshalValue(valueJSON); err != nil {
			return Snapshot{}, fmt.Errorf("snapshot entry %s: %w", e.Key, err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate snapshot: %w", err)
	}
	if len(snap.Entries) != length {
		return Snapshot{}, fmt.Errorf("snapshot %s: %d entries stored, meta says %d", session, len(snap.Entries), length)
	}
	return snap, nil
}
