package store

import (
	"context"
	"fmt"

	"github.com/roach88/listsync/internal/ir"
)

// WriteSession registers a session.
// Uses ON CONFLICT(id) DO NOTHING - re-registering a session is a no-op.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return fmt.Errorf("write session: empty session id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, sort_by, source, observe)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sess.ID, sess.Mode, sess.SortBy, sess.Source, joinObserve(sess.Observe))
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	return nil
}

// ComputeHash returns the content hash of the event's identity and payload.
func (e Event) ComputeHash() (string, error) {
	return ir.EventHash(e.Session, e.Seq, e.Kind, e.Key, e.Value)
}

// WriteEvent appends a delivery to the session journal.
// Uses ON CONFLICT(session, seq) DO NOTHING for idempotency - a replayed
// write of the same seq is silently ignored.
//
// The hash column is computed here; ev.Hash is ignored.
func (s *Store) WriteEvent(ctx context.Context, ev Event) error {
	valueJSON, err := marshalValue(ev.Value)
	if err != nil {
		return fmt.Errorf("write event %s/%d: %w", ev.Session, ev.Seq, err)
	}
	hash, err := ev.ComputeHash()
	if err != nil {
		return fmt.Errorf("write event %s/%d: %w", ev.Session, ev.Seq, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(session, seq, kind, key, has_after, after_key, value, applied, error_code, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		ev.Session,
		ev.Seq,
		ev.Kind,
		ev.Key,
		boolToInt(ev.HasAfter),
		ev.AfterKey,
		valueJSON,
		boolToInt(ev.Applied),
		ev.ErrorCode,
		hash,
	)
	if err != nil {
		return fmt.Errorf("write event %s/%d: %w", ev.Session, ev.Seq, err)
	}
	return nil
}

// WriteSnapshot replaces the stored sequence of a session.
// The delete and inserts run in one transaction, so readers see either the
// old snapshot or the new one.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE session = ?`, snap.Session); err != nil {
		return fmt.Errorf("write snapshot: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (session, position, key, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for i, e := range snap.Entries {
		valueJSON, err := marshalValue(e.Value)
		if err != nil {
			return fmt.Errorf("write snapshot: entry %s: %w", e.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.Session, i, e.Key, valueJSON); err != nil {
			return fmt.Errorf("write snapshot: insert %s: %w", e.Key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (session, seq, hash, length, loaded)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET
			seq = excluded.seq,
			hash = excluded.hash,
			length = excluded.length,
			loaded = excluded.loaded
	`, snap.Session, snap.Seq, snap.Hash, len(snap.Entries), boolToInt(snap.Loaded))
	if err != nil {
		return fmt.Errorf("write snapshot: meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}
	return nil
}
