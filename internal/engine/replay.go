package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/listsync/internal/store"
)

// ReplaySource reads a session journal.
// Implemented by *store.Store.
type ReplaySource interface {
	ReadSession(ctx context.Context, id string) (store.Session, error)
	ReadEvents(ctx context.Context, session string, appliedOnly bool) ([]store.Event, error)
	ReadSnapshot(ctx context.Context, session string) (store.Snapshot, error)
}

// ReplayResult reports the outcome of rebuilding a session from its journal.
type ReplayResult struct {
	Session store.Session
	// Events is the number of applied events re-delivered.
	Events int
	// Hash is the state hash after replay.
	Hash string
	// Expected is the snapshot hash, empty if the session has no snapshot.
	Expected string
	// Materializer holds the rebuilt list and trace.
	Materializer *Materializer
}

// Match reports whether the replayed state equals the stored snapshot.
// A session without a snapshot never matches.
func (r *ReplayResult) Match() bool {
	return r.Expected != "" && r.Hash == r.Expected
}

// Replay re-delivers the applied events of a session to a fresh list with
// the session's layout and computes the resulting state hash.
//
// Rejected events are skipped: they never mutated the original list. The
// list subscribes to the channel subset stored with the session, so
// deliveries the original list never heard are not heard again. Any
// rejection during replay means the journal is not deterministic and is
// returned as an error.
func Replay(ctx context.Context, src ReplaySource, session string, opts ...MaterializerOption) (*ReplayResult, error) {
	sess, err := src.ReadSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	mode, err := ParseMode(sess.Mode)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	events, err := src.ReadEvents(ctx, session, true)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	base := []MaterializerOption{WithEngineOptions(WithSession(session))}
	if sess.Observe != nil {
		channels := make([]Channel, 0, len(sess.Observe))
		for _, name := range sess.Observe {
			ch, err := ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("replay %s: observe: %w", session, err)
			}
			channels = append(channels, ch)
		}
		base = append(base, ObserveOnly(channels...))
	}
	opts = append(base, opts...)
	m, err := NewMaterializer(Layout{Mode: mode, SortBy: sess.SortBy}, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	for _, rec := range events {
		d, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", session, err)
		}
		m.Engine().Enqueue(d)
	}
	if err := m.Engine().Drain(ctx); err != nil {
		return nil, fmt.Errorf("replay %s: nondeterministic journal: %w", session, err)
	}

	hash, err := m.Hash()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	res := &ReplayResult{
		Session:      sess,
		Events:       len(events),
		Hash:         hash,
		Materializer: m,
	}

	snap, err := src.ReadSnapshot(ctx, session)
	switch {
	case err == nil:
		res.Expected = snap.Hash
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}
	return res, nil
}
