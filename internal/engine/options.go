package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/listsync/internal/store"
)

// Journal persists every dispatched delivery with its outcome.
// Implemented by *store.Store.
type Journal interface {
	WriteEvent(ctx context.Context, ev store.Event) error
}

// ErrorHandler observes a rejected delivery in Run.
type ErrorHandler func(d Delivery, err error)

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every dispatched delivery to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithErrorHandler registers h to observe rejected deliveries.
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Engine) {
		e.onError = h
	}
}

// WithLogger sets the engine logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the sequencer used to stamp deliveries.
// Use NewClockAt to resume after an existing journal.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithSession sets the session id explicitly.
func WithSession(id string) Option {
	return func(e *Engine) {
		e.session = id
	}
}

// WithSessionGenerator sets the generator used when no session id is given.
// Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessionGen = g
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
