package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

// Engine is the single-writer delivery loop.
//
// Thread-safety model:
//   - Enqueue(), Stop(), Pending(): safe from any goroutine
//   - Step(), Drain(), Run(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - Deliveries are dispatched in enqueue order
//   - Each dispatched delivery gets a seq strictly greater than the last
//   - A delivery's subscribers finish before the next delivery is dispatched
type Engine struct {
	added   *Feed[list.Event[ir.Value]]
	removed *Feed[list.Event[ir.Value]]
	changed *Feed[list.Event[ir.Value]]
	moved   *Feed[list.Event[ir.Value]]
	loaded  *Feed[any]

	queue      *deliveryQueue
	clock      Sequencer
	session    string
	sessionGen SessionGenerator
	journal    Journal
	onError    ErrorHandler
	logger     *slog.Logger
}

// New creates an engine with empty feeds.
func New(opts ...Option) *Engine {
	e := &Engine{
		added:      NewFeed[list.Event[ir.Value]]("added"),
		removed:    NewFeed[list.Event[ir.Value]]("removed"),
		changed:    NewFeed[list.Event[ir.Value]]("changed"),
		moved:      NewFeed[list.Event[ir.Value]]("moved"),
		loaded:     NewFeed[any]("loaded"),
		queue:      newDeliveryQueue(),
		clock:      NewClock(),
		sessionGen: UUIDv7Generator{},
		logger:     discardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.session == "" {
		e.session = e.sessionGen.Generate()
	}
	return e
}

// Sources returns the feeds as list sources.
func (e *Engine) Sources() list.Sources[ir.Value] {
	return list.Sources[ir.Value]{
		Added:   e.added,
		Removed: e.removed,
		Changed: e.changed,
		Moved:   e.moved,
		Loaded:  e.loaded,
	}
}

// Listeners returns the total number of handlers attached to the feeds.
func (e *Engine) Listeners() int {
	return e.added.Listeners() + e.removed.Listeners() + e.changed.Listeners() +
		e.moved.Listeners() + e.loaded.Listeners()
}

// Session returns the session id stamped on journal rows.
func (e *Engine) Session() string {
	return e.session
}

// Seq returns the seq of the last dispatched delivery.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Enqueue submits a delivery for dispatch.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(d Delivery) bool {
	return e.queue.Enqueue(d)
}

// Pending returns the number of queued deliveries.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Step dispatches the next queued delivery, if any.
//
// It reports whether a delivery was dispatched. The error is the outcome of
// that delivery (rejection by a subscriber, or a journal failure).
func (e *Engine) Step(ctx context.Context) (bool, error) {
	d, ok := e.queue.TryDequeue()
	if !ok {
		return false, nil
	}
	return true, e.dispatch(ctx, &d)
}

// Drain dispatches queued deliveries until the queue is empty.
// It stops at the first failed delivery and returns its error.
func (e *Engine) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.Step(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Run starts the single-writer event loop.
// Blocks until the context is cancelled or Stop() is called and the queue
// has been drained.
//
// ERROR HANDLING: a failed delivery is logged with full context, passed to
// the error handler, and processing continues. Retrying would make the
// journal diverge from what a replay produces.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "session", e.session)

	for {
		if d, ok := e.queue.TryDequeue(); ok {
			if err := e.dispatch(ctx, &d); err != nil {
				e.logger.Error("delivery failed",
					"session", e.session,
					"seq", d.Seq,
					"channel", d.Channel.String(),
					"key", d.Key(),
					"error", err,
				)
				if e.onError != nil {
					e.onError(d, err)
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "session", e.session)
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed once the queue is closed.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed", "session", e.session)
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the remaining deliveries are
// dispatched. Further Enqueue calls return false.
func (e *Engine) Stop() {
	e.queue.Close()
}

// dispatch stamps d, emits it on its feed and journals the outcome.
// Called only from the single writer goroutine.
func (e *Engine) dispatch(ctx context.Context, d *Delivery) error {
	d.Seq = e.clock.Next()

	e.logger.Debug("dispatching delivery",
		"session", e.session,
		"seq", d.Seq,
		"channel", d.Channel.String(),
		"key", d.Key(),
	)

	err := e.emit(*d)

	if e.journal != nil {
		if jerr := e.journal.WriteEvent(ctx, d.Record(e.session, err)); jerr != nil {
			return fmt.Errorf("journal delivery %d: %w", d.Seq, jerr)
		}
	}
	if err != nil {
		return &DeliveryError{Seq: d.Seq, Channel: d.Channel, Key: d.Key(), Err: err}
	}
	return nil
}

func (e *Engine) emit(d Delivery) error {
	switch d.Channel {
	case ChannelAdded:
		return e.added.Emit(d.Event)
	case ChannelRemoved:
		return e.removed.Emit(d.Event)
	case ChannelChanged:
		return e.changed.Emit(d.Event)
	case ChannelMoved:
		return e.moved.Emit(d.Event)
	case ChannelLoaded:
		return e.loaded.Emit(d.Signal)
	default:
		return fmt.Errorf("unknown channel: %d", d.Channel)
	}
}
