package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/eventfile"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/testutil"
)

// Harness is the test execution engine.
// It runs a scenario against the real engine and list with a deterministic
// clock and session id.
type Harness struct {
	store  *store.Store
	mat    *engine.Materializer
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Build the event stream and the materializer
//  2. Deliver each event, one engine step at a time
//  3. Snapshot the final state and replay the journal against it
//  4. Evaluate assertions
//
// The returned error is reserved for infrastructure failures; a scenario
// whose expectations do not hold returns a failing Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	stream, expect, err := scenario.stream()
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	if err := stream.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events: %w", err)
	}
	observe, err := scenario.observeChannels()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewDeterministicClock()

	matOpts := []engine.MaterializerOption{
		engine.WithEngineOptions(
			engine.WithClock(clock),
			engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
			engine.WithJournal(st),
			engine.WithLogger(logger),
		),
		engine.WithListOptions(list.WithLogger(logger)),
	}
	if observe != nil {
		matOpts = append(matOpts, engine.ObserveOnly(observe...))
	}

	mat, err := engine.NewMaterializer(stream.Layout(), matOpts...)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	h := &Harness{store: st, mat: mat, clock: clock, logger: logger}

	if err := st.WriteSession(ctx, mat.SessionRecord(scenario.Name)); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	result := NewResult()
	result.Session = mat.Engine().Session()
	if err := h.executeEvents(ctx, stream, expect, result); err != nil {
		return nil, fmt.Errorf("failed to execute events: %w", err)
	}

	if err := h.finish(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeEvents delivers each record as one engine step and checks the
// outcome against the expected error code.
func (h *Harness) executeEvents(ctx context.Context, stream *eventfile.Stream, expect []string, result *Result) error {
	eng := h.mat.Engine()
	seen := 0

	for i, rec := range stream.Records {
		d, err := rec.Delivery()
		if err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		eng.Enqueue(d)

		_, stepErr := eng.Step(ctx)
		code := string(list.CodeOf(stepErr))
		if stepErr != nil && code == "" {
			return fmt.Errorf("events[%d]: %w", i, stepErr)
		}

		trace := h.mat.Trace()
		for _, n := range trace[seen:] {
			result.Trace = append(result.Trace, changeEvent(n))
		}
		seen = len(trace)

		if code != "" {
			result.Trace = append(result.Trace, TraceEvent{
				Type:  TraceRejected,
				Seq:   h.clock.Current(),
				Kind:  rec.Kind,
				Key:   rec.Key,
				Index: list.NoIndex,
				To:    list.NoIndex,
				Code:  code,
			})
		}

		if expect == nil {
			continue
		}
		if want := expect[i]; want != code {
			result.AddError(fmt.Sprintf("events[%d] %s %s: expected error %q, got %q",
				i, rec.Kind, rec.Key, want, code))
		}
	}
	return nil
}

// finish records the final state, snapshots it and verifies that the
// journal replays to the same state.
func (h *Harness) finish(ctx context.Context, result *Result) error {
	l := h.mat.List()
	for _, e := range l.All() {
		result.Keys = append(result.Keys, e.Key)
		result.Values[e.Key] = e.Value
	}
	result.Loaded = l.Loaded()

	snap, err := h.mat.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot: %w", err)
	}
	result.Hash = snap.Hash
	if err := h.store.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	replayed, err := engine.Replay(ctx, h.store, result.Session)
	if err != nil {
		result.AddError(err.Error())
		return nil
	}
	defer replayed.Materializer.Close()

	if !replayed.Match() {
		result.AddError(fmt.Sprintf("replay: state hash %s, expected %s", replayed.Hash, replayed.Expected))
	}
	return nil
}
