package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Kind     string // optional - filter to one channel
	Rejected bool   // optional - rejected events only
}

// TraceEvent is one journaled event in the timeline.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Kind    string   `json:"kind"`
	Key     string   `json:"key,omitempty"`
	After   *string  `json:"after,omitempty"`
	Value   ir.Value `json:"value"`
	Applied bool     `json:"applied"`
	Code    string   `json:"code,omitempty"`
	Hash    string   `json:"hash"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  store.Session `json:"session"`
	Timeline []TraceEvent  `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats summarizes the full journal, regardless of filters.
type TraceStats struct {
	TotalEvents int     `json:"total_events"`
	Applied     int     `json:"applied"`
	Rejected    int     `json:"rejected"`
	HasSnapshot bool    `json:"has_snapshot"`
	Corrupt     []int64 `json:"corrupt,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the journal of a session",
		Long: `Print every journaled event of a session in seq order, including
rejected events and their error codes.

Examples:
  listsync trace --db ./listsync.db --session s-1
  listsync trace --db ./listsync.db --session s-1 --kind moved
  listsync trace --db ./listsync.db --session s-1 --rejected --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one channel (added, removed, changed, moved, loaded)")
	cmd.Flags().BoolVar(&opts.Rejected, "rejected", false, "show rejected events only")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Kind != "" {
		if _, err := engine.ParseChannel(opts.Kind); err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.GetSessionState(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get session state", err)
	}
	events, err := st.ReadEvents(ctx, opts.Session, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Session:  state.Session,
		Timeline: buildTimeline(events, opts.Kind, opts.Rejected),
		Stats: TraceStats{
			TotalEvents: state.Events,
			Applied:     state.Applied,
			Rejected:    state.Rejected,
			HasSnapshot: state.HasSnapshot,
			Corrupt:     state.Corrupt,
		},
	}

	if f.JSON() {
		return f.Success(result)
	}
	return outputTraceText(f, result)
}

// buildTimeline converts journal rows to timeline events, keeping only
// those that match the filters.
func buildTimeline(events []store.Event, kind string, rejectedOnly bool) []TraceEvent {
	timeline := []TraceEvent{}
	for _, ev := range events {
		if kind != "" && ev.Kind != kind {
			continue
		}
		if rejectedOnly && ev.Applied {
			continue
		}
		te := TraceEvent{
			Seq:     ev.Seq,
			Kind:    ev.Kind,
			Key:     ev.Key,
			Value:   ev.Value,
			Applied: ev.Applied,
			Code:    ev.ErrorCode,
			Hash:    ev.Hash,
		}
		if ev.HasAfter {
			after := ev.AfterKey
			te.After = &after
		}
		timeline = append(timeline, te)
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(f *OutputFormatter, result TraceResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Trace for Session: %s (%s)\n", result.Session.ID, result.Session.Mode)
	if result.Session.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", result.Session.Source)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, f.Verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Applied:      %d\n", result.Stats.Applied)
	fmt.Fprintf(w, "  Rejected:     %d\n", result.Stats.Rejected)
	fmt.Fprintf(w, "  Snapshot:     %t\n", result.Stats.HasSnapshot)
	if len(result.Stats.Corrupt) > 0 {
		fmt.Fprintf(w, "  Corrupt:      %v\n", result.Stats.Corrupt)
	}
	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, ev TraceEvent, verbose bool) {
	status := "ok"
	if !ev.Applied {
		status = ev.Code
	}

	switch {
	case ev.Kind == "loaded":
		fmt.Fprintf(w, "  [%d] %-7s %s %s\n", ev.Seq, ev.Kind, canonicalText(ev.Value), status)
	case ev.After != nil:
		fmt.Fprintf(w, "  [%d] %-7s %s (after %s) %s\n", ev.Seq, ev.Kind, ev.Key, *ev.After, status)
	default:
		fmt.Fprintf(w, "  [%d] %-7s %s %s\n", ev.Seq, ev.Kind, ev.Key, status)
	}

	if verbose {
		if ev.Kind != "loaded" {
			fmt.Fprintf(w, "       Value: %s\n", canonicalText(ev.Value))
		}
		fmt.Fprintf(w, "       Hash: %s\n", truncateHash(ev.Hash))
	}
}

// truncateHash shortens a hash for display.
func truncateHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
