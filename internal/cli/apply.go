package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
	"github.com/roach88/listsync/internal/telemetry"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	Session  string
	Observe  []string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// Rejection describes an event the list refused.
type Rejection struct {
	Seq     int64  `json:"seq"`
	Channel string `json:"channel"`
	Key     string `json:"key,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EntryOutput is one entry of the final list.
type EntryOutput struct {
	Key   string   `json:"key"`
	Value ir.Value `json:"value"`
}

// ApplyResult holds the outcome of applying an event file.
type ApplyResult struct {
	Session  string                `json:"session"`
	Mode     string                `json:"mode"`
	Events   int                   `json:"events"`
	Trace    []engine.Notification `json:"trace"`
	Rejected []Rejection           `json:"rejected"`
	Entries  []EntryOutput         `json:"entries"`
	Loaded   bool                  `json:"loaded"`
	Hash     string                `json:"hash"`
	Journal  string                `json:"journal,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <events-file>",
		Short: "Materialize a list from an event file",
		Long: `Deliver every event of a stream file to a fresh list and print the
resulting change trace and final list.

With --db the session is journaled: every event is written with its
outcome, followed by a snapshot of the final list that replay verifies.

Exit codes:
  0 - All events applied
  1 - One or more events were rejected
  2 - Command error (unreadable file, database error, etc.)

Examples:
  listsync apply events.yaml
  listsync apply events.jsonl --db ./listsync.db
  listsync apply events.cue --db ./listsync.db --session s-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default: generated UUIDv7)")
	cmd.Flags().StringSliceVar(&opts.Observe, "observe", nil, "channels to observe (default: all)")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	stream, err := loadStreamOrExit(f, path)
	if err != nil {
		return err
	}

	observe, err := parseChannels(opts.Observe)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --observe", err)
	}

	metrics, err := telemetry.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create metrics", err)
	}

	var rejected []Rejection
	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithErrorHandler(func(d engine.Delivery, err error) {
			rejected = append(rejected, newRejection(d, err))
		}),
	}
	switch {
	case opts.Session != "":
		engOpts = append(engOpts, engine.WithSession(opts.Session))
	case opts.SessionGenerator != nil:
		engOpts = append(engOpts, engine.WithSessionGenerator(opts.SessionGenerator))
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithJournal(st))
	}

	matOpts := []engine.MaterializerOption{
		engine.WithEngineOptions(engOpts...),
		engine.WithListOptions(list.WithLogger(logger), list.WithRecorder(metrics)),
	}
	if observe != nil {
		matOpts = append(matOpts, engine.ObserveOnly(observe...))
	}
	mat, err := engine.NewMaterializer(stream.Layout(), matOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build list", err)
	}
	defer mat.Close()

	eng := mat.Engine()
	if st != nil {
		if err := beginSession(ctx, st, mat.SessionRecord(path)); err != nil {
			return err
		}
	}

	if err := stream.Enqueue(eng); err != nil {
		return WrapExitError(ExitCommandError, "failed to enqueue events", err)
	}
	eng.Stop()
	if err := eng.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "engine error", err)
	}

	// Journal failures surface through the error handler without a code.
	for _, r := range rejected {
		if r.Code == "ERROR" {
			return NewExitError(ExitCommandError, fmt.Sprintf("delivery %d failed: %s", r.Seq, r.Message))
		}
	}

	result := ApplyResult{
		Session:  eng.Session(),
		Mode:     string(mat.Layout().Mode),
		Events:   len(stream.Records),
		Trace:    mat.Trace(),
		Rejected: rejected,
		Loaded:   mat.List().Loaded(),
		Journal:  opts.Database,
	}
	if result.Rejected == nil {
		result.Rejected = []Rejection{}
	}
	for _, e := range mat.List().All() {
		result.Entries = append(result.Entries, EntryOutput{Key: e.Key, Value: e.Value})
	}
	if result.Entries == nil {
		result.Entries = []EntryOutput{}
	}

	snap, err := mat.Snapshot()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to snapshot list", err)
	}
	result.Hash = snap.Hash
	if st != nil {
		if err := st.WriteSnapshot(ctx, snap); err != nil {
			return WrapExitError(ExitCommandError, "failed to write snapshot", err)
		}
	}

	if err := outputApply(f, result); err != nil {
		return err
	}
	if n := len(result.Rejected); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d event(s) rejected", n))
	}
	return nil
}

// beginSession records a new session, refusing to append to an existing one.
func beginSession(ctx context.Context, st *store.Store, sess store.Session) error {
	_, err := st.ReadSession(ctx, sess.ID)
	switch {
	case err == nil:
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s already exists", sess.ID))
	case !errors.Is(err, store.ErrNotFound):
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if err := st.WriteSession(ctx, sess); err != nil {
		return WrapExitError(ExitCommandError, "failed to write session", err)
	}
	return nil
}

func newRejection(d engine.Delivery, err error) Rejection {
	code := string(list.CodeOf(err))
	if code == "" {
		code = "ERROR"
	}
	return Rejection{
		Seq:     d.Seq,
		Channel: d.Channel.String(),
		Key:     d.Key(),
		Code:    code,
		Message: err.Error(),
	}
}

func parseChannels(names []string) ([]engine.Channel, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]engine.Channel, 0, len(names))
	for _, name := range names {
		ch, err := engine.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func outputApply(f *OutputFormatter, result ApplyResult) error {
	if f.JSON() {
		var failure *CLIError
		if len(result.Rejected) > 0 {
			failure = &CLIError{
				Code:    result.Rejected[0].Code,
				Message: fmt.Sprintf("%d event(s) rejected", len(result.Rejected)),
			}
		}
		return f.Result(result, failure)
	}

	w := f.Writer
	fmt.Fprintf(w, "Session: %s (%s, %d events)\n", result.Session, result.Mode, result.Events)
	fmt.Fprintln(w)
	for _, n := range result.Trace {
		fmt.Fprintf(w, "  %s\n", n)
	}
	for _, r := range result.Rejected {
		fmt.Fprintf(w, "  #%d rejected %s %s: %s\n", r.Seq, r.Channel, r.Key, r.Code)
	}
	fmt.Fprintln(w)
	writeEntries(w, result.Entries)
	fmt.Fprintf(w, "\nLoaded: %t\nHash: %s\n", result.Loaded, result.Hash)
	if result.Journal != "" {
		fmt.Fprintf(w, "Journal: %s\n", result.Journal)
	}

	if len(result.Rejected) > 0 {
		fmt.Fprintf(w, "✗ %d event(s) rejected\n", len(result.Rejected))
	} else {
		fmt.Fprintln(w, "✓ All events applied")
	}
	return nil
}

