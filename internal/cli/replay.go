package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string  `json:"session"`
	Mode          string  `json:"mode"`
	Applied       int     `json:"applied"`
	Rejected      int     `json:"rejected"`
	Entries       int     `json:"entries"`
	Hash          string  `json:"hash"`
	Expected      string  `json:"expected,omitempty"`
	Corrupt       []int64 `json:"corrupt,omitempty"`
	Error         string  `json:"error,omitempty"`
	Deterministic bool    `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Rebuild each journaled session from its applied events and compare the
resulting state hash with the snapshot written when it was applied. Event
hashes are checked as well, so edited journal rows are reported.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (hash mismatch, tampering, missing snapshot)
  2 - Command error (database not found, etc.)

Examples:
  listsync replay --db ./listsync.db
  listsync replay --db ./listsync.db --session s-1
  listsync replay --db ./listsync.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var ids []string
	if opts.Session != "" {
		ids = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		TotalSessions:    len(ids),
		AllDeterministic: true,
	}
	if len(ids) == 0 {
		if f.JSON() {
			return outputReplayJSON(f, result)
		}
		fmt.Fprintln(f.Writer, "No sessions found in database.")
		return nil
	}

	for _, id := range ids {
		res, err := replaySession(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}
		result.Sessions = append(result.Sessions, res)
		if !res.Deterministic {
			result.AllDeterministic = false
		}
	}

	if f.JSON() {
		return outputReplayJSON(f, result)
	}
	return outputReplayText(f, result)
}

// replaySession rebuilds one session and checks it against its snapshot.
// A replay that rejects an event is reported as non-deterministic rather
// than returned as an error.
func replaySession(ctx context.Context, st *store.Store, id string) (ReplaySessionResult, error) {
	state, err := st.GetSessionState(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	res := ReplaySessionResult{
		Session:  id,
		Mode:     state.Session.Mode,
		Applied:  state.Applied,
		Rejected: state.Rejected,
		Corrupt:  state.Corrupt,
	}

	replayed, err := engine.Replay(ctx, st, id)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	defer replayed.Materializer.Close()

	res.Hash = replayed.Hash
	res.Expected = replayed.Expected
	res.Entries = replayed.Materializer.List().Len()
	res.Deterministic = replayed.Match() && len(state.Corrupt) == 0
	if !state.HasSnapshot {
		res.Error = "no snapshot"
	}
	return res, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	var failure *CLIError
	if !result.AllDeterministic {
		failure = &CLIError{Code: ErrCodeDeterminism, Message: "determinism verification failed"}
	}
	return f.Result(result, failure)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		fmt.Fprintf(w, "%s Session: %s (%s)\n", statusMark(s.Deterministic), s.Session, s.Mode)
		fmt.Fprintf(w, "  Events: %d applied, %d rejected; %d entries\n", s.Applied, s.Rejected, s.Entries)

		if f.Verbose {
			fmt.Fprintf(w, "  Hash:     %s\n", s.Hash)
			fmt.Fprintf(w, "  Expected: %s\n", s.Expected)
		}
		if len(s.Corrupt) > 0 {
			fmt.Fprintf(w, "  Warning: event hash mismatch at seq %v\n", s.Corrupt)
		}
		if s.Error != "" {
			fmt.Fprintf(w, "  Warning: %s\n", s.Error)
		} else if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
