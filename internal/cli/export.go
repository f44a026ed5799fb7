package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/eventfile"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Session  string
	Output   string // optional - stdout when empty
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a journaled session back out as an event file",
		Long: `Rebuild the event stream of a journaled session and write it as YAML.
Rejected events are included, so applying the exported file reproduces
the same trace, rejections and final list.

Examples:
  listsync export --db ./listsync.db --session s-1
  listsync export --db ./listsync.db --session s-1 -o replayed.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to export (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
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

	sess, err := st.ReadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	events, err := st.ReadEvents(ctx, opts.Session, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	stream := eventfile.FromJournal(sess, events)
	data, err := stream.MarshalYAML()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode events", err)
	}

	if opts.Output == "" {
		_, err := f.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	n := len(stream.Records)
	f.VerboseLog("wrote %d events to %s", n, opts.Output)
	if f.JSON() {
		return f.Success(map[string]any{
			"session": sess.ID,
			"events":  n,
			"output":  opts.Output,
		})
	}
	fmt.Fprintf(f.Writer, "✓ Exported %d events from %s to %s\n", n, sess.ID, opts.Output)
	return nil
}
