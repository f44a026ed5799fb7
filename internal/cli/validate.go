package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/eventfile"
	"github.com/roach88/listsync/internal/list"
)

// ValidationError is one problem found in an event file.
type ValidationError struct {
	Event   int    `json:"event,omitempty"` // 1-based event index, 0 for stream-level problems
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Events int               `json:"events"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <events-file>",
		Short: "Check an event file without journaling it",
		Long: `Parse an event file, check it structurally, and dry-run it against
an in-memory list to find contract violations such as unknown keys,
duplicate adds and unknown sibling hints.

Exit codes:
  0 - File is valid and every event applies
  1 - Structural problems or rejected events
  2 - Command error (file missing or unparseable)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	stream, err := LoadStream(path)
	var le *LoadError
	switch {
	case err == nil:
	case errors.As(err, &le) && le.Code == ErrCodeInvalid:
		return outputValidationErrors(formatter, structuralErrors(le.Err))
	case errors.As(err, &le):
		return outputValidateError(formatter, le.Code, le.Message, nil)
	default:
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	formatter.VerboseLog("Parsed %d event(s) from %s", len(stream.Records), path)

	errs, err := DryRun(cmd.Context(), stream)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter, len(stream.Records))
}

// structuralErrors flattens the joined errors of Stream.Validate.
func structuralErrors(err error) []ValidationError {
	var out []ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationError{Code: ErrCodeInvalid, Message: e.Error()})
		}
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Code: ErrCodeInvalid, Message: err.Error()})
	}
	return out
}

// DryRun applies the stream to an in-memory list, one step per event, and
// reports every rejected event.
func DryRun(ctx context.Context, stream *eventfile.Stream) ([]ValidationError, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	mat, err := engine.NewMaterializer(stream.Layout(),
		engine.WithEngineOptions(engine.WithLogger(quiet), engine.WithSession("dry-run")),
		engine.WithListOptions(list.WithLogger(quiet)),
	)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	var errs []ValidationError
	eng := mat.Engine()
	for i, rec := range stream.Records {
		d, err := rec.Delivery()
		if err != nil {
			return nil, err
		}
		eng.Enqueue(d)
		if _, err := eng.Step(ctx); err != nil {
			code := string(list.CodeOf(err))
			if code == "" {
				code = ErrCodeGeneric
			}
			errs = append(errs, ValidationError{Event: i + 1, Line: rec.Line, Code: code, Message: err.Error()})
		}
	}
	return errs, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, events int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Events: events})
	}
	fmt.Fprintf(formatter.Writer, "✓ Event file valid (%d events)\n", events)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load failures are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.JSON() {
		return formatter.Result(ValidationResult{Valid: false, Errors: errs}, &CLIError{
			Code:    errs[0].Code,
			Message: errs[0].Message,
		})
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		switch {
		case err.Line > 0:
			fmt.Fprintf(formatter.Writer, "event %d, line %d\n", err.Event, err.Line)
		case err.Event > 0:
			fmt.Fprintf(formatter.Writer, "event %d\n", err.Event)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
