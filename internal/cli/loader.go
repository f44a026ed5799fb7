package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/eventfile"
	"github.com/roach88/listsync/internal/store"
)

// LoadError represents an error that occurred while loading an event file.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadStream reads an event file and checks it structurally.
func LoadStream(path string) (*eventfile.Stream, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("event file not found: %s", path), Err: err}
	}

	stream, err := eventfile.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), Err: err}
	}
	if err := stream.Validate(); err != nil {
		return stream, &LoadError{Code: ErrCodeInvalid, Message: err.Error(), Err: err}
	}
	return stream, nil
}

// loadStreamOrExit wraps LoadStream for commands that cannot continue
// with an invalid stream.
func loadStreamOrExit(f *OutputFormatter, path string) (*eventfile.Stream, error) {
	stream, err := LoadStream(path)
	if err == nil {
		return stream, nil
	}
	code := ErrCodeGeneric
	var le *LoadError
	if errors.As(err, &le) {
		code = le.Code
	}
	_ = f.Error(code, err.Error(), nil)
	return nil, WrapExitError(ExitCommandError, "failed to load event file", err)
}

// openExisting opens a journal that must already exist. store.Open would
// otherwise create an empty database at a mistyped path.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
