package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/eventfile"
)

func TestExportStdout(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", siblingEvents)

	out, err := runCLI(t, "export", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	stream, err := eventfile.ParseYAML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "sibling", stream.Mode)
	require.Len(t, stream.Records, 5)
	assert.Equal(t, "loaded", stream.Records[4].Kind)
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	journal(t, db, "s-1", rejectingEvents)

	exported := filepath.Join(dir, "exported.yaml")
	out, err := runCLI(t, "export", "--db", db, "--session", "s-1", "-o", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Exported 3 events from s-1")

	_, err = os.Stat(exported)
	require.NoError(t, err)

	original, err := runCLI(t, "--format", "json", "trace", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	// Re-applying the export reproduces the rejection and the final list.
	db2 := filepath.Join(dir, "again.db")
	_, err = runCLI(t, "apply", exported, "--db", db2, "--session", "s-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	again, err := runCLI(t, "--format", "json", "trace", "--db", db2, "--session", "s-1")
	require.NoError(t, err)
	assert.Equal(t, decodeResponse(t, original).Data["timeline"], decodeResponse(t, again).Data["timeline"])
}

func TestExportSortedKeepsLayout(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	path := writeFile(t, dir, "events.jsonl", sortedEvents)
	_, err := runCLI(t, "apply", path, "--db", db, "--session", "s-1")
	require.NoError(t, err)

	out, err := runCLI(t, "export", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	stream, err := eventfile.ParseYAML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "sorted", stream.Mode)
	assert.Equal(t, "score", stream.SortBy)
}

func TestExportUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", siblingEvents)

	_, err := runCLI(t, "export", "--db", db, "--session", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportObservedSubset(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	path := writeFile(t, dir, "events.yaml", siblingEvents)
	_, err := runCLI(t, "apply", path, "--db", db, "--session", "s-1", "--observe", "added,loaded")
	require.NoError(t, err)

	out, err := runCLI(t, "export", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	stream, err := eventfile.ParseYAML([]byte(out))
	require.NoError(t, err)
	kinds := make([]string, len(stream.Records))
	for i, r := range stream.Records {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []string{"added", "added", "loaded"}, kinds, "unheard deliveries are not exported")
}
