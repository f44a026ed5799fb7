package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMissingFlags(t *testing.T) {
	_, err := runCLI(t, "trace", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", rejectingEvents)

	out, err := runCLI(t, "trace", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Session: s-1 (sibling)")
	assert.Contains(t, out, "[1] added   a ok")
	assert.Contains(t, out, "[2] removed ghost NOT_FOUND")
	assert.Contains(t, out, "[3] added   b (after a) ok")
	assert.Contains(t, out, "Total Events: 3")
	assert.Contains(t, out, "Rejected:     1")
	assert.Contains(t, out, "Snapshot:     true")
}

func TestTraceVerbose(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", siblingEvents)

	out, err := runCLI(t, "-v", "trace", "--db", db, "--session", "s-1")
	require.NoError(t, err)

	assert.Contains(t, out, `Value: {"title":"first"}`)
	assert.Contains(t, out, `[5] loaded  {"page":1} ok`)
	assert.Contains(t, out, "Hash: ")
}

func TestTraceFilters(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", rejectingEvents)

	t.Run("rejected", func(t *testing.T) {
		out, err := runCLI(t, "--format", "json", "trace", "--db", db, "--session", "s-1", "--rejected")
		require.NoError(t, err)

		resp := decodeResponse(t, out)
		timeline := resp.Data["timeline"].([]any)
		require.Len(t, timeline, 1)
		ev := timeline[0].(map[string]any)
		assert.Equal(t, "ghost", ev["key"])
		assert.Equal(t, "NOT_FOUND", ev["code"])
		assert.Equal(t, false, ev["applied"])

		stats := resp.Data["stats"].(map[string]any)
		assert.Equal(t, float64(3), stats["total_events"], "stats cover the whole journal")
	})

	t.Run("kind", func(t *testing.T) {
		out, err := runCLI(t, "--format", "json", "trace", "--db", db, "--session", "s-1", "--kind", "added")
		require.NoError(t, err)

		resp := decodeResponse(t, out)
		timeline := resp.Data["timeline"].([]any)
		require.Len(t, timeline, 2)
		assert.Equal(t, "b", timeline[1].(map[string]any)["key"])
		assert.Equal(t, "a", timeline[1].(map[string]any)["after"])
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := runCLI(t, "trace", "--db", db, "--session", "s-1", "--kind", "bogus")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestTraceUnknownSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	journal(t, db, "s-1", siblingEvents)

	_, err := runCLI(t, "trace", "--db", db, "--session", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
