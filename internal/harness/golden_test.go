package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"sibling_basic", "sorted_scores", "observe_subset"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			// Regenerate with: go test ./internal/harness -run TestRunWithGolden -update
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Canonical(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Session:      "s",
		Trace: []TraceEvent{
			{Type: TraceRejected, Seq: 1, Kind: "removed", Key: "k", Index: -1, To: -1, Code: "NOT_FOUND"},
		},
		Keys: []string{},
		Hash: "h",
	}

	got, err := snap.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"hash":"h","keys":[],"scenario_name":"tiny","session":"s","trace":[{"code":"NOT_FOUND","index":-1,"key":"k","kind":"removed","seq":1,"to":-1,"type":"rejected"}]}`,
		string(got))
}
