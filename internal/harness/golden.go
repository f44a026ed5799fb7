package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/listsync/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Session      string
	Trace        []TraceEvent
	Keys         []string
	Hash         string
}

// NewTraceSnapshot captures the golden-relevant parts of a result.
func NewTraceSnapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenarioName,
		Session:      result.Session,
		Trace:        result.Trace,
		Keys:         result.Keys,
		Hash:         result.Hash,
	}
}

// toValue converts the snapshot to an ir.Value so it can be encoded with
// ir.MarshalCanonical.
func (s *TraceSnapshot) toValue() ir.Value {
	trace := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		obj := ir.Object{
			"type":  ir.String(ev.Type),
			"seq":   ir.Int(ev.Seq),
			"kind":  ir.String(ev.Kind),
			"index": ir.Int(int64(ev.Index)),
			"to":    ir.Int(int64(ev.To)),
		}
		if ev.Key != "" {
			obj["key"] = ir.String(ev.Key)
		}
		if ev.Value != nil {
			obj["value"] = ev.Value
		}
		if ev.Code != "" {
			obj["code"] = ir.String(ev.Code)
		}
		trace[i] = obj
	}

	keys := make(ir.Array, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = ir.String(k)
	}

	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"session":       ir.String(s.Session),
		"trace":         trace,
		"keys":          keys,
		"hash":          ir.String(s.Hash),
	}
}

// MarshalCanonical encodes the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toValue())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
