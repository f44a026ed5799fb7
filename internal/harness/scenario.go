package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/eventfile"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

// Scenario defines a conformance test scenario: events to deliver to a
// list and assertions over the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is an optional fixed session id.
	// If empty, testutil.DefaultSession is used.
	Session string `yaml:"session,omitempty"`

	Mode   string `yaml:"mode,omitempty"`
	SortBy string `yaml:"sort_by,omitempty"`

	// Observe lists the channels that get an observer. Empty means all.
	Observe []string `yaml:"observe,omitempty"`

	// Source is an event file to deliver instead of Events.
	Source string `yaml:"source,omitempty"`

	// Events are delivered in order, one engine step each.
	Events []Step `yaml:"events,omitempty"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one event of a scenario.
type Step struct {
	Kind    string  `yaml:"kind"`
	Key     string  `yaml:"key,omitempty"`
	After   *string `yaml:"after,omitempty"`
	Value   any     `yaml:"value,omitempty"`
	Signal  any     `yaml:"signal,omitempty"`
	Channel string  `yaml:"channel,omitempty"`

	// ExpectError is the error code the step must be rejected with.
	// Empty means the step must apply.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// record converts the step to an event file record.
func (s Step) record() (eventfile.Record, error) {
	rec := eventfile.Record{Kind: s.Kind, Key: s.Key, After: s.After, Channel: s.Channel}
	if s.Value != nil {
		v, err := ir.FromGo(s.Value)
		if err != nil {
			return eventfile.Record{}, fmt.Errorf("value: %w", err)
		}
		rec.Value = v
	}
	if s.Signal != nil {
		v, err := ir.FromGo(s.Signal)
		if err != nil {
			return eventfile.Record{}, fmt.Errorf("signal: %w", err)
		}
		rec.Signal = v
	}
	return rec, nil
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Kind  string `yaml:"kind,omitempty"`
	Key   string `yaml:"key,omitempty"`
	Index *int   `yaml:"index,omitempty"`
	To    *int   `yaml:"to,omitempty"`

	// Kinds is the expected kind order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Keys is the expected key order (final_keys).
	Keys []string `yaml:"keys,omitempty"`

	// Value is the expected entry value (final_value).
	Value any `yaml:"value,omitempty"`

	// Count is the expected number of occurrences.
	Count int `yaml:"count,omitempty"`

	// Loaded is the expected load-completion flag.
	Loaded bool `yaml:"loaded,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalKeys     = "final_keys"
	AssertFinalValue    = "final_value"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRejectedCount = "rejected_count"
	AssertLoaded        = "loaded"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Source != "" && !filepath.IsAbs(scenario.Source) {
		scenario.Source = filepath.Join(filepath.Dir(path), scenario.Source)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// stream returns the event stream the scenario delivers and the expected
// error code per event. Events from a source file carry no expectations.
func (s *Scenario) stream() (*eventfile.Stream, []string, error) {
	if s.Source != "" {
		st, err := eventfile.Load(s.Source)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	}

	st := &eventfile.Stream{Mode: s.Mode, SortBy: s.SortBy}
	expect := make([]string, 0, len(s.Events))
	for i, step := range s.Events {
		rec, err := step.record()
		if err != nil {
			return nil, nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		st.Records = append(st.Records, rec)
		expect = append(expect, step.ExpectError)
	}
	return st, expect, nil
}

// observeChannels parses Observe. A nil result means all channels.
func (s *Scenario) observeChannels() ([]engine.Channel, error) {
	if len(s.Observe) == 0 {
		return nil, nil
	}
	out := make([]engine.Channel, 0, len(s.Observe))
	for _, name := range s.Observe {
		ch, err := engine.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source != "" && len(s.Events) > 0:
		return fmt.Errorf("source and events are mutually exclusive")
	case s.Source != "" && (s.Mode != "" || s.SortBy != ""):
		return fmt.Errorf("mode and sort_by come from the source file")
	case s.Source == "" && len(s.Events) == 0:
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if s.Source != "" {
		if _, err := os.Stat(s.Source); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", s.Source)
		}
	}

	if _, err := s.observeChannels(); err != nil {
		return fmt.Errorf("observe: %w", err)
	}

	for i, step := range s.Events {
		if step.Kind == "" {
			return fmt.Errorf("events[%d]: kind is required", i)
		}
		if step.ExpectError != "" && !knownCode(step.ExpectError) {
			return fmt.Errorf("events[%d]: unknown error code %q", i, step.ExpectError)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func knownCode(code string) bool {
	switch list.ErrorCode(code) {
	case list.ErrCodeNotFound, list.ErrCodePosition, list.ErrCodeDuplicateKey, list.ErrCodeKindMismatch:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalKeys, AssertLoaded:
	case AssertFinalValue:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for final_value", index)
		}
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRejectedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for rejected_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
