package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/listsync/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", ev)
		}
	}
	return buf.String()
}

// String renders the event in trace form.
func (ev TraceEvent) String() string {
	switch {
	case ev.Type == TraceRejected:
		return fmt.Sprintf("#%d rejected %s %s: %s", ev.Seq, ev.Kind, ev.Key, ev.Code)
	case ev.Kind == "loaded":
		return fmt.Sprintf("#%d loaded", ev.Seq)
	case ev.Kind == "moved":
		return fmt.Sprintf("#%d moved %s %d->%d", ev.Seq, ev.Key, ev.Index, ev.To)
	default:
		return fmt.Sprintf("#%d %s %s @%d", ev.Seq, ev.Kind, ev.Key, ev.Index)
	}
}

// assertTraceContains checks for a notification matching kind and, when
// given, key, index and destination.
func assertTraceContains(result *Result, a Assertion) error {
	for _, ev := range result.Changes() {
		if ev.Kind != a.Kind {
			continue
		}
		if a.Key != "" && ev.Key != a.Key {
			continue
		}
		if a.Index != nil && ev.Index != *a.Index {
			continue
		}
		if a.To != nil && ev.To != *a.To {
			continue
		}
		return nil
	}

	want := a.Kind
	if a.Key != "" {
		want += " " + a.Key
	}
	if a.Index != nil {
		want += fmt.Sprintf(" @%d", *a.Index)
	}
	if a.To != nil {
		want += fmt.Sprintf(" ->%d", *a.To)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "notification " + want,
		Actual:   "no matching notification",
		Trace:    result.Trace,
	}
}

// assertTraceOrder checks that the kinds appear in order among the
// notifications. Intervening notifications are allowed.
func assertTraceOrder(result *Result, a Assertion) error {
	next := 0
	for _, ev := range result.Changes() {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(a.Kinds), a.Kinds[next]),
		Trace:    result.Trace,
	}
}

// assertTraceCount checks that kind appears exactly Count times.
func assertTraceCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Changes() {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertRejectedCount(result *Result, a Assertion) error {
	if n := len(result.Rejections()); n != a.Count {
		return &AssertionError{
			Type:     AssertRejectedCount,
			Expected: fmt.Sprintf("%d rejected events", a.Count),
			Actual:   fmt.Sprintf("%d rejected events", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertFinalKeys(result *Result, a Assertion) error {
	want := a.Keys
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(result.Keys, want) {
		return &AssertionError{
			Type:     AssertFinalKeys,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", result.Keys),
		}
	}
	return nil
}

func assertFinalValue(result *Result, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("final_value %s: %w", a.Key, err)
	}
	got, ok := result.Values[a.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("entry %s", a.Key),
			Actual:   "key absent",
		}
	}
	if !ir.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", a.Key, canonicalString(want)),
			Actual:   fmt.Sprintf("%s = %s", a.Key, canonicalString(got)),
		}
	}
	return nil
}

func assertLoaded(result *Result, a Assertion) error {
	if result.Loaded != a.Loaded {
		return &AssertionError{
			Type:     AssertLoaded,
			Expected: fmt.Sprintf("loaded=%t", a.Loaded),
			Actual:   fmt.Sprintf("loaded=%t", result.Loaded),
		}
	}
	return nil
}

func canonicalString(v ir.Value) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		case AssertRejectedCount:
			err = assertRejectedCount(result, assertion)
		case AssertFinalKeys:
			err = assertFinalKeys(result, assertion)
		case AssertFinalValue:
			err = assertFinalValue(result, assertion)
		case AssertLoaded:
			err = assertLoaded(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
