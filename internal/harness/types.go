package harness

import (
	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
)

// Trace event types.
const (
	TraceChange   = "change"
	TraceRejected = "rejected"
)

// TraceEvent is one entry of a scenario trace: an observer notification or
// a rejected event.
type TraceEvent struct {
	Type  string   `json:"type"`
	Seq   int64    `json:"seq"`
	Kind  string   `json:"kind"`
	Key   string   `json:"key,omitempty"`
	Index int      `json:"index"`
	To    int      `json:"to"`
	Value ir.Value `json:"value,omitempty"`
	// Code is the error code of a rejected event.
	Code string `json:"code,omitempty"`
}

func changeEvent(n engine.Notification) TraceEvent {
	return TraceEvent{
		Type:  TraceChange,
		Seq:   n.Seq,
		Kind:  n.Kind,
		Key:   n.Key,
		Index: n.Index,
		To:    n.To,
		Value: n.Value,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Session is the session id the run journaled under.
	Session string `json:"session"`

	// Trace contains notifications and rejections in dispatch order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Keys is the final key order.
	Keys []string `json:"keys"`

	// Values maps each final key to its value.
	Values map[string]ir.Value `json:"values"`

	// Loaded is the final load-completion flag.
	Loaded bool `json:"loaded"`

	// Hash is the state hash of the final list.
	Hash string `json:"hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Keys:   []string{},
		Values: make(map[string]ir.Value),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Changes returns the notification entries of the trace.
func (r *Result) Changes() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == TraceChange {
			out = append(out, ev)
		}
	}
	return out
}

// Rejections returns the rejected entries of the trace.
func (r *Result) Rejections() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == TraceRejected {
			out = append(out, ev)
		}
	}
	return out
}
