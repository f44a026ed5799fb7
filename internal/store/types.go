package store

import "github.com/roach88/listsync/internal/ir"

// Session describes one materialization run.
//
// Observe lists the channels the list was subscribed to. Nil means every
// channel; replay must subscribe to the same subset to rebuild the state.
type Session struct {
	ID      string   `json:"id"`
	Mode    string   `json:"mode"`
	SortBy  string   `json:"sort_by,omitempty"`
	Source  string   `json:"source,omitempty"`
	Observe []string `json:"observe,omitempty"`
}

// Event is one journaled delivery and its outcome.
//
// Kind is the channel name ("added" ... "loaded"). For loaded events Key is
// empty and Value carries the load-completion signal. HasAfter distinguishes
// a sibling hint naming AfterKey from a place-first hint.
type Event struct {
	Session   string   `json:"session"`
	Seq       int64    `json:"seq"`
	Kind      string   `json:"kind"`
	Key       string   `json:"key,omitempty"`
	HasAfter  bool     `json:"has_after,omitempty"`
	AfterKey  string   `json:"after_key,omitempty"`
	Value     ir.Value `json:"value"`
	Applied   bool     `json:"applied"`
	ErrorCode string   `json:"error_code,omitempty"`
	Hash      string   `json:"hash"`
}

// SnapshotEntry is one entry of a stored sequence.
type SnapshotEntry struct {
	Key   string
	Value ir.Value
}

// Snapshot is the materialized sequence of a session after its last event.
type Snapshot struct {
	Session string
	Seq     int64
	Hash    string
	Loaded  bool
	Entries []SnapshotEntry
}

// Keys returns the snapshot keys in order.
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the snapshot values in order.
func (s Snapshot) Values() []ir.Value {
	vals := make([]ir.Value, len(s.Entries))
	for i, e := range s.Entries {
		vals[i] = e.Value
	}
	return vals
}
