// Package harness runs conformance scenarios against the list engine.
//
// # Scenario Format
//
// Scenarios are YAML files (unknown fields rejected):
//
//	name: sibling_move
//	description: "A move reports origin and destination"
//	mode: sibling            # or sorted, with sort_by
//	observe: [added, moved]  # optional, default all channels
//	events:
//	  - {kind: added, key: a}
//	  - {kind: added, key: b, after: a}
//	  - {kind: moved, key: a, value: null, after: b}
//	  - {kind: removed, key: zz, expect_error: NOT_FOUND}
//	assertions:
//	  - type: final_keys
//	    keys: [b, a]
//	  - type: trace_contains
//	    kind: moved
//	    key: a
//	    index: 0
//	    to: 1
//
// Instead of inline events a scenario may name an event file with
// "source:"; the path is resolved relative to the scenario file and the
// layout is taken from that file.
//
// # Assertion Types
//
//   - final_keys: the final key order equals keys
//   - final_value: the entry at key holds value
//   - trace_contains: a notification matches kind, key and, if given, index and to
//   - trace_order: the notification kinds appear in this order (subsequence)
//   - trace_count: exactly count notifications of kind
//   - rejected_count: exactly count events were rejected
//   - loaded: the load-completion flag equals loaded
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal, a deterministic logical clock
// (testutil.DeterministicClock) and a fixed session id, so traces are
// byte-identical across runs and can be compared with golden files. After
// the events are applied the run replays its own journal and fails if the
// rebuilt state hash differs.
package harness
