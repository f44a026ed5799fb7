// Package list maintains a locally materialized, ordered, keyed view of a remote
// collection that changes only through a stream of mutation events.
//
// Four event channels feed a List: added, removed, changed and moved. A fifth
// channel carries an opaque load-completion signal. Each event is applied as one
// synchronous step:
//
//  1. The target position is resolved (sibling-key hint or comparator search)
//  2. The sequence is mutated in place
//  3. The matching observer is called with the positional delta
//  4. The Change is returned to the caller that delivered the event
//
// A violating event (unknown key, unknown sibling, duplicate key) is rejected
// before step 2, so the sequence always stays in its last-known-good state.
//
// Two variants share the same skeleton:
//
//   - New: entries are placed after the key named by each event's Hint.
//   - NewSorted: entries are placed by a total-order comparator over values.
//     Hints are ignored and a changed value may move its entry.
//
// A List has exactly one writer. It takes no locks; the transport that owns
// the sources must deliver events one at a time.
package list
