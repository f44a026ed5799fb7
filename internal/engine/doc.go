// Package engine delivers event streams to listsync lists.
//
// The engine stands in for the remote database client: it owns one Feed per
// channel (added, removed, changed, moved, loaded), a FIFO delivery queue and
// a logical clock. A list subscribes to the feeds through Sources().
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Deliveries are dispatched one at a time from a single goroutine. This
// ensures:
//   - Every list sees events in enqueue order
//   - Each delivery's step (resolve, mutate, notify) completes before the next
//   - The journal records the exact order a replay must reproduce
//
// Event Processing Flow:
//  1. Deliveries are enqueued (from any goroutine)
//  2. Step/Drain/Run dequeues one delivery at a time
//  3. The delivery is stamped with the next seq and emitted on its feed
//  4. Subscribers run synchronously; their errors come back to the engine
//  5. The outcome is written to the journal, if one is configured
//
// Logical Clock:
// Deliveries are stamped with a monotonic seq from the Clock at dispatch
// time, never with wall-clock timestamps.
//
// Error Handling:
// Drain stops at the first rejected delivery. Run logs and continues, since
// retrying a rejected event would not be deterministic.
package engine
