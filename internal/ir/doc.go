// Package ir is the payload model of listsync.
//
// Entry values read from event files and journals are decoded into the
// sealed Value types defined here. ir imports nothing internal, so every
// other package can depend on it.
//
// Key design constraints:
//   - NO float types: numbers are int64, so comparisons and hashes are exact
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
//     and for journal storage
//   - All JSON tags use snake_case
package ir
