package list

import (
	"errors"
	"fmt"
)

// SyncError reports an event that violates the upstream contract.
//
// The list never retries or repairs such an event. It is rejected before any
// mutation and surfaced to whoever delivered it.
type SyncError struct {
	// Code identifies the violation.
	Code ErrorCode

	// Kind is the kind of the rejected event.
	Kind Kind

	// Key is the key the event targeted.
	Key string

	// AfterKey is the sibling key named by the hint (POSITION only).
	AfterKey string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes sync errors.
type ErrorCode string

const (
	// ErrCodeNotFound: a removed, changed or moved event names an absent key.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePosition: a sibling hint names a key absent from the sequence.
	ErrCodePosition ErrorCode = "POSITION"

	// ErrCodeDuplicateKey: an added event names a key already present.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeKindMismatch: an event arrived on the channel of another kind.
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.AfterKey != "" {
		return fmt.Sprintf("%s: %s (kind=%s, key=%s, after=%s)", e.Code, e.Message, e.Kind, e.Key, e.AfterKey)
	}
	return fmt.Sprintf("%s: %s (kind=%s, key=%s)", e.Code, e.Message, e.Kind, e.Key)
}

// CodeOf returns the ErrorCode of err, or "" if err is not a SyncError.
func CodeOf(err error) ErrorCode {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND sync error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsPositionError reports whether err is a POSITION sync error.
func IsPositionError(err error) bool {
	return CodeOf(err) == ErrCodePosition
}

// IsDuplicateKey reports whether err is a DUPLICATE_KEY sync error.
func IsDuplicateKey(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateKey
}

// IsKindMismatch reports whether err is a KIND_MISMATCH sync error.
func IsKindMismatch(err error) bool {
	return CodeOf(err) == ErrCodeKindMismatch
}

// NewNotFoundError creates a SyncError for an absent target key.
func NewNotFoundError(kind Kind, key string) *SyncError {
	return &SyncError{
		Code:    ErrCodeNotFound,
		Kind:    kind,
		Key:     key,
		Message: "key is not in the list",
	}
}

// NewPositionError creates a SyncError for an unknown sibling key.
func NewPositionError(kind Kind, key, afterKey string) *SyncError {
	return &SyncError{
		Code:     ErrCodePosition,
		Kind:     kind,
		Key:      key,
		AfterKey: afterKey,
		Message:  "sibling key is not in the list",
	}
}

// NewDuplicateKeyError creates a SyncError for a key added twice.
func NewDuplicateKeyError(key string) *SyncError {
	return &SyncError{
		Code:    ErrCodeDuplicateKey,
		Kind:    KindAdded,
		Key:     key,
		Message: "key is already in the list",
	}
}

// NewKindMismatchError creates a SyncError for an event delivered on the wrong channel.
func NewKindMismatchError(channel Kind, ev Kind, key string) *SyncError {
	return &SyncError{
		Code:    ErrCodeKindMismatch,
		Kind:    ev,
		Key:     key,
		Message: fmt.Sprintf("event delivered on the %s channel", channel),
	}
}
