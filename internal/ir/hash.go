package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// The version suffix enables future algorithm migration.
const (
	DomainState = "listsync/state/v1"
	DomainEvent = "listsync/event/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash hashes a materialized list: its keys and values in order.
// Two lists hash equal iff they hold the same entries in the same order.
func StateHash(keys []string, values []Value) (string, error) {
	if len(keys) != len(values) {
		return "", fmt.Errorf("StateHash: %d keys but %d values", len(keys), len(values))
	}
	entries := make(Array, len(keys))
	for i := range keys {
		entries[i] = Array{String(keys[i]), values[i]}
	}
	canonical, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// EventHash hashes one journaled event so replays can detect tampering.
func EventHash(session string, seq int64, kind, key string, value Value) (string, error) {
	obj := Object{
		"session": String(session),
		"seq":     Int(seq),
		"kind":    String(kind),
		"key":     String(key),
		"value":   value,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateHash(keys []string, values []Value) string {
	h, err := StateHash(keys, values)
	if err != nil {
		panic(err)
	}
	return h
}
