package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateHashDeterminism(t *testing.T) {
	keys := []string{"a", "b"}
	vals := []Value{Int(1), Object{"x": String("y")}}

	h1, err := StateHash(keys, vals)
	require.NoError(t, err)
	h2, err := StateHash(keys, vals)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestStateHashSensitiveToOrder(t *testing.T) {
	ab := MustStateHash([]string{"a", "b"}, []Value{Int(1), Int(2)})
	ba := MustStateHash([]string{"b", "a"}, []Value{Int(2), Int(1)})
	changed := MustStateHash([]string{"a", "b"}, []Value{Int(1), Int(3)})

	assert.NotEqual(t, ab, ba, "order is part of the state")
	assert.NotEqual(t, ab, changed)
}

func TestStateHashEmpty(t *testing.T) {
	h, err := StateHash(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainState, []byte("[]")), h)
}

func TestStateHashLengthMismatch(t *testing.T) {
	_, err := StateHash([]string{"a"}, nil)
	assert.Error(t, err)
}

func TestEventHash(t *testing.T) {
	h1, err := EventHash("s1", 1, "added", "a", Int(1))
	require.NoError(t, err)
	h2, err := EventHash("s1", 2, "added", "a", Int(1))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`[]`)
	assert.NotEqual(t, hashWithDomain(DomainState, data), hashWithDomain(DomainEvent, data))
}
