package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(keys ...string) []Entry[int] {
	out := make([]Entry[int], len(keys))
	for i, k := range keys {
		out[i] = Entry[int]{Key: k, Value: i}
	}
	return out
}

func TestResolveSibling(t *testing.T) {
	seq := entries("a", "b", "c")

	tests := []struct {
		name string
		seq  []Entry[int]
		hint Hint
		want int
	}{
		{"first on empty", nil, First(), 0},
		{"first on populated", seq, First(), 0},
		{"after head", seq, After("a"), 1},
		{"after middle", seq, After("b"), 2},
		{"after tail", seq, After("c"), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSibling(tt.seq, tt.hint, KindAdded, "k")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSibling_UnknownKey(t *testing.T) {
	_, err := ResolveSibling(entries("a"), After("z"), KindMoved, "a")
	require.Error(t, err)

	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodePosition, se.Code)
	assert.Equal(t, KindMoved, se.Kind)
	assert.Equal(t, "z", se.AfterKey)
}

func TestResolveSorted(t *testing.T) {
	seq := []Entry[int]{{"a", 10}, {"b", 20}, {"c", 20}, {"d", 30}}

	tests := []struct {
		value int
		want  int
	}{
		{5, 0},
		{10, 1},
		{15, 1},
		{20, 3},
		{25, 3},
		{30, 4},
		{99, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveSorted(seq, tt.value, intCmp), "value %d", tt.value)
	}
	assert.Equal(t, 0, ResolveSorted(nil, 1, intCmp))
}

func TestIndexOfKey(t *testing.T) {
	seq := entries("a", "b")
	assert.Equal(t, 1, IndexOfKey(seq, "b"))
	assert.Equal(t, -1, IndexOfKey(seq, "z"))
	assert.Equal(t, -1, IndexOfKey[int](nil, "a"))
}
