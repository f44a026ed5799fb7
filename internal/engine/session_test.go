package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	a := gen.Generate()
	b := gen.Generate()

	assert.Len(t, a, 36)
	assert.True(t, IsUUIDv7(a))
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a, b, "UUIDv7 ids sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s-1", "s-2")

	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestIsUUIDv7(t *testing.T) {
	assert.False(t, IsUUIDv7("not-a-uuid"))
	assert.False(t, IsUUIDv7("550e8400-e29b-41d4-a716-446655440000"), "version 4")
}
