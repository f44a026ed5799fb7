package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/listsync/internal/engine"
)

var (
	_ engine.Sequencer        = (*DeterministicClock)(nil)
	_ engine.SessionGenerator = (*FixedSessionGenerator)(nil)
)

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	c.Reset()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
}

func TestDeterministicClock_DrivesEngine(t *testing.T) {
	c := NewDeterministicClock()
	e := engine.New(engine.WithClock(c), engine.WithSessionGenerator(NewFixedSessionGenerator("")))

	assert.Equal(t, DefaultSession, e.Session())
	assert.Equal(t, int64(0), e.Seq())
	c.Next()
	assert.Equal(t, int64(1), e.Seq())
}

func TestFixedSessionGenerator(t *testing.T) {
	g := NewFixedSessionGenerator("s-9")
	for range 3 {
		assert.Equal(t, "s-9", g.Generate())
	}
}
