package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelDropsWhenFull(t *testing.T) {
	c := NewChannel(2)
	c.Push([]byte("a"))
	c.Push([]byte("b"))
	c.Push([]byte("c")) // dropped, channel full

	assert.Equal(t, uint64(1), c.Dropped())
	assert.Len(t, c.frames, 2)
}

func TestChannelPushThenDrain(t *testing.T) {
	c := NewChannel(4)
	c.Push([]byte("x"))
	c.Push([]byte("y"))

	assert.Equal(t, []byte("x"), <-c.C())
	assert.Equal(t, []byte("y"), <-c.C())
	assert.Equal(t, uint64(0), c.Dropped())
}
