package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPushPeekPop(t *testing.T) {
	b := NewBuffer(3)
	assert.True(t, b.Empty())
	assert.Equal(t, 3, b.Capacity())

	assert.True(t, b.Push(1))
	assert.True(t, b.Push(2))
	assert.True(t, b.Push(3))
	assert.True(t, b.Full())
	assert.False(t, b.Push(4))

	v, err := b.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	x, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2, b.Count())
}

func TestBufferPeekEmptyError(t *testing.T) {
	b := NewBuffer(2)
	_, err := b.Peek()
	assert.ErrorIs(t, err, ErrEmpty)

	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestBufferPushOverwrite(t *testing.T) {
	b := NewBuffer(3)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	evicted, didEvict := b.PushOverwrite(4)
	require.True(t, didEvict)
	assert.Equal(t, 1.0, evicted)
	assert.Equal(t, []float64{2, 3, 4}, b.ToSlice())
}

func TestBufferRoundTrip(t *testing.T) {
	cases := []struct {
		capacity int
		pushes   []float64
	}{
		{1, []float64{1, 2, 3}},
		{2, []float64{1, 2, 3, 4, 5}},
		{8, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{100, []float64{1, 2, 3}},
	}

	for _, c := range cases {
		b := NewBuffer(c.capacity)
		for _, x := range c.pushes {
			b.PushOverwrite(x)
		}
		snapshot := b.ToSlice()

		restored := NewBuffer(c.capacity)
		restored.FromSlice(snapshot)
		assert.Equal(t, snapshot, restored.ToSlice())
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(2)
	b.Push(1)
	b.Push(2)
	b.Clear()
	assert.True(t, b.Empty())
	assert.Equal(t, 0, b.Count())
	assert.True(t, b.Push(9))
}
