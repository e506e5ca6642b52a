package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceQueueFIFO(t *testing.T) {
	require := require.New(t)

	q := NewSliceQueue[int](4)
	require.True(q.IsEmpty())
	require.Equal(0, q.Length())

	_, ok := q.Dequeue()
	require.False(ok)
	_, ok = q.Peek()
	require.False(ok)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)
	require.False(q.IsEmpty())
	require.Equal(3, q.Length())

	head, ok := q.Peek()
	require.True(ok)
	require.Equal(1, head)
	require.Equal(3, q.Length())

	for want := 1; want <= 3; want++ {
		item, ok := q.Dequeue()
		require.True(ok)
		require.Equal(want, item)
	}
	require.True(q.IsEmpty())
}

func TestSliceQueueDrain(t *testing.T) {
	require := require.New(t)

	q := NewSliceQueue[string](4)
	require.Nil(q.Drain())

	q.Enqueue("a")
	q.Enqueue("b")

	items := q.Drain()
	require.Equal([]string{"a", "b"}, items)
	require.True(q.IsEmpty())

	// Items enqueued after a drain never appear in the drained batch.
	q.Enqueue("c")
	require.Equal([]string{"a", "b"}, items)
	require.Equal([]string{"c"}, q.Drain())
}

func TestSliceQueueReset(t *testing.T) {
	require := require.New(t)

	q := NewSliceQueue[int](4)
	q.Enqueue(1)
	q.Enqueue(2)

	q.Reset()
	require.True(q.IsEmpty())
	require.Equal(0, q.Length())

	q.Enqueue(3)
	item, ok := q.Dequeue()
	require.True(ok)
	require.Equal(3, item)
}
