package queue

// Queue defines the interface for a FIFO queue of T.
//
// Implementations are not required to be goroutine-safe; callers serialize
// access with their own lock.
type Queue[T any] interface {
	// Enqueue adds an item to the tail of the queue.
	Enqueue(T)
	// Dequeue removes and returns the item at the head of the queue.
	Dequeue() (T, bool)
	// Peek returns the item at the head of the queue without removing it.
	Peek() (T, bool)
	// Drain removes and returns all queued items in FIFO order,
	// leaving the queue empty.
	Drain() []T
	// Reset to an empty queue.
	Reset()
	// IsEmpty returns true if the queue is empty, false otherwise.
	IsEmpty() bool
	// Length returns the number of items in the queue.
	Length() int
}
