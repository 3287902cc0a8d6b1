// Package collection provides utility data structures.
package collection

// Queue is a FIFO work list for breadth-first walks. Iter drains it, and
// elements pushed while iterating are visited by the same loop.
type Queue[T any] struct {
	data []T
	head int
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(v T) {
	q.data = append(q.data, v)
}

// Iter pops elements in insertion order until the queue is empty or yield
// returns false. Elements left after a break stay queued.
func (q *Queue[T]) Iter(yield func(T) bool) {
	for q.head < len(q.data) {
		v := q.data[q.head]
		var zero T
		q.data[q.head] = zero
		q.head++

		if !yield(v) {
			break
		}
	}

	if q.head == len(q.data) {
		q.data, q.head = q.data[:0], 0
	}
}
