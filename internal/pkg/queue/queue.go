package queue

import (
	"errors"
	"sync"
)

var (
	ErrInvalidCapacity = errors.New("capacity should be greater than 0")
	ErrFull            = errors.New("queue is full")
	ErrEmpty           = errors.New("queue is empty")
)

// Bounded first in, first out queue, safe for concurrent use.
type Queue[T any] struct {
	mu       sync.Mutex
	capacity int
	q        []T
}

// Creates an empty queue with a specified capacity
func CreateQueue[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{
		capacity: capacity,
		q:        make([]T, 0, min(capacity, 64)),
	}, nil
}

// Inserts the item into the queue
func (q *Queue[T]) Insert(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.q) < q.capacity {
		q.q = append(q.q, item)
		return nil
	}
	return ErrFull
}

// Removes the oldest element from the queue
func (q *Queue[T]) Remove() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.q) == 0 {
		return zero, ErrEmpty
	}
	item := q.q[0]
	q.q[0] = zero
	q.q = q.q[1:]
	return item, nil
}

// Returns the number of elements in the queue
func (q *Queue[T]) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.q)
}

// Returns true if the queue is empty
func (q *Queue[T]) IsEmpty() bool {
	return q.Length() == 0
}
