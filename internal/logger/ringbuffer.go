package logger

import "sync"

// RingBuffer is a fixed-capacity FIFO that overwrites its oldest item when full.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	count int
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push appends item, evicting the oldest one if the buffer is full.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.items)
	r.items[(r.head+r.count)%size] = item
	if r.count < size {
		r.count++
		return
	}
	r.head = (r.head + 1) % size
}

// GetAll returns every item from oldest to newest.
func (r *RingBuffer[T]) GetAll() []T {
	return r.Last(-1)
}

// Last returns the newest n items, oldest first. A negative n returns everything.
func (r *RingBuffer[T]) Last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 || n > r.count {
		n = r.count
	}
	out := make([]T, n)
	start := r.head + r.count - n
	for i := range out {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Len returns the number of buffered items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
