package common

// RingBuffer is a fixed-capacity FIFO window. Once full, each Add evicts the oldest value.
// It is not safe for concurrent use; owners serialize access.
//
// Adapted from https://medium.com/@nathanbcrocker/a-practical-guide-to-implementing-a-generic-ring-buffer-in-go-866d27ec1a05.
type RingBuffer[T any] struct {
	buffer []T
	size   int
	write  int
	count  int
}

// NewRingBuffer creates a new ring buffer with a fixed size.
// Sizes below 1 are treated as 1.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Add inserts a new element into the buffer, overwriting the oldest if full.
// The overwritten element, if any, is returned with evicted=true.
func (rb *RingBuffer[T]) Add(value T) (old T, evicted bool) {
	if rb.count == rb.size {
		old, evicted = rb.buffer[rb.write], true
	}
	rb.buffer[rb.write] = value
	rb.write = (rb.write + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	}
	return old, evicted
}

// Get returns the contents of the buffer in FIFO order.
func (rb *RingBuffer[T]) Get() []T {
	result := make([]T, 0, rb.count)
	rb.Scan(func(v T) bool {
		result = append(result, v)
		return true
	})
	return result
}

// Len returns the current number of elements in the buffer.
func (rb *RingBuffer[T]) Len() int {
	return rb.count
}

// Cap returns the fixed capacity.
func (rb *RingBuffer[T]) Cap() int {
	return rb.size
}

func (rb *RingBuffer[T]) Last() T {
	return rb.buffer[(rb.write+rb.size-1)%rb.size]
}

func (rb *RingBuffer[T]) First() T {
	return rb.buffer[(rb.write+rb.size-rb.count)%rb.size]
}

func (rb *RingBuffer[T]) Scan(fn func(T) bool) {
	for i := 0; i < rb.count; i++ {
		index := (rb.write + rb.size - rb.count + i) % rb.size
		if !fn(rb.buffer[index]) {
			break
		}
	}
}

// Reset empties the buffer without reallocating.
func (rb *RingBuffer[T]) Reset() {
	var zero T
	for i := range rb.buffer {
		rb.buffer[i] = zero
	}
	rb.write, rb.count = 0, 0
}
