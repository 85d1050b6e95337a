// Package container supplies the three generic containers Design Notes §9
// calls for in place of the original's macro-generated span/list/array
// templates: a contiguous span, a push-back list with capacity doubling,
// and a rectangular N-D array with a precomputed block-skip table.
package container

// Span is a fixed-length contiguous sequence, the generic analogue of the
// original's macro-built "span" type: a read/write view with no resizing.
type Span[T any] struct {
	data []T
}

// NewSpan allocates a Span of the given length.
func NewSpan[T any](length int) Span[T] {
	return Span[T]{data: make([]T, length)}
}

// SpanOf wraps an existing slice as a Span without copying.
func SpanOf[T any](data []T) Span[T] {
	return Span[T]{data: data}
}

func (s Span[T]) Len() int { return len(s.data) }

func (s Span[T]) Get(i int) T { return s.data[i] }

func (s *Span[T]) Set(i int, v T) { s.data[i] = v }

// Raw exposes the backing slice for bulk iteration.
func (s Span[T]) Raw() []T { return s.data }
