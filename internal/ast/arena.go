package ast

type Arena[T any] struct {
	data []T
}

// NewArena allocates an arena with capacity capHint; zero is allowed.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate stores value and returns its 1-based index; 0 stays "no element".
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	return uint32(len(a.data))
}

func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || index > uint32(len(a.data)) {
		return nil
	}
	return &a.data[index-1]
}

// Slice exposes the backing storage. Callers must treat it as read-only.
func (a *Arena[T]) Slice() []T {
	return a.data
}

func (a *Arena[T]) Len() uint32 {
	return uint32(len(a.data))
}

// Clone returns a deep-enough copy for copy-on-write reparsing: the slice
// header and elements are copied, so appends and element writes on the
// clone never touch the original.
func (a *Arena[T]) Clone() *Arena[T] {
	out := make([]T, len(a.data), len(a.data)+len(a.data)/4+8)
	copy(out, a.data)
	return &Arena[T]{data: out}
}
