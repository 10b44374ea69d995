package stack

// Stack is a LIFO container used by the streaming decoder to track open
// containers without recursion.
type Stack[T any] struct {
	items []T
}

// NewWithCapacity reduces allocations when the expected nesting depth is known.
func NewWithCapacity[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		items: make([]T, 0, capacity),
	}
}

// Push adds elements in order with the last element at the top.
func (s *Stack[T]) Push(items ...T) {
	s.items = append(s.items, items...)
}

func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	index := len(s.items) - 1
	item := s.items[index]

	var zero T
	s.items[index] = zero // release references held by the popped frame
	s.items = s.items[:index]
	return item, true
}

// PeekRef allows modifying the top element in place.
func (s *Stack[T]) PeekRef() *T {
	if len(s.items) == 0 {
		return nil
	}

	return &s.items[len(s.items)-1]
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Reset empties the stack while keeping its backing storage.
func (s *Stack[T]) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}
