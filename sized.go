package deepsize

// Sized pairs a value with its footprint captured at construction, so
// footprint-bounded holders (caches, admission queues) can account for
// entries without re-walking them on every balance check. The captured
// figure goes stale if Value is mutated afterwards; rewrap with NewSized
// when that matters.
type Sized[T any] struct {
	Value T
	Bytes uintptr // total footprint of Value when captured
}

var _ Sizer = Sized[struct{}]{}

// NewSized measures v once and wraps it with the result.
func NewSized[T any](v T) Sized[T] {
	return Sized[T]{Value: v, Bytes: Of(v)}
}

// SizeChildren reports the captured heap portion: the total minus the
// inline bytes already present in the holder's own layout. The figure is
// replayed as captured, so sharing between the held value and anything else
// in the same traversal is not deduplicated.
func (s Sized[T]) SizeChildren(*Context) uintptr {
	if inline := SizeOf[T](); s.Bytes > inline {
		return s.Bytes - inline
	}
	return 0
}
