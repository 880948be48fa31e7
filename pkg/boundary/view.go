package boundary

import "slices"

// View is a borrowed result of a boundary call. It is valid only until the
// next boundary call on the Exchange that produced it; after that Get
// reports false. Data needed longer must be copied out with Clone or used
// inside Borrow.
type View[T any] struct {
	ex  *Exchange
	gen uint64
	val T
}

func newView[T any](ex *Exchange, val T) View[T] {
	return View[T]{ex: ex, gen: ex.gen, val: val}
}

// Valid reports whether no boundary call has happened since v was returned.
func (v View[T]) Valid() bool {
	return v.ex != nil && v.ex.gen == v.gen
}

// Get returns the borrowed value while the view is valid.
func (v View[T]) Get() (T, bool) {
	if !v.Valid() {
		var zero T
		return zero, false
	}
	return v.val, true
}

// Borrow calls fn with the borrowed value while the view is valid and
// reports whether it did. fn must not keep the value or call back into the
// Exchange.
func Borrow[T any](v View[T], fn func(T)) bool {
	val, ok := v.Get()
	if !ok {
		return false
	}
	fn(val)
	return true
}

// Clone copies a borrowed slice into caller-owned storage.
func Clone[S ~[]E, E any](v View[S]) (S, bool) {
	val, ok := v.Get()
	if !ok {
		return nil, false
	}
	return slices.Clone(val), true
}
