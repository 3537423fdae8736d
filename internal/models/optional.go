package models

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// OrZero returns the value, or the zero value of T when absent.
// For strings this is the empty-string default persisted for skipped fields.
func (o Optional[T]) OrZero() T {
	if !o.set {
		var zero T
		return zero
	}
	return o.value
}
