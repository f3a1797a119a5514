package timer

// Tracked is a value known locally before the store confirms it.
// The confirmed value always wins once present.
type Tracked[T any] struct {
	Confirmed  *T
	Optimistic *T
}

// Resolve returns confirmed ?? optimistic
func (t Tracked[T]) Resolve() (T, bool) {
	if t.Confirmed != nil {
		return *t.Confirmed, true
	}
	if t.Optimistic != nil {
		return *t.Optimistic, true
	}
	var zero T
	return zero, false
}

// SetOptimistic records the locally assumed value
func (t *Tracked[T]) SetOptimistic(v T) {
	t.Optimistic = &v
}

// Confirm records the value read back from the store
func (t *Tracked[T]) Confirm(v T) {
	t.Confirmed = &v
}

// Rollback drops the optimistic value, e.g. after a failed write
func (t *Tracked[T]) Rollback() {
	t.Optimistic = nil
}

// IsConfirmed returns true once the store value has been seen
func (t Tracked[T]) IsConfirmed() bool {
	return t.Confirmed != nil
}

// Reset clears both values
func (t *Tracked[T]) Reset() {
	t.Confirmed = nil
	t.Optimistic = nil
}
