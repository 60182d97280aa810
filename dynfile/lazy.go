package dynfile

import "sync"

// lazyResult holds a fallible computation that is run at most once, on the
// first call to Get, with the successful result cached for all subsequent
// calls. A failed computation is not cached: a later Get retries it, since
// failures typically mean a collaborator result was missing rather than a
// permanent condition.
//
// Get may be called from multiple goroutines; the mutex serializes the
// first computation so a successful result is computed exactly once.
type lazyResult[T any] struct {
	mu      sync.Mutex
	compute func() (T, error)
	val     T
	done    bool
}

func newLazyResult[T any](compute func() (T, error)) *lazyResult[T] {
	return &lazyResult[T]{compute: compute}
}

// Get returns the computation's result, running it if no successful result
// has been cached yet.
func (l *lazyResult[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.val, nil
	}
	val, err := l.compute()
	if err != nil {
		var zero T
		return zero, err
	}
	l.val = val
	l.done = true
	l.compute = nil
	return l.val, nil
}
