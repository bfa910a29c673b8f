package viewer

import "context"

// Future is the pending result of an asynchronous viewer call. It completes
// exactly once.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Async runs fn on a new goroutine and returns a Future for its result. The
// context passed to fn is canceled when the Future is canceled or when ctx is.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancel asks the call to stop. The Future still completes, normally with
// a context error.
func (f *Future[T]) Cancel() {
	f.cancel()
}

// Wait blocks until the result is available or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
