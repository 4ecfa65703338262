// Package async holds the small scheduling primitives shared by the diff host
// and the UI: a single-slot queue where the latest submitted request wins.
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled is returned by Future.Wait when the request was superseded or
// explicitly canceled. It is never a failure of the request itself.
var ErrCanceled = errors.New("async: canceled")

// Job is a unit of work run by Latest.
type Job[T any] func(ctx context.Context) (T, error)

// Future is resolved exactly once with the outcome of the request it was
// chained to.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type request[T any] struct {
	job     Job[T]
	ctx     context.Context
	cancel  context.CancelFunc
	waiters []*Future[T]
}

// Latest runs at most one job at a time. Submitting while a job is queued
// replaces the queued job and moves its waiters onto the replacement. A job
// that already started runs to completion, but its waiters are moved as well
// so they observe the newest outcome.
type Latest[T any] struct {
	mu      sync.Mutex
	running *request[T]
	pending *request[T]
}

// Submit queues job and returns a future for its outcome.
func (l *Latest[T]) Submit(job Job[T]) *Future[T] {
	future := newFuture[T]()
	ctx, cancel := context.WithCancel(context.Background())
	req := &request[T]{job: job, ctx: ctx, cancel: cancel, waiters: []*Future[T]{future}}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		l.pending.cancel()
		req.waiters = append(l.pending.waiters, req.waiters...)
		l.pending = nil
	}
	if l.running != nil {
		req.waiters = append(l.running.waiters, req.waiters...)
		l.running.waiters = nil
		l.pending = req
		return future
	}
	l.running = req
	go l.run(req)
	return future
}

// Cancel resolves every waiter with ErrCanceled and drops the queued job. The
// running job's context is canceled.
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if l.pending != nil {
		l.pending.cancel()
		for _, w := range l.pending.waiters {
			w.resolve(zero, ErrCanceled)
		}
		l.pending = nil
	}
	if l.running != nil {
		l.running.cancel()
		for _, w := range l.running.waiters {
			w.resolve(zero, ErrCanceled)
		}
		l.running.waiters = nil
	}
}

// Busy reports whether a job is running or queued.
func (l *Latest[T]) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running != nil || l.pending != nil
}

func (l *Latest[T]) run(req *request[T]) {
	value, err := req.job(req.ctx)
	if req.ctx.Err() != nil && err != nil {
		err = ErrCanceled
	}
	req.cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range req.waiters {
		w.resolve(value, err)
	}
	req.waiters = nil
	l.running = nil
	if l.pending != nil {
		l.running = l.pending
		l.pending = nil
		go l.run(l.running)
	}
}
