package dashboard

import (
	"context"
	"sync"
)

// effect binds background fetches to a component's mount lifetime. Fetches
// run on a context derived from the mount context, so detaching cancels them.
type effect struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	inflight int
	idle     chan struct{}
}

// attach starts the mount lifetime. It reports false when already attached.
func (e *effect) attach(parent context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx != nil {
		return false
	}

	e.ctx, e.cancel = context.WithCancel(parent)

	return true
}

// mountCtx returns the mount context, or nil when not attached.
func (e *effect) mountCtx() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ctx
}

// mounted reports whether the effect is attached and not yet detached.
func (e *effect) mounted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ctx != nil && e.ctx.Err() == nil
}

// spawn runs fn on the mount context in its own goroutine.
func (e *effect) spawn(fn func(ctx context.Context)) bool {
	e.mu.Lock()

	if e.ctx == nil || e.ctx.Err() != nil {
		e.mu.Unlock()
		return false
	}

	ctx := e.ctx

	if e.inflight == 0 {
		e.idle = make(chan struct{})
	}

	e.inflight++
	e.mu.Unlock()

	go func() {
		defer e.done()

		fn(ctx)
	}()

	return true
}

func (e *effect) done() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inflight--
	if e.inflight == 0 {
		close(e.idle)
	}
}

// detach cancels every fetch started by this mount. The effect can not be
// re-attached afterwards.
func (e *effect) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
}

// wait blocks until no fetch is in flight or ctx is done.
func (e *effect) wait(ctx context.Context) error {
	e.mu.Lock()

	if e.inflight == 0 {
		e.mu.Unlock()
		return nil
	}

	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// busy reports whether any fetch is in flight.
func (e *effect) busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.inflight > 0
}
