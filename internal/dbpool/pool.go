// Package dbpool provides a small bounded connection pool with explicit
// handle tracking. Handles move acquire -> validate -> use -> release; a
// handle that fails validation is discarded and replaced once before the
// acquire reports failure. Releasing a handle the pool is not tracking
// closes it rather than corrupting pool state.
//
// The pool is generic over the connection type so tests can drive it with
// fakes; production code instantiates it with *pgx.Conn (see pgx.go).
package dbpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Acquire after Shutdown.
var ErrClosed = errors.New("dbpool: pool is closed")

// Conn is the minimal connection surface the pool manages.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options bound the pool.
type Options struct {
	// MinConns connections are dialed eagerly by New.
	MinConns int
	// MaxConns caps concurrently lent handles. Defaults to 4.
	MaxConns int
}

// Pool is a bounded pool of C. All methods are safe for concurrent use.
type Pool[C Conn] struct {
	factory func(context.Context) (C, error)

	permits chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	idle   []C
	lent   map[Conn]struct{}
	closed bool
}

// New builds a pool around factory and dials MinConns connections up front.
// A warm-up dial failure closes anything already dialed and fails New.
func New[C Conn](ctx context.Context, factory func(context.Context) (C, error), opts Options) (*Pool[C], error) {
	if opts.MaxConns <= 0 {
		opts.MaxConns = 4
	}
	if opts.MinConns < 0 {
		opts.MinConns = 0
	}
	if opts.MinConns > opts.MaxConns {
		opts.MinConns = opts.MaxConns
	}

	p := &Pool[C]{
		factory: factory,
		permits: make(chan struct{}, opts.MaxConns),
		done:    make(chan struct{}),
		lent:    make(map[Conn]struct{}),
	}
	for i := 0; i < opts.MaxConns; i++ {
		p.permits <- struct{}{}
	}

	for i := 0; i < opts.MinConns; i++ {
		c, err := factory(ctx)
		if err != nil {
			p.Shutdown(ctx)
			return nil, fmt.Errorf("dbpool: warm connection %d: %w", i+1, err)
		}
		p.idle = append(p.idle, c)
	}
	return p, nil
}

// Acquire returns a validated handle, blocking while the pool is at
// capacity. It fails fast with ErrClosed after Shutdown and with ctx.Err()
// on cancellation; it never hangs on a closed pool.
func (p *Pool[C]) Acquire(ctx context.Context) (C, error) {
	var zero C

	select {
	case <-p.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.permits:
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		conn, err := p.next(ctx)
		if err != nil {
			p.permits <- struct{}{}
			return zero, err
		}
		if err := conn.Ping(ctx); err != nil {
			_ = conn.Close(ctx)
			lastErr = err
			continue
		}
		p.mu.Lock()
		p.lent[conn] = struct{}{}
		p.mu.Unlock()
		return conn, nil
	}

	p.permits <- struct{}{}
	return zero, fmt.Errorf("dbpool: connection validation failed after retry: %w", lastErr)
}

// Release returns a handle to the pool. Handles the pool is not tracking,
// and any handle released after Shutdown, are closed instead of pooled.
// Release never fails.
func (p *Pool[C]) Release(ctx context.Context, conn C) {
	p.mu.Lock()
	_, tracked := p.lent[conn]
	delete(p.lent, conn)
	if !tracked || p.closed {
		p.mu.Unlock()
		_ = conn.Close(ctx)
		if tracked {
			p.permits <- struct{}{}
		}
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
	p.permits <- struct{}{}
}

// Discard closes a handle the caller knows is broken instead of pooling it.
func (p *Pool[C]) Discard(ctx context.Context, conn C) {
	p.mu.Lock()
	_, tracked := p.lent[conn]
	delete(p.lent, conn)
	p.mu.Unlock()
	_ = conn.Close(ctx)
	if tracked {
		p.permits <- struct{}{}
	}
}

// Shutdown closes all idle handles and makes subsequent Acquires fail with
// ErrClosed. Handles still lent out are closed as they come back through
// Release. Shutdown is idempotent.
func (p *Pool[C]) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	close(p.done)
	for _, c := range idle {
		_ = c.Close(ctx)
	}
}

// Stats reports pool occupancy, for logs and tests.
func (p *Pool[C]) Stats() (idle, lent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), len(p.lent)
}

// next pops an idle handle or dials a fresh one.
func (p *Pool[C]) next(ctx context.Context) (C, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		var zero C
		return zero, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()
	return p.factory(ctx)
}
