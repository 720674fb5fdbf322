package dbpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	pingErr error
	pings   int
	closed  bool
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func healthyFactory(dialed *atomic.Int64) func(context.Context) (*fakeConn, error) {
	return func(context.Context) (*fakeConn, error) {
		if dialed != nil {
			dialed.Add(1)
		}
		return &fakeConn{}, nil
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 2})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, conn.pings, "acquire must validate the handle")

	idle, lent := p.Stats()
	assert.Equal(t, 0, idle)
	assert.Equal(t, 1, lent)

	p.Release(ctx, conn)
	idle, lent = p.Stats()
	assert.Equal(t, 1, idle)
	assert.Equal(t, 0, lent)
	assert.False(t, conn.isClosed())
}

func TestPoolReusesIdleHandle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var dialed atomic.Int64
	p, err := New(ctx, healthyFactory(&dialed), Options{MaxConns: 2})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	first, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(ctx, first)

	second, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), dialed.Load())
}

func TestPoolValidationDiscardsAndRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 2})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	stale, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(ctx, stale)
	stale.mu.Lock()
	stale.pingErr = errors.New("server closed the connection")
	stale.mu.Unlock()

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, stale, conn)
	assert.True(t, stale.isClosed(), "stale handle must be closed, not pooled")
}

func TestPoolValidationFailsAfterRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pingErr := errors.New("no route to host")
	factory := func(context.Context) (*fakeConn, error) {
		return &fakeConn{pingErr: pingErr}, nil
	}
	p, err := New(ctx, factory, Options{MaxConns: 1})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, pingErr)

	// The permit must have been returned: a later acquire with a healthy
	// factory succeeds instead of hanging.
	p.factory = healthyFactory(nil)
	acqCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	conn, err := p.Acquire(acqCtx)
	require.NoError(t, err)
	p.Release(ctx, conn)
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 1})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	held, err := p.Acquire(ctx)
	require.NoError(t, err)

	got := make(chan *fakeConn)
	go func() {
		conn, err := p.Acquire(ctx)
		if err != nil {
			close(got)
			return
		}
		got <- conn
	}()

	select {
	case <-got:
		t.Fatal("second acquire completed while pool was at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(ctx, held)
	select {
	case conn := <-got:
		require.NotNil(t, conn)
		p.Release(ctx, conn)
	case <-time.After(time.Second):
		t.Fatal("release did not unblock the waiting acquire")
	}
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 1})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	held, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(ctx, held)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolShutdownFailsFast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MinConns: 2, MaxConns: 2})
	require.NoError(t, err)

	idle, _ := p.Stats()
	require.Equal(t, 2, idle, "min connections must be dialed eagerly")

	p.Shutdown(ctx)
	p.Shutdown(ctx) // idempotent

	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestPoolReleaseAfterShutdownCloses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 1})
	require.NoError(t, err)

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)

	p.Shutdown(ctx)
	p.Release(ctx, conn)
	assert.True(t, conn.isClosed())

	idle, lent := p.Stats()
	assert.Zero(t, idle)
	assert.Zero(t, lent)
}

func TestPoolReleaseUntrackedCloses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 1})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	stranger := &fakeConn{}
	p.Release(ctx, stranger)
	assert.True(t, stranger.isClosed())

	idle, _ := p.Stats()
	assert.Zero(t, idle, "untracked handle must not be pooled")
}

func TestPoolDiscardFreesCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MaxConns: 1})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Discard(ctx, conn)
	assert.True(t, conn.isClosed())

	acqCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	next, err := p.Acquire(acqCtx)
	require.NoError(t, err)
	assert.NotSame(t, conn, next)
	p.Release(ctx, next)
}

func TestPoolWarmupFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dialErr := errors.New("connection refused")
	var made []*fakeConn
	factory := func(context.Context) (*fakeConn, error) {
		if len(made) == 1 {
			return nil, dialErr
		}
		c := &fakeConn{}
		made = append(made, c)
		return c, nil
	}

	_, err := New(ctx, factory, Options{MinConns: 2, MaxConns: 4})
	require.ErrorIs(t, err, dialErr)
	require.Len(t, made, 1)
	assert.True(t, made[0].isClosed(), "warm-up failure must close dialed handles")
}

func TestPoolConcurrentChurn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, err := New(ctx, healthyFactory(nil), Options{MinConns: 2, MaxConns: 4})
	require.NoError(t, err)
	defer p.Shutdown(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				conn, err := p.Acquire(ctx)
				if err != nil {
					t.Error(err)
					return
				}
				p.Release(ctx, conn)
			}
		}()
	}
	wg.Wait()

	idle, lent := p.Stats()
	assert.Zero(t, lent)
	assert.LessOrEqual(t, idle, 4+2)
}
