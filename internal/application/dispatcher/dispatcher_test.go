package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/procurement-flow/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

func newEvent() *event.Event {
	return event.NewEvent(event.TypeStatusChanged, "req-1", "DA-000001", "user-1", nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("registers handlers in order", func(t *testing.T) {
		d := NewDispatcher()
		noop := func(ctx context.Context, evt *event.Event) error { return nil }

		d.Subscribe(event.TypeStatusChanged, "lark", noop)
		d.Subscribe(event.TypeStatusChanged, "slack", noop)
		d.Subscribe(event.TypeOverrideTaken, "lark", noop)

		assert.Equal(t, []string{"lark", "slack"}, d.Handlers(event.TypeStatusChanged))
		assert.Equal(t, []string{"lark"}, d.Handlers(event.TypeOverrideTaken))
		assert.Empty(t, d.Handlers(event.TypeChildCreated))
	})

	t.Run("logs registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeStatusChanged, "lark", func(ctx context.Context, evt *event.Event) error { return nil })

		assert.Contains(t, logger.infos, "Handler registered")
	})
}

func TestDispatch(t *testing.T) {
	t.Run("dispatches to all handlers synchronously", func(t *testing.T) {
		d := NewDispatcher()
		var order []string
		d.Subscribe(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "first")
			return nil
		})
		d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "second")
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), newEvent()))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		boom := errors.New("boom")
		called := false
		d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.Subscribe(event.TypeStatusChanged, "after", func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newEvent())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.False(t, called, "handlers after a failure must not run")
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeStatusChanged, "panicky", func(ctx context.Context, evt *event.Event) error {
			panic("channel exploded")
		})

		err := d.Dispatch(context.Background(), newEvent())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler panic")
		assert.True(t, logger.HasError("Handler panic recovered"))
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())

		assert.Error(t, d.Dispatch(context.Background(), newEvent()))
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("dispatches to handlers asynchronously", func(t *testing.T) {
		d := NewDispatcher()
		var count atomic.Int32
		for _, name := range []string{"a", "b", "c"} {
			d.Subscribe(event.TypeStatusChanged, name, func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newEvent())
		require.NoError(t, d.Close())

		assert.Equal(t, int32(3), count.Load())
	})

	t.Run("swallows handler errors and logs them", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return errors.New("lark unavailable")
		})

		d.DispatchAsync(context.Background(), newEvent())
		require.NoError(t, d.Close())

		assert.True(t, logger.HasError("Async handler error"))
	})

	t.Run("recovers from handler panic asynchronously", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeStatusChanged, "panicky", func(ctx context.Context, evt *event.Event) error {
			panic("boom")
		})

		d.DispatchAsync(context.Background(), newEvent())
		require.NoError(t, d.Close())

		assert.True(t, logger.HasError("Handler panic recovered"))
	})

	t.Run("survives cancellation of the producing context", func(t *testing.T) {
		d := NewDispatcher()
		var sawCancel atomic.Bool
		started := make(chan struct{})
		release := make(chan struct{})
		d.Subscribe(event.TypeStatusChanged, "slow", func(ctx context.Context, evt *event.Event) error {
			close(started)
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, newEvent())
		<-started
		cancel()
		close(release)
		require.NoError(t, d.Close())

		assert.False(t, sawCancel.Load())
	})

	t.Run("bounds handlers with a timeout", func(t *testing.T) {
		d := NewDispatcher(WithHandlerTimeout(20 * time.Millisecond))
		var deadlineHit atomic.Bool
		d.Subscribe(event.TypeStatusChanged, "hanging", func(ctx context.Context, evt *event.Event) error {
			<-ctx.Done()
			deadlineHit.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
			return ctx.Err()
		})

		d.DispatchAsync(context.Background(), newEvent())
		require.NoError(t, d.Close())

		assert.True(t, deadlineHit.Load())
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Bool
		d.Subscribe(event.TypeStatusChanged, "h", func(ctx context.Context, evt *event.Event) error {
			called.Store(true)
			return nil
		})
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), newEvent())

		assert.False(t, called.Load())
		assert.True(t, logger.HasError("Cannot dispatch async event, dispatcher is closed"))
	})
}

func TestClose(t *testing.T) {
	t.Run("waits for async handlers to complete", func(t *testing.T) {
		d := NewDispatcher()
		var done atomic.Bool
		d.Subscribe(event.TypeStatusChanged, "slow", func(ctx context.Context, evt *event.Event) error {
			time.Sleep(30 * time.Millisecond)
			done.Store(true)
			return nil
		})

		d.DispatchAsync(context.Background(), newEvent())
		require.NoError(t, d.Close())

		assert.True(t, done.Load())
	})

	t.Run("no handler outlives close when dispatch races it", func(t *testing.T) {
		for round := 0; round < 20; round++ {
			d := NewDispatcher()
			var started, finished atomic.Int32
			d.Subscribe(event.TypeStatusChanged, "slow", func(ctx context.Context, evt *event.Event) error {
				started.Add(1)
				time.Sleep(5 * time.Millisecond)
				finished.Add(1)
				return nil
			})

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					d.DispatchAsync(context.Background(), newEvent())
				}()
			}

			require.NoError(t, d.Close())
			afterClose := finished.Load()
			wg.Wait()

			// handlers admitted before Close are awaited; later dispatches are refused
			assert.Equal(t, started.Load(), afterClose, "round %d", round)
			assert.Equal(t, started.Load(), finished.Load())
		}
	})

	t.Run("returns error on double close", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())
		assert.Error(t, d.Close())
	})
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Subscribe(event.TypeStatusChanged, "h", func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), newEvent())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), count.Load())
}
