package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock replaces PassLoop.sleep. It records every wait and cancels the loop
// after the given number of pass delays.
type fakeClock struct {
	mu        sync.Mutex
	waits     []time.Duration
	passDelay time.Duration
	passes    int
	stopAfter int
	cancel    context.CancelFunc
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waits = append(c.waits, d)
	if d == c.passDelay {
		c.passes++
		if c.passes >= c.stopAfter {
			c.cancel()
		}
	}
	return ctx.Err()
}

func newTestLoop(symbols []string, stopAfter int) (*PassLoop, *fakeClock, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{passDelay: time.Hour, stopAfter: stopAfter, cancel: cancel}

	l := NewPassLoop("TestLoop", symbols, time.Minute, time.Hour)
	l.sleep = clock.sleep
	return l, clock, ctx
}

func TestPassLoop_Run(t *testing.T) {
	tests := []struct {
		name      string
		symbols   []string
		passes    int
		wantCalls []string
		wantWaits []time.Duration
	}{
		{
			name:      "one pass",
			symbols:   []string{"TSLA", "AAPL", "MSFT"},
			passes:    1,
			wantCalls: []string{"TSLA", "AAPL", "MSFT"},
			wantWaits: []time.Duration{time.Minute, time.Minute, time.Hour},
		},
		{
			name:      "two passes",
			symbols:   []string{"TSLA", "AAPL"},
			passes:    2,
			wantCalls: []string{"TSLA", "AAPL", "TSLA", "AAPL"},
			wantWaits: []time.Duration{time.Minute, time.Hour, time.Minute, time.Hour},
		},
		{
			name:      "single symbol has no symbol delay",
			symbols:   []string{"NVDA"},
			passes:    2,
			wantCalls: []string{"NVDA", "NVDA"},
			wantWaits: []time.Duration{time.Hour, time.Hour},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock, ctx := newTestLoop(tt.symbols, tt.passes)

			var calls []string
			err := l.Run(ctx, func(_ context.Context, symbol string) error {
				calls = append(calls, symbol)
				return nil
			})

			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantWaits, clock.waits)
		})
	}
}

func TestPassLoop_Run_failuresDoNotStopThePass(t *testing.T) {
	l, _, ctx := newTestLoop([]string{"TSLA", "AAPL", "MSFT"}, 1)

	var calls []string
	err := l.Run(ctx, func(_ context.Context, symbol string) error {
		calls = append(calls, symbol)
		switch symbol {
		case "TSLA":
			return errors.New("provider exploded")
		case "AAPL":
			panic("nil map")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"TSLA", "AAPL", "MSFT"}, calls)
}

func TestPassLoop_step_recoversPanic(t *testing.T) {
	l := NewPassLoop("TestLoop", nil, 0, 0)

	err := l.step(context.Background(), func(context.Context, string) error {
		panic("boom")
	}, "TSLA")

	assert.ErrorIs(t, err, errPanicStep)
	assert.ErrorContains(t, err, "boom")
}

func TestPassLoop_Run_stopsBetweenSymbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewPassLoop("TestLoop", []string{"TSLA", "AAPL", "MSFT"}, time.Minute, time.Hour)
	l.sleep = sleepContext

	var calls []string
	err := l.Run(ctx, func(_ context.Context, symbol string) error {
		calls = append(calls, symbol)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"TSLA"}, calls)
}

func TestPassLoop_Run_realDelays(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l := NewPassLoop("TestLoop", []string{"TSLA", "AAPL"}, 5*time.Millisecond, 10*time.Millisecond)

	var mu sync.Mutex
	var calls int
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, func(context.Context, string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 4 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, calls)
}

func Test_sleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
	require.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
