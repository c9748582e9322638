package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPollerTicksAndStops(t *testing.T) {
	var ticks atomic.Int64
	p := New("test", 10*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// no orphaned timer keeps firing after teardown
	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}

func TestPollerKickRunsBetweenScheduledTicks(t *testing.T) {
	var ticks atomic.Int64
	p := New("test", time.Hour, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx) //nolint:errcheck

	// first tick is immediate
	assert.Eventually(t, func() bool {
		return ticks.Load() == 1
	}, time.Second, time.Millisecond)

	p.Kick()
	assert.Eventually(t, func() bool {
		return ticks.Load() == 2
	}, time.Second, time.Millisecond)
}

func TestPollerSurvivesTickErrors(t *testing.T) {
	var ticks atomic.Int64
	p := New("test", 5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return errors.New("refresh failed")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx) //nolint:errcheck

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, time.Millisecond)
}
