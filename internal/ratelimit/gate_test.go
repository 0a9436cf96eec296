package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_FirstCallPassesImmediately(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGateWithClock(100*time.Millisecond, fc)

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first Wait should not block")
	}
}

func TestGate_SecondCallWaitsForInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGateWithClock(100*time.Millisecond, fc)

	require.NoError(t, g.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	// Second Wait must block until the fake clock advances.
	fc.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("second Wait returned before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(100 * time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second Wait did not return after the interval elapsed")
	}
}

func TestGate_NoWaitWhenIntervalAlreadyElapsed(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGateWithClock(100*time.Millisecond, fc)

	require.NoError(t, g.Wait(context.Background()))
	fc.Advance(150 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait should pass without blocking once the interval has elapsed")
	}
}

func TestGate_ContextAlreadyCancelled(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGateWithClock(100*time.Millisecond, fc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestGate_ContextCancelledWhileWaiting(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := NewGateWithClock(time.Second, fc)

	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Wait(ctx) }()

	fc.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}
