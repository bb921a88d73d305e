package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*Controller, *clockwork.FakeClock, chan string) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	fired := make(chan string, 10)
	return NewController(clock, func(name string) { fired <- name }), clock, fired
}

func TestStart_FiresExactlyOnceAfterDelay(t *testing.T) {
	ctrl, clock, fired := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := clock.Now()
	deadline, err := ctrl.Start(ctx, "Best Picture", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, start.Add(10*time.Second), deadline)

	clock.Advance(9 * time.Second)
	select {
	case name := <-fired:
		t.Fatalf("countdown for %q fired before its deadline", name)
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	select {
	case name := <-fired:
		assert.Equal(t, "Best Picture", name)
	case <-time.After(time.Second):
		t.Fatal("countdown did not fire")
	}

	clock.Advance(time.Minute)
	select {
	case name := <-fired:
		t.Fatalf("countdown for %q fired twice", name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStart_RejectsWhilePending(t *testing.T) {
	ctrl, clock, fired := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := ctrl.Start(ctx, "Best Actor", 5*time.Second)
	require.NoError(t, err)

	again, err := ctrl.Start(ctx, "Best Actor", time.Second)
	assert.ErrorIs(t, err, ErrCountdownInProgress)
	assert.Equal(t, first, again)

	clock.Advance(5 * time.Second)
	require.Equal(t, "Best Actor", <-fired)

	// Still pending until the owner completes the lock.
	_, pending := ctrl.Pending("Best Actor")
	assert.True(t, pending)
	_, err = ctrl.Start(ctx, "Best Actor", time.Second)
	assert.ErrorIs(t, err, ErrCountdownInProgress)

	ctrl.Complete("Best Actor")
	_, pending = ctrl.Pending("Best Actor")
	assert.False(t, pending)
}

func TestStart_IndependentCategories(t *testing.T) {
	ctrl, clock, fired := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := ctrl.Start(ctx, "A", 2*time.Second)
	require.NoError(t, err)
	_, err = ctrl.Start(ctx, "B", time.Second)
	require.NoError(t, err)

	clock.Advance(time.Second)
	assert.Equal(t, "B", <-fired)
	clock.Advance(time.Second)
	assert.Equal(t, "A", <-fired)
}

func TestStart_ContextCancelStopsTimer(t *testing.T) {
	ctrl, clock, fired := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := ctrl.Start(ctx, "A", time.Second)
	require.NoError(t, err)

	cancel()
	ctrl.Wait()
	clock.Advance(time.Second)

	select {
	case <-fired:
		t.Fatal("cancelled countdown fired")
	case <-time.After(50 * time.Millisecond):
	}
	_, pending := ctrl.Pending("A")
	assert.False(t, pending)
}

func TestDelayFromSeconds(t *testing.T) {
	d, err := DelayFromSeconds(1.5)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = DelayFromSeconds(-1)
	assert.ErrorIs(t, err, ErrInvalidDelay)

	_, err = DelayFromSeconds(0)
	assert.NoError(t, err)

	d, err = DelayFromSeconds(MaxDelay.Seconds())
	require.NoError(t, err)
	assert.Equal(t, MaxDelay, d)

	// large values must not wrap around to a negative duration
	for _, seconds := range []float64{MaxDelay.Seconds() + 1, 1e10, 1e300} {
		d, err = DelayFromSeconds(seconds)
		assert.ErrorIs(t, err, ErrDelayTooLong, "%v", seconds)
		assert.Zero(t, d)
	}
}

func TestStart_RejectsDelayBeyondMaximum(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := ctrl.Start(ctx, "Best Picture", MaxDelay+time.Second)
	assert.ErrorIs(t, err, ErrDelayTooLong)

	_, pending := ctrl.Pending("Best Picture")
	assert.False(t, pending)
}
