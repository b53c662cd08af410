package mpsc

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiterFunc(t *testing.T) {
	calls := 0
	var w Waiter = WaiterFunc(func() { calls++ })
	w.Wait()
	w.Wait()
	assert.Equal(t, 2, calls)
}

func TestYieldReturns(t *testing.T) {
	w := Yield()()
	for range 10 {
		w.Wait()
	}
}

func TestSpinWaiter(t *testing.T) {
	w, ok := Spin(3)().(*spinWaiter)
	require.True(t, ok)

	for i := 1; i <= 3; i++ {
		w.Wait()
		assert.Equal(t, i, w.spins)
	}
	// The fourth poll yields and starts a new spin round.
	w.Wait()
	assert.Equal(t, 0, w.spins)
}

func TestSpinNegativeLimit(t *testing.T) {
	w := Spin(-5)().(*spinWaiter)
	assert.Equal(t, 0, w.limit)
	w.Wait()
	assert.Equal(t, 0, w.spins)
}

func TestSpinWaitersAreIndependent(t *testing.T) {
	newWaiter := Spin(2)
	a := newWaiter().(*spinWaiter)
	b := newWaiter().(*spinWaiter)
	a.Wait()
	assert.Equal(t, 1, a.spins)
	assert.Equal(t, 0, b.spins)
}

func TestBackOffWaiterFallsBackToYield(t *testing.T) {
	policies := 0
	newWaiter := BackOff(func() backoff.BackOff {
		policies++
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	})

	w := newWaiter().(*backOffWaiter)
	assert.Equal(t, 1, policies)

	w.Wait()
	w.Wait()
	assert.False(t, w.stopped)
	w.Wait()
	assert.True(t, w.stopped, "policy exhausted after two retries")
	w.Wait()
	assert.True(t, w.stopped)

	newWaiter()
	assert.Equal(t, 2, policies, "every Acquire gets its own policy")
}

func TestBackOffWaiterSleeps(t *testing.T) {
	w := BackOff(func() backoff.BackOff {
		return backoff.NewConstantBackOff(2 * time.Millisecond)
	})()

	start := time.Now()
	w.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestExponentialBackOffBounds(t *testing.T) {
	b := ExponentialBackOff()
	b.Reset()
	for range 50 {
		d := b.NextBackOff()
		require.NotEqual(t, backoff.Stop, d, "lock hand-off policy must never stop")
		// MaxInterval plus the randomization factor.
		assert.LessOrEqual(t, d, 750*time.Microsecond)
	}
}
