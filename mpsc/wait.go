package mpsc

import (
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Waiter is called between polls of the lock's head while an Acquire is
// queued. Implementations must return without blocking indefinitely; the
// grant order is fixed by the queue, so a waiter only decides how politely
// a goroutine burns its turn.
//
// A Waiter is used by a single Acquire at a time and may keep state.
type Waiter interface {
	Wait()
}

// WaiterFunc adapts a plain function to the Waiter interface.
type WaiterFunc func()

// Wait calls f.
func (f WaiterFunc) Wait() { f() }

// Yield returns a factory for the default strategy: give up the processor
// with runtime.Gosched on every poll.
func Yield() func() Waiter {
	return func() Waiter { return WaiterFunc(runtime.Gosched) }
}

// Spin returns a factory for a strategy that polls tightly n times before
// each yield. Short critical sections under low contention are handed over
// without a trip through the scheduler.
func Spin(n int) func() Waiter {
	if n < 0 {
		n = 0
	}
	return func() Waiter { return &spinWaiter{limit: n} }
}

type spinWaiter struct {
	limit int
	spins int
}

func (w *spinWaiter) Wait() {
	if w.spins < w.limit {
		w.spins++
		return
	}
	w.spins = 0
	runtime.Gosched()
}

// BackOff returns a factory for a strategy that sleeps for the intervals
// produced by a backoff policy. newPolicy is called once per Acquire since
// backoff.BackOff values are not safe for concurrent use. When the policy
// gives up (backoff.Stop) the waiter falls back to yielding.
func BackOff(newPolicy func() backoff.BackOff) func() Waiter {
	return func() Waiter {
		b := newPolicy()
		b.Reset()
		return &backOffWaiter{policy: b}
	}
}

// ExponentialBackOff is a BackOff policy tuned for lock hand-off: it starts
// at a few microseconds and is capped well below a scheduler tick.
func ExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Microsecond
	b.MaxInterval = 500 * time.Microsecond
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	// Never stop on elapsed time: the queued goroutine must keep polling.
	b.MaxElapsedTime = 0
	return b
}

type backOffWaiter struct {
	policy  backoff.BackOff
	stopped bool
}

func (w *backOffWaiter) Wait() {
	if !w.stopped {
		if d := w.policy.NextBackOff(); d != backoff.Stop {
			time.Sleep(d)
			return
		}
		w.stopped = true
	}
	runtime.Gosched()
}
