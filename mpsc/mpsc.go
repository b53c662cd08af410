// Package mpsc implements a FIFO mutual exclusion lock on top of an intrusive,
// lock-free, multi-producer single-consumer linked queue.
//
// The lock is a variant of the CLH queue lock (Craig; Landin and Hagersten)
// built from Vyukov's MPSC queue. Every Acquire appends a node to the queue
// with a single atomic exchange on the tail, links the previous tail to it,
// and then waits until the head reaches that previous tail. Release advances
// the head by one link, handing the lock to the next goroutine in arrival
// order, and frees the sentinel it stepped over.
//
// The lock provides:
//   - FIFO ordering: the tail exchange totally orders all Acquire calls and
//     the head only ever moves one link at a time, in that order
//   - Starvation freedom, given a scheduler that eventually runs every
//     runnable goroutine
//   - No OS blocking: queued goroutines poll and yield (see Waiter)
//
// Example usage:
//
//	m, err := mpsc.New()
//	if err != nil {
//	    return err
//	}
//	defer m.Destroy()
//
//	if err := m.Acquire(); err != nil {
//	    return err
//	}
//	// ... critical section ...
//	if err := m.Release(); err != nil {
//	    return err
//	}
//
// The lock is NOT reentrant: a goroutine holding it that calls Acquire again
// deadlocks. Release must only be called by the current holder. Destroy must
// only be called when no goroutine holds or waits for the lock. None of these
// preconditions is checked at runtime unless the package is built with the
// mpscdebug tag.
package mpsc

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/cpu"

	"github.com/ahrav/go-queuelock/internal/debug"
)

// Mutex is a FIFO queue lock. Create one with New.
//
// head is the sentinel of the current or most recent holder; it is written
// only by Release. tail is the most recently enqueued node; it is written
// only by the exchange in Acquire. The two live on separate cache lines since
// waiters poll head while arrivals contend on tail.
type Mutex struct {
	head atomic.Pointer[Node]
	_    cpu.CacheLinePad
	tail atomic.Pointer[Node]
	_    cpu.CacheLinePad

	alloc     Allocator
	newWaiter func() Waiter
	log       logrus.FieldLogger
}

// New creates a Mutex with its initial sentinel node. If the sentinel cannot
// be allocated New returns an error matching ErrAllocation and no Mutex.
func New(opts ...Option) (*Mutex, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &Mutex{
		alloc:     o.alloc,
		newWaiter: o.newWaiter,
		log:       o.log.WithField("component", "mpsc"),
	}

	sentinel, err := m.newNode("new")
	if err != nil {
		return nil, err
	}
	m.head.Store(sentinel)
	m.tail.Store(sentinel)
	return m, nil
}

func (m *Mutex) newNode(op string) (*Node, error) {
	n, err := m.alloc.Allocate()
	if err == nil && n == nil {
		err = ErrOutOfNodes
	}
	if err != nil {
		m.log.WithError(err).WithField("op", op).Error("node allocation failed")
		return nil, &AllocationError{Op: op, Err: err}
	}
	n.reset()
	return n, nil
}

// Acquire blocks until the calling goroutine holds the lock.
//
// It fails only when a queue node cannot be allocated, in which case the
// lock is untouched and the caller holds nothing.
func (m *Mutex) Acquire() error {
	mine, err := m.newNode("acquire")
	if err != nil {
		return err
	}

	// Our place in line is fixed the moment the exchange completes.
	prev := m.tail.Swap(mine)
	prev.link(mine)

	// prev is only compared from here on, never dereferenced: whoever
	// advances head past it frees it.
	if m.head.Load() == prev {
		return nil
	}
	w := m.newWaiter()
	for m.head.Load() != prev {
		w.Wait()
	}
	return nil
}

// Release hands the lock to the next queued goroutine, or leaves it free if
// there is none.
//
// If no successor is linked behind the current sentinel the caller cannot be
// holding the lock (the holder always links its own node before it is
// granted). Release then changes nothing and returns an error matching
// ErrSpuriousRelease.
func (m *Mutex) Release() error {
	sentinel := m.head.Load()
	if debug.Enabled {
		debug.Assert(!sentinel.isPoisoned(), "mpsc: head %p was already freed", sentinel)
	}
	next := sentinel.successor()
	if next == nil {
		// An idle lock has head == tail. A different tail means an Acquire
		// has exchanged but not linked yet; it already owns the lock, since
		// head is its prev, so waiting for the link and advancing would
		// take the lock away from it.
		state := stateIdle
		if m.tail.Load() != sentinel {
			state = stateMidLink
		}
		m.log.WithField("state", string(state)).Warn("spurious release")
		return spuriousRelease(state)
	}

	m.head.Store(next)
	m.alloc.Free(sentinel)
	return nil
}

// Lock acquires the lock. It panics if a queue node cannot be allocated.
// Lock and Unlock let a Mutex be used as a sync.Locker.
func (m *Mutex) Lock() {
	if err := m.Acquire(); err != nil {
		panic(err)
	}
}

// Unlock releases the lock. It panics on a spurious release.
func (m *Mutex) Unlock() {
	if err := m.Release(); err != nil {
		panic(err)
	}
}

// IsFree reports whether the lock was idle at the moment of the call.
func (m *Mutex) IsFree() bool { return m.head.Load() == m.tail.Load() }

// Destroy frees the final sentinel node. The caller must guarantee that no
// goroutine holds the lock or is queued on it; the Mutex must not be used
// afterwards. Calling Destroy again is a no-op.
func (m *Mutex) Destroy() {
	sentinel := m.head.Load()
	if sentinel == nil {
		return
	}
	debug.Assert(sentinel == m.tail.Load(), "mpsc: Destroy called while the lock is held or contended")
	m.head.Store(nil)
	m.tail.Store(nil)
	m.alloc.Free(sentinel)
}
