package mpsc

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Allocator hands out and reclaims queue nodes. Both methods must be safe to
// call from any goroutine without external locking.
//
// Free is called exactly once per node, by the Release that advances the
// lock past it (or by Destroy for the final sentinel). Nodes returned by
// Allocate need not be zeroed; the Mutex clears the successor link itself.
type Allocator interface {
	Allocate() (*Node, error)
	Free(*Node)
}

// HeapAllocator allocates every node on the heap and leaves reclamation to
// the garbage collector. It is the default Allocator.
type HeapAllocator struct{}

// Allocate returns a new zeroed node.
func (HeapAllocator) Allocate() (*Node, error) { return new(Node), nil }

// Free is a no-op; the node becomes garbage once the lock stops referencing it.
func (HeapAllocator) Free(*Node) {}

// PoolAllocator recycles nodes through a sync.Pool.
//
// Reuse is safe: by the time a node is freed the only goroutine that ever
// compared against it has already been granted the lock and no longer looks.
type PoolAllocator struct {
	pool sync.Pool
}

// NewPoolAllocator creates an empty PoolAllocator.
func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{pool: sync.Pool{New: func() any { return new(Node) }}}
}

// Allocate takes a node from the pool, creating one if the pool is empty.
func (p *PoolAllocator) Allocate() (*Node, error) { return p.pool.Get().(*Node), nil }

// Free puts n back into the pool.
func (p *PoolAllocator) Free(n *Node) { p.pool.Put(n) }

// LimitAllocator caps the number of live nodes obtained from an underlying
// Allocator. Once the cap is reached Allocate fails with ErrOutOfNodes until
// a node is freed.
type LimitAllocator struct {
	base  Allocator
	limit int64
	live  atomic.Int64
}

// NewLimitAllocator wraps base so that at most limit nodes are live at once.
// A nil base means HeapAllocator.
func NewLimitAllocator(base Allocator, limit int) *LimitAllocator {
	if base == nil {
		base = HeapAllocator{}
	}
	return &LimitAllocator{base: base, limit: int64(limit)}
}

// Allocate reserves budget and then delegates to the wrapped allocator.
func (a *LimitAllocator) Allocate() (*Node, error) {
	if a.live.Add(1) > a.limit {
		a.live.Add(-1)
		return nil, ErrOutOfNodes
	}
	n, err := a.base.Allocate()
	if err != nil {
		a.live.Add(-1)
		return nil, err
	}
	return n, nil
}

// Free returns n to the wrapped allocator and releases its budget.
func (a *LimitAllocator) Free(n *Node) {
	a.base.Free(n)
	a.live.Add(-1)
}

// Live reports how many nodes are currently allocated.
func (a *LimitAllocator) Live() int { return int(a.live.Load()) }

// TrackingAllocator is a checking allocator. It remembers every node it has
// handed out and panics when a node is freed twice or was never allocated by
// it. Freed nodes are poisoned and never reused; under the mpscdebug build
// tag any later access to a poisoned node through the lock panics.
type TrackingAllocator struct {
	mu     sync.Mutex
	live   map[*Node]struct{}
	allocs int
	frees  int
}

// NewTrackingAllocator creates an empty TrackingAllocator.
func NewTrackingAllocator() *TrackingAllocator {
	return &TrackingAllocator{live: make(map[*Node]struct{})}
}

// Allocate returns a fresh node and records it as live.
func (a *TrackingAllocator) Allocate() (*Node, error) {
	n := new(Node)
	a.mu.Lock()
	a.live[n] = struct{}{}
	a.allocs++
	a.mu.Unlock()
	return n, nil
}

// Free marks n as reclaimed. It panics on double free or foreign nodes.
func (a *TrackingAllocator) Free(n *Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[n]; !ok {
		panic(fmt.Sprintf("mpsc: free of node %p that is not live", n))
	}
	delete(a.live, n)
	a.frees++
	n.next.Store(poisoned)
}

// Live reports the number of nodes allocated and not yet freed.
func (a *TrackingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Allocs reports the total number of nodes handed out.
func (a *TrackingAllocator) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Frees reports the total number of nodes reclaimed.
func (a *TrackingAllocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}
