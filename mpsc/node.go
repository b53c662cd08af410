package mpsc

import (
	"sync/atomic"

	"github.com/ahrav/go-queuelock/internal/debug"
)

// Node is a queue entry. A node is either the reservation token of a pending
// or granted Acquire, or the sentinel that marks whoever holds, or most
// recently held, the lock.
//
// The successor link is written at most once, by the goroutine whose tail
// exchange returned this node, and read any number of times afterwards.
type Node struct {
	next atomic.Pointer[Node]
}

// poisoned is stored into the successor link of a node once a checking
// allocator has reclaimed it. Any later link or successor read on that node
// is a use after free.
var poisoned = new(Node)

// isPoisoned reports whether n has been reclaimed by a checking allocator.
func (n *Node) isPoisoned() bool { return n.next.Load() == poisoned }

// reset clears the successor link of a node fresh from an Allocator.
func (n *Node) reset() { n.next.Store(nil) }

// link publishes succ as the successor of n.
func (n *Node) link(succ *Node) {
	if debug.Enabled {
		debug.Assert(!n.isPoisoned(), "mpsc: link on freed node %p", n)
		swapped := n.next.CompareAndSwap(nil, succ)
		debug.Assert(swapped, "mpsc: successor of node %p written twice", n)
		return
	}
	n.next.Store(succ)
}

// successor returns the published successor of n, or nil if no one has
// linked itself after n yet.
func (n *Node) successor() *Node {
	succ := n.next.Load()
	if debug.Enabled {
		debug.Assert(succ != poisoned, "mpsc: successor read on freed node %p", n)
	}
	return succ
}
