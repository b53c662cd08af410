//go:build mpscdebug

package mpsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLinkIsWriteOnce(t *testing.T) {
	var n Node
	n.link(&Node{})
	assert.Panics(t, func() { n.link(&Node{}) })
}

func TestDestroyWhileHeldPanics(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	require.NoError(t, m.Acquire())
	assert.Panics(t, m.Destroy)

	require.NoError(t, m.Release())
	assert.NotPanics(t, m.Destroy)
}

func TestLinkOnFreedNodePanics(t *testing.T) {
	a := NewTrackingAllocator()
	n, err := a.Allocate()
	require.NoError(t, err)
	a.Free(n)

	assert.Panics(t, func() { n.link(&Node{}) })
	assert.Panics(t, func() { n.successor() })
}

func TestReleaseOfFreedHeadPanics(t *testing.T) {
	m, alloc := newTracked(t)

	// Reclaim the sentinel behind the lock's back.
	alloc.Free(m.head.Load())
	assert.Panics(t, func() { _ = m.Release() })
}

func TestNodeReclamationStressChecked(t *testing.T) {
	m, alloc := newTracked(t)

	const numGoroutines = 8
	const iterations = 2000

	var g errgroup.Group
	for i := 0; i < numGoroutines; i++ {
		g.Go(func() error {
			for range iterations {
				if err := m.Acquire(); err != nil {
					return err
				}
				if err := m.Release(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	// Any link or successor read on a reclaimed node panics in this build.
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, alloc.Live())
	m.Destroy()
	assert.Equal(t, numGoroutines*iterations+1, alloc.Frees())
	assert.Equal(t, 0, alloc.Live())
}
