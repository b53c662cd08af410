package mpsc

import (
	"github.com/pkg/errors"
)

var (
	// ErrAllocation is reported when node storage could not be obtained.
	// The lock state is left unchanged.
	ErrAllocation = errors.New("mpsc: node allocation failed")

	// ErrSpuriousRelease is reported when Release finds no linked successor
	// behind the current sentinel, which means the caller does not hold the
	// lock (a double release, or a release that was never paired with an
	// Acquire). No state is mutated.
	ErrSpuriousRelease = errors.New("mpsc: release without a matching acquire")

	// ErrOutOfNodes is returned by LimitAllocator when its budget is spent.
	ErrOutOfNodes = errors.New("mpsc: node budget exhausted")
)

// AllocationError carries the allocator failure behind an ErrAllocation.
// errors.Is matches both ErrAllocation and the allocator's own error.
type AllocationError struct {
	Op  string
	Err error
}

func (e *AllocationError) Error() string {
	return e.Op + ": " + ErrAllocation.Error() + ": " + e.Err.Error()
}

func (e *AllocationError) Unwrap() error { return e.Err }

func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// releaseState names why a Release found no successor.
type releaseState string

const (
	stateIdle    releaseState = "idle"
	stateMidLink releaseState = "mid-link"
)

func spuriousRelease(state releaseState) error {
	return errors.Wrapf(ErrSpuriousRelease, "lock is %s", state)
}
