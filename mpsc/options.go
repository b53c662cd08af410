package mpsc

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Mutex.
type Option func(*options)

type options struct {
	alloc     Allocator
	newWaiter func() Waiter
	log       logrus.FieldLogger
}

func defaultOptions() options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return options{
		alloc:     HeapAllocator{},
		newWaiter: Yield(),
		log:       l,
	}
}

// WithAllocator sets the allocator used for queue nodes.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

// WithWaiter sets the strategy used between polls while queued. See Yield,
// Spin and BackOff.
func WithWaiter(newWaiter func() Waiter) Option {
	return func(o *options) {
		if newWaiter != nil {
			o.newWaiter = newWaiter
		}
	}
}

// WithLogger sets the logger used to report spurious releases and
// allocation failures. Nothing is logged on the acquire/release fast path.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
