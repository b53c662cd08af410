package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "never") })

	if Enabled {
		assert.PanicsWithValue(t, "broken: 7", func() { Assert(false, "broken: %d", 7) })
	} else {
		assert.NotPanics(t, func() { Assert(false, "broken: %d", 7) })
	}
}
