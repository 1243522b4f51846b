package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdAllocatorSkipsReservedRegion(t *testing.T) {
	var a idAllocator
	a.last = Wakeup - 1 // about to roll through {Wakeup, Invalid}

	next := a.next()
	assert.NotEqual(t, Wakeup, next)
	assert.NotEqual(t, Invalid, next)
	assert.Equal(t, Invalid+1, next)
}

func TestIdAllocatorMonotonic(t *testing.T) {
	var a idAllocator
	first := a.next()
	second := a.next()
	assert.Less(t, first, second)
}

func TestIdAllocatorReset(t *testing.T) {
	var a idAllocator
	a.next()
	a.next()
	a.reset()
	assert.Equal(t, Invalid+1, a.next())
}

func TestReservedIds(t *testing.T) {
	assert.True(t, reserved(Invalid))
	assert.True(t, reserved(Wakeup))
	assert.False(t, reserved(Invalid+1))
}
