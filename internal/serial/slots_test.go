package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoroutineSlotsArePerGoroutine(t *testing.T) {
	slots := NewGoroutineSlots()
	slots.SetError(11)
	slots.SetLookupError(12)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Equal(t, 0, slots.Error(), "fresh goroutine starts clean")
		slots.SetError(21)
		assert.Equal(t, 21, slots.Error())
	}()
	<-done

	assert.Equal(t, 11, slots.Error())
	assert.Equal(t, 12, slots.LookupError())
}

func TestRedirectingSlotsOwnerUsesStatics(t *testing.T) {
	var r Region
	slots := NewRedirectingSlots(&r, NewGoroutineSlots())

	// Outside the region: per-goroutine behavior.
	slots.SetError(1)
	assert.Equal(t, 1, slots.Error())

	r.Acquire()
	slots.SetError(42)
	slots.SetLookupError(43)
	assert.Equal(t, 42, slots.Error(), "holder reads the static slot")
	assert.Equal(t, 43, slots.LookupError())

	// A non-holder keeps its own slots while the region is held.
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Equal(t, 0, slots.Error())
		slots.SetError(7)
		assert.Equal(t, 7, slots.Error())
	}()
	<-done

	// The holder's static state is unaffected by the other goroutine.
	assert.Equal(t, 42, slots.Error())
	r.Release()

	// Back outside the region the goroutine-local value reappears.
	assert.Equal(t, 1, slots.Error())
}

func TestInstallSlotsRestoresPrevious(t *testing.T) {
	mine := NewGoroutineSlots()
	prev := InstallSlots(mine)
	assert.Equal(t, ErrorSlots(mine), Slots())

	restored := InstallSlots(prev)
	assert.Equal(t, ErrorSlots(mine), restored)
	assert.Equal(t, prev, Slots())
}
