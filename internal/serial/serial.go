// Package serial provides the call-serialization boundary around the X
// client library.
//
// The library itself is only safe to drive from one logical thread of
// execution at a time, so every call into it is bracketed by Acquire and
// Release on a process-wide region. Callers never see the region directly;
// they go through the installed Serializer hooks, which the driver swaps in
// at attach and restores at detach.
package serial

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Serializer brackets calls into the client library.
type Serializer interface {
	Acquire()
	Release()
}

// Region is a recursive mutual-exclusion region. The goroutine holding it
// may re-acquire without blocking and must release once per acquisition;
// any other goroutine blocks until the region is fully released.
type Region struct {
	mu    sync.Mutex
	owner atomic.Uint64 // goroutine id of the holder, 0 when unheld
	depth uint32        // only touched by the owner
}

// Acquire enters the region, blocking while another goroutine holds it.
func (r *Region) Acquire() {
	id := goroutineID()
	if r.owner.Load() == id {
		r.depth++
		return
	}
	r.mu.Lock()
	r.owner.Store(id)
	r.depth = 1
}

// Release leaves the region. It panics when called by a goroutine that
// does not hold the region, since that is always a caller bug.
func (r *Region) Release() {
	if r.owner.Load() != goroutineID() {
		panic("serial: Release called by a goroutine that does not hold the region")
	}
	r.depth--
	if r.depth == 0 {
		r.owner.Store(0)
		r.mu.Unlock()
	}
}

// Held reports whether the calling goroutine holds the region.
func (r *Region) Held() bool {
	return r.owner.Load() == goroutineID()
}

// Owner returns the goroutine id of the current holder, or 0.
func (r *Region) Owner() uint64 {
	return r.owner.Load()
}

// goroutineID extracts the calling goroutine's id from its stack header.
// The header format ("goroutine N [...]") has been stable since Go 1.4.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		panic(fmt.Sprintf("serial: unexpected stack header %q", buf[:n]))
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("serial: cannot parse goroutine id from %q", buf[:n]))
	}
	return id
}

var (
	hookMu     sync.Mutex
	serializer Serializer = noopSerializer{}
	slots      ErrorSlots = NewGoroutineSlots()
)

// noopSerializer is the default before any driver installs a region.
type noopSerializer struct{}

func (noopSerializer) Acquire() {}
func (noopSerializer) Release() {}

// InstallSerializer swaps in s as the process-wide serializer and returns
// the previous one so it can be restored at detach.
func InstallSerializer(s Serializer) (previous Serializer) {
	hookMu.Lock()
	defer hookMu.Unlock()
	previous, serializer = serializer, s
	return previous
}

// InstallSlots swaps in e as the process-wide error slots and returns the
// previous value so it can be restored at detach.
func InstallSlots(e ErrorSlots) (previous ErrorSlots) {
	hookMu.Lock()
	defer hookMu.Unlock()
	previous, slots = slots, e
	return previous
}

// Acquire enters the installed serializer. Call before any client-library
// request.
func Acquire() {
	current().Acquire()
}

// Release leaves the installed serializer.
func Release() {
	current().Release()
}

// Slots returns the installed error slots.
func Slots() ErrorSlots {
	hookMu.Lock()
	defer hookMu.Unlock()
	return slots
}

func current() Serializer {
	hookMu.Lock()
	defer hookMu.Unlock()
	return serializer
}
