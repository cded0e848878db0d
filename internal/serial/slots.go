package serial

import "sync"

// ErrorSlots holds the two well-known error indicators the client library
// records into: a general error code and a name-resolution error code.
// Where the codes actually live depends on the implementation.
type ErrorSlots interface {
	SetError(code int)
	Error() int
	SetLookupError(code int)
	LookupError() int
}

// GoroutineSlots keeps one pair of error codes per goroutine, mirroring
// thread-local error state. This is the implementation for the reentrant
// client-library build.
type GoroutineSlots struct {
	mu    sync.Mutex
	state map[uint64]*slotPair
}

type slotPair struct {
	err    int
	lookup int
}

// NewGoroutineSlots returns per-goroutine error slots.
func NewGoroutineSlots() *GoroutineSlots {
	return &GoroutineSlots{state: make(map[uint64]*slotPair)}
}

func (g *GoroutineSlots) pair() *slotPair {
	id := goroutineID()
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.state[id]
	if !ok {
		p = &slotPair{}
		g.state[id] = p
	}
	return p
}

func (g *GoroutineSlots) SetError(code int) {
	g.pair().err = code
}

func (g *GoroutineSlots) Error() int {
	return g.pair().err
}

func (g *GoroutineSlots) SetLookupError(code int) {
	g.pair().lookup = code
}

func (g *GoroutineSlots) LookupError() int {
	return g.pair().lookup
}

// RedirectingSlots is the implementation for the non-reentrant
// client-library build. While the calling goroutine holds the region, the
// codes are read from and written to a single process-wide pair, so the
// region holder observes one consistent error state across calls. All
// other goroutines keep their per-goroutine slots.
type RedirectingSlots struct {
	region *Region
	local  ErrorSlots

	staticMu     sync.Mutex
	staticErr    int
	staticLookup int
}

// NewRedirectingSlots wraps local with region-owner redirection.
func NewRedirectingSlots(region *Region, local ErrorSlots) *RedirectingSlots {
	return &RedirectingSlots{region: region, local: local}
}

func (r *RedirectingSlots) SetError(code int) {
	if r.region.Held() {
		r.staticMu.Lock()
		r.staticErr = code
		r.staticMu.Unlock()
		return
	}
	r.local.SetError(code)
}

func (r *RedirectingSlots) Error() int {
	if r.region.Held() {
		r.staticMu.Lock()
		defer r.staticMu.Unlock()
		return r.staticErr
	}
	return r.local.Error()
}

func (r *RedirectingSlots) SetLookupError(code int) {
	if r.region.Held() {
		r.staticMu.Lock()
		r.staticLookup = code
		r.staticMu.Unlock()
		return
	}
	r.local.SetLookupError(code)
}

func (r *RedirectingSlots) LookupError() int {
	if r.region.Held() {
		r.staticMu.Lock()
		defer r.staticMu.Unlock()
		return r.staticLookup
	}
	return r.local.LookupError()
}
