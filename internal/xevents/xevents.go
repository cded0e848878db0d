// Package xevents is the event dispatch backend. It runs the X event loop
// and honors the graceful-close protocol on the driver's desktop window.
package xevents

import (
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/happy-forks/wine/internal/driver"
	"github.com/happy-forks/wine/internal/logger"
)

// Backend dispatches events for the session. Done is closed when the
// event loop ends, e.g. after a WM_DELETE_WINDOW request.
type Backend struct {
	done chan struct{}
}

// New returns an uninitialized event backend.
func New() *Backend {
	return &Backend{done: make(chan struct{})}
}

// Init registers the graceful-close handler and starts the event loop.
// Key composition is handled by the driver, not the client library
// (s.OwnsInput), so no input-method filtering is installed here.
func (b *Backend) Init(s *driver.Session) error {
	xu := s.X()

	if s.SingleWindow() {
		xevent.ClientMessageFun(
			func(x *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
				if icccm.IsDeleteProtocol(x, ev) {
					logger.Info("window manager requested close")
					xevent.Quit(x)
				}
			}).Connect(xu, s.Root())
	}

	// The loop goroutine runs outside the serialization region; xgb's
	// cookie/reply model keeps its reads safe alongside region holders.
	go func() {
		xevent.Main(xu)
		close(b.done)
	}()
	return nil
}

// Done is closed when the event loop exits.
func (b *Backend) Done() <-chan struct{} {
	return b.done
}
