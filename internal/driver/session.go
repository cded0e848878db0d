package driver

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/happy-forks/wine/internal/config"
	"github.com/happy-forks/wine/internal/logger"
	"github.com/happy-forks/wine/internal/serial"
)

// ErrDepthUnsupported is returned when the configured screen depth is not
// among the depths the screen advertises.
var ErrDepthUnsupported = errors.New("depth not supported on this screen")

var processStart = time.Now()

// Session is the negotiated windowing environment. All fields are written
// during attach, before the driver advertises readiness, and are immutable
// until detach; any goroutine may read them without locking.
type Session struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	screen *xproto.ScreenInfo

	visual xproto.Visualid
	depth  byte
	root   xproto.Window

	width, height uint16

	// colormap is non-zero only when the desktop builder selected its
	// own visual.
	colormap xproto.Colormap

	serverStartMS int64
	inputOwned    bool
	synchronous   bool
}

// serverStartup estimates the X server's boot time on the local clock:
// wall-clock now minus the local monotonic tick count. Won't be exact, but
// is sufficient for uptime queries.
func serverStartup() int64 {
	return time.Now().UnixMilli() - time.Since(processStart).Milliseconds()
}

// negotiate opens the connection and selects the visual environment,
// following the attach order: connection, depth, input-method ownership,
// diagnostic mode, screen geometry. The caller has already resolved opts.
func negotiate(opts config.Options, cfg *config.Config, startMS int64) (*Session, error) {
	s := &Session{serverStartMS: startMS}

	xu, err := xgbutil.NewConnDisplay(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("can't open display %q: %w", opts.Display, err)
	}
	// No close-on-exec step: the Go runtime opens sockets O_CLOEXEC.
	s.xu = xu
	s.conn = xu.Conn()
	s.screen = xu.Screen()
	s.visual = s.screen.RootVisual
	s.root = s.screen.Root

	if want := cfg.ScreenDepth; want != 0 {
		if !depthSupported(s.screen, byte(want)) {
			return nil, fmt.Errorf("%w: %d", ErrDepthUnsupported, want)
		}
		s.depth = byte(want)
	} else {
		s.depth = s.screen.RootDepth
	}

	// The driver, not the client library, owns dead-key and compose
	// handling. Declared here, before any key event can be processed,
	// so the event backend leaves input-method processing to us.
	s.inputOwned = true

	if cfg.Synchronous {
		s.synchronous = true
		xevent.ErrorHandlerSet(xu, trapError)
	}

	s.width = s.screen.WidthInPixels
	s.height = s.screen.HeightInPixels

	return s, nil
}

// trapError records the failing request's sequence number in the general
// error slot and stops in the debugger at the offending call site.
// Installed only in synchronous mode.
func trapError(err xgb.Error) {
	serial.Slots().SetError(int(err.SequenceId()))
	logger.Errorf("X protocol error: %s", err)
	runtime.Breakpoint()
}

func depthSupported(screen *xproto.ScreenInfo, depth byte) bool {
	for _, d := range screen.AllowedDepths {
		if d.Depth == depth {
			return true
		}
	}
	return false
}

// X returns the xgbutil handle for the session.
func (s *Session) X() *xgbutil.XUtil { return s.xu }

// Conn returns the underlying X connection.
func (s *Session) Conn() *xgb.Conn { return s.conn }

// Screen returns the negotiated screen.
func (s *Session) Screen() *xproto.ScreenInfo { return s.screen }

// Visual returns the selected visual.
func (s *Session) Visual() xproto.Visualid { return s.visual }

// Depth returns the selected color depth.
func (s *Session) Depth() byte { return s.depth }

// Root returns the effective root window: the server's real root, or the
// driver's desktop window when desktop mode is active.
func (s *Session) Root() xproto.Window { return s.root }

// Dimensions returns the effective screen size.
func (s *Session) Dimensions() (width, height uint16) {
	return s.width, s.height
}

// Colormap returns the desktop colormap, or 0 unless the desktop builder
// selected its own visual.
func (s *Session) Colormap() xproto.Colormap { return s.colormap }

// SingleWindow reports whether the effective root differs from the
// server's real root window.
func (s *Session) SingleWindow() bool { return s.root != s.screen.Root }

// OwnsInput reports that dead-key/compose handling is done by the driver
// rather than the client library.
func (s *Session) OwnsInput() bool { return s.inputOwned }

// Synchronous reports whether the strict protocol-error trap is installed.
func (s *Session) Synchronous() bool { return s.synchronous }

// ServerStartMillis returns the estimated server boot time in wall-clock
// milliseconds.
func (s *Session) ServerStartMillis() int64 { return s.serverStartMS }

// Uptime returns the estimated server uptime.
func (s *Session) Uptime() time.Duration {
	return time.Duration(time.Now().UnixMilli()-s.serverStartMS) * time.Millisecond
}

// Close closes the X connection. It is not called from Detach: the
// process-exit-only lifecycle leaves the connection open, see
// Driver.detach.
func (s *Session) Close() {
	s.conn.Close()
}
