// Package driver implements the display-driver bootstrap: attach
// negotiates a windowing environment once, detach restores what attach
// changed. Between the two, DriverState-equivalent fields on Session are
// immutable and safe to read from any goroutine; every call into the X
// library goes through the installed serialization region.
package driver

import (
	"errors"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/happy-forks/wine/internal/config"
	"github.com/happy-forks/wine/internal/logger"
	"github.com/happy-forks/wine/internal/serial"
)

// State of the lifecycle controller.
type State int

const (
	StateUnattached State = iota
	StateAttaching
	StateReady
	StateDetaching
)

// Reason is the host's load/unload notification.
type Reason int

const (
	ReasonAttach Reason = iota
	ReasonDetach
)

// ErrNotReady is returned by queries invoked outside the Ready state.
var ErrNotReady = errors.New("driver is not attached")

// Driver is the lifecycle controller. It owns the session, the installed
// serialization hooks and the input-device snapshot.
type Driver struct {
	state State

	cfg      *config.Config
	opts     config.Options
	backends Backends

	session *Session

	region         *serial.Region
	prevSerializer serial.Serializer
	prevSlots      serial.ErrorSlots
	slotsSwapped   bool

	// keyboard is the input-device snapshot captured at attach and
	// restored verbatim at detach.
	keyboard *xproto.GetKeyboardControlReply
}

// New builds an unattached driver. opts are the caller-supplied options,
// merged with persisted configuration during attach.
func New(cfg *config.Config, opts config.Options, backends Backends) *Driver {
	return &Driver{
		cfg:      cfg,
		opts:     opts,
		backends: backends,
	}
}

// Handle is the single entry point the host invokes on load and unload.
// Unknown reasons are a successful no-op. Attach failures do not return:
// they terminate the process with status 1, since a driver without a valid
// session cannot serve anything.
func (d *Driver) Handle(reason Reason) bool {
	switch reason {
	case ReasonAttach:
		d.attach()
	case ReasonDetach:
		d.detach()
	}
	return true
}

// State returns the controller state.
func (d *Driver) State() State { return d.state }

// Session returns the negotiated session, nil before attach.
func (d *Driver) Session() *Session { return d.session }

func (d *Driver) attach() {
	d.state = StateAttaching

	// The shim goes in before anything touches the X library.
	d.region = &serial.Region{}
	d.prevSerializer = serial.InstallSerializer(d.region)
	if !d.cfg.ReentrantX11 {
		slots := serial.NewRedirectingSlots(d.region, serial.NewGoroutineSlots())
		d.prevSlots = serial.InstallSlots(slots)
		d.slotsSwapped = true
	}

	startMS := serverStartup()

	resolved, warnings, err := config.Resolve(d.opts)
	for _, w := range warnings {
		logger.Warnf("%s", w)
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}
	d.opts = resolved
	if err := config.Save(); err != nil {
		logger.Warnf("could not persist configuration: %v", err)
	}

	serial.Acquire()
	s, err := negotiate(resolved, d.cfg, startMS)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	d.session = s

	if resolved.Desktop != "" {
		if err := createDesktop(s, resolved.Desktop, d.cfg.DesktopDoubleBuffered); err != nil {
			logger.Fatalf("desktop window: %v", err)
		}
	}

	if d.backends.Graphics != nil {
		if err := d.backends.Graphics.Init(s); err != nil {
			logger.Fatalf("couldn't initialize graphics backend: %v", err)
		}
	}

	// Snapshot the global input-device settings before anything can
	// change them; detach restores exactly these fields.
	kb, err := xproto.GetKeyboardControl(s.conn).Reply()
	if err != nil {
		logger.Fatalf("couldn't read keyboard state: %v", err)
	}
	d.keyboard = kb
	serial.Release()

	if d.backends.Events != nil {
		if err := withRegion(func() error { return d.backends.Events.Init(s) }); err != nil {
			logger.Fatalf("couldn't initialize event backend: %v", err)
		}
	}

	if d.backends.VideoMode != nil {
		if err := withRegion(func() error { return d.backends.VideoMode.Init(s) }); err != nil {
			logger.Warnf("video-mode backend unavailable: %v", err)
		}
	}

	for _, m := range d.backends.Modules {
		if err := withRegion(func() error { return m.Load(s) }); err != nil {
			logger.Warnf("support module %s failed to load: %v", m.Name(), err)
		}
	}

	d.state = StateReady
	w, h := s.Dimensions()
	logger.Infof("attached to display %s (%dx%d, depth %d)",
		resolved.Display, w, h, s.Depth())
}

// detach tears down in reverse order of attach. The X connection itself is
// deliberately left open: the driver only detaches when the process exits,
// and collaborators may still flush requests during teardown. Session.Close
// exists but is not called here; callers must not assume the connection is
// closed after detach.
func (d *Driver) detach() {
	if d.state != StateReady {
		return
	}
	d.state = StateDetaching

	if d.session != nil && d.keyboard != nil {
		withRegion(func() error {
			xproto.ChangeKeyboardControl(d.session.conn,
				keyboardRestoreMask, keyboardRestoreValues(d.keyboard))
			return nil
		})
	}

	if d.backends.VideoMode != nil {
		if err := d.backends.VideoMode.Close(); err != nil {
			logger.Warnf("video-mode teardown: %v", err)
		}
	}

	if d.backends.Graphics != nil {
		if err := d.backends.Graphics.Close(); err != nil {
			logger.Warnf("graphics teardown: %v", err)
		}
	}

	serial.InstallSerializer(d.prevSerializer)
	if d.slotsSwapped {
		serial.InstallSlots(d.prevSlots)
		d.slotsSwapped = false
	}

	d.state = StateUnattached
}

// keyboardRestoreMask covers exactly the fields captured at attach; the
// snapshot is restored verbatim, never from defaults.
const keyboardRestoreMask = xproto.KbKeyClickPercent | xproto.KbBellPercent |
	xproto.KbBellPitch | xproto.KbBellDuration | xproto.KbAutoRepeatMode

// keyboardRestoreValues builds the ChangeKeyboardControl value list from
// the snapshot. The list order follows the ascending mask-bit order of
// keyboardRestoreMask, as the protocol requires.
func keyboardRestoreValues(kb *xproto.GetKeyboardControlReply) []uint32 {
	return []uint32{
		uint32(kb.KeyClickPercent),
		uint32(kb.BellPercent),
		uint32(kb.BellPitch),
		uint32(kb.BellDuration),
		uint32(kb.GlobalAutoRepeat),
	}
}

// withRegion runs fn inside the installed serialization region.
func withRegion(fn func() error) error {
	serial.Acquire()
	defer serial.Release()
	return fn()
}

// ScreenSaverActive reports whether the screen saver is enabled.
func (d *Driver) ScreenSaverActive() (bool, error) {
	timeout, err := d.ScreenSaverTimeout()
	return timeout != 0, err
}

// SetScreenSaverActive activates or resets the screen saver.
func (d *Driver) SetScreenSaverActive(active bool) error {
	if d.state != StateReady {
		return ErrNotReady
	}
	serial.Acquire()
	defer serial.Release()
	mode := byte(xproto.ScreenSaverReset)
	if active {
		mode = xproto.ScreenSaverActive
	}
	return xproto.ForceScreenSaverChecked(d.session.conn, mode).Check()
}

// ScreenSaverTimeout returns the screen-saver timeout in seconds.
func (d *Driver) ScreenSaverTimeout() (int, error) {
	if d.state != StateReady {
		return 0, ErrNotReady
	}
	serial.Acquire()
	defer serial.Release()
	reply, err := xproto.GetScreenSaver(d.session.conn).Reply()
	if err != nil {
		return 0, err
	}
	return int(reply.Timeout), nil
}

// SetScreenSaverTimeout sets the screen-saver timeout in seconds.
func (d *Driver) SetScreenSaverTimeout(seconds int) error {
	if d.state != StateReady {
		return ErrNotReady
	}
	serial.Acquire()
	defer serial.Release()
	xproto.SetScreenSaver(d.session.conn, clampTimeout(seconds), 60,
		xproto.BlankingDefault, xproto.ExposuresDefault)
	return nil
}

// clampTimeout keeps the timeout in 0..32767: it is a CARD16 in the
// protocol and must not appear negative.
func clampTimeout(seconds int) int16 {
	if seconds > 32767 {
		seconds = 32767
	}
	if seconds < 0 {
		seconds = 0
	}
	return int16(seconds)
}

// IsSingleWindow reports whether desktop mode is active, i.e. the
// effective root window is not the server's real root.
func (d *Driver) IsSingleWindow() bool {
	return d.state == StateReady && d.session.SingleWindow()
}
