package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xcursor"

	"github.com/happy-forks/wine/internal/logger"
)

const (
	defaultDesktopWidth  = 640
	defaultDesktopHeight = 480

	desktopTitle = "Wine desktop"
	desktopClass = "Wine"
)

// createDesktop builds the virtual desktop window for desktop mode and
// makes it the session's effective root. Any failure is an error; the
// caller treats it as fatal.
func createDesktop(s *Session, geometry string, doubleBuffered bool) error {
	g := ParseGeometry(geometry)

	width, height := uint16(defaultDesktopWidth), uint16(defaultDesktopHeight)
	if g.WidthSet {
		width = uint16(g.Width)
	}
	if g.HeightSet {
		height = uint16(g.Height)
	}
	s.width, s.height = width, height

	// Optionally pick a visual with better rendering capability. The
	// double-buffer option only applies when the server advertises GLX.
	valueMask := uint32(xproto.CwBackPixel | xproto.CwEventMask | xproto.CwCursor)
	values := []uint32{s.screen.BlackPixel, desktopEventMask}
	if doubleBuffered && extensionPresent(s.conn, "GLX") {
		if visual, depth, ok := deepestTrueColorVisual(s.screen); ok {
			mid, err := xproto.NewColormapId(s.conn)
			if err != nil {
				return fmt.Errorf("allocating colormap id: %w", err)
			}
			xproto.CreateColormap(s.conn, xproto.ColormapAllocNone, mid,
				s.screen.Root, visual)
			s.visual = visual
			s.depth = depth
			s.colormap = mid
			valueMask |= xproto.CwColormap
			values = append(values, uint32(mid))
			logger.Debugf("desktop using %d-bit visual 0x%x", depth, visual)
		}
	}

	cursor, err := xcursor.CreateCursor(s.xu, xcursor.TopLeftArrow)
	if err != nil {
		return fmt.Errorf("creating desktop cursor: %w", err)
	}
	values = append(values, uint32(cursor))

	wid, err := xproto.NewWindowId(s.conn)
	if err != nil {
		return fmt.Errorf("allocating window id: %w", err)
	}
	err = xproto.CreateWindowChecked(s.conn, s.depth, wid, s.screen.Root,
		int16(g.X), int16(g.Y), width, height, 0,
		xproto.WindowClassInputOutput, s.visual, valueMask, values).Check()
	if err != nil {
		return fmt.Errorf("creating desktop window: %w", err)
	}

	if err := setDesktopHints(s, wid, g, width, height); err != nil {
		return err
	}

	xproto.MapWindow(s.conn, wid)
	s.root = wid

	return nil
}

const desktopEventMask = xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskEnterWindow

// setDesktopHints attaches the window-manager contract: a fixed size, the
// user/program-specified hint flags derived from the geometry, input and
// initial-state hints, the class pair, the title and the graceful-close
// protocol.
func setDesktopHints(s *Session, wid xproto.Window, g Geometry, width, height uint16) error {
	flags := uint(icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize)
	if g.XSet || g.YSet {
		flags |= icccm.SizeHintUSPosition
	}
	if g.WidthSet || g.HeightSet {
		flags |= icccm.SizeHintUSSize
	} else {
		flags |= icccm.SizeHintPSize
	}
	normal := &icccm.NormalHints{
		Flags:     flags,
		X:         g.X,
		Y:         g.Y,
		Width:     uint(width),
		Height:    uint(height),
		MinWidth:  uint(width),
		MinHeight: uint(height),
		MaxWidth:  uint(width),
		MaxHeight: uint(height),
	}
	if err := icccm.WmNormalHintsSet(s.xu, wid, normal); err != nil {
		return fmt.Errorf("setting WM_NORMAL_HINTS: %w", err)
	}

	hints := &icccm.Hints{
		Flags:        icccm.HintInput | icccm.HintState,
		Input:        1,
		InitialState: icccm.StateNormal,
	}
	if err := icccm.WmHintsSet(s.xu, wid, hints); err != nil {
		return fmt.Errorf("setting WM_HINTS: %w", err)
	}

	class := &icccm.WmClass{
		Instance: filepath.Base(os.Args[0]),
		Class:    desktopClass,
	}
	if err := icccm.WmClassSet(s.xu, wid, class); err != nil {
		return fmt.Errorf("setting WM_CLASS: %w", err)
	}

	if err := icccm.WmNameSet(s.xu, wid, desktopTitle); err != nil {
		return fmt.Errorf("setting WM_NAME: %w", err)
	}

	// The window manager may ask for an orderly shutdown instead of
	// killing the connection.
	if err := icccm.WmProtocolsSet(s.xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("setting WM_PROTOCOLS: %w", err)
	}

	return nil
}

func extensionPresent(conn *xgb.Conn, name string) bool {
	reply, err := xproto.QueryExtension(conn, uint16(len(name)), name).Reply()
	return err == nil && reply.Present
}

// deepestTrueColorVisual scans the advertised depths for the deepest
// TrueColor visual, preferring 32 over 24 bits.
func deepestTrueColorVisual(screen *xproto.ScreenInfo) (xproto.Visualid, byte, bool) {
	var (
		best      xproto.Visualid
		bestDepth byte
		found     bool
	)
	for _, d := range screen.AllowedDepths {
		if d.Depth <= bestDepth || d.Depth < 24 {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				best, bestDepth, found = v.VisualId, d.Depth, true
				break
			}
		}
	}
	return best, bestDepth, found
}
