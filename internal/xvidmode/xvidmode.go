// Package xvidmode is the video-mode backend over the XF86VidMode
// extension. Full-screen applications use it to switch resolutions; the
// driver only negotiates the extension and enumerates the mode lines here.
package xvidmode

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xf86vidmode"

	"github.com/happy-forks/wine/internal/driver"
	"github.com/happy-forks/wine/internal/logger"
)

// Backend negotiates XF86VidMode and caches the advertised mode lines.
type Backend struct {
	conn  *xgb.Conn
	modes []xf86vidmode.ModeInfo
}

// New returns an uninitialized video-mode backend.
func New() *Backend {
	return &Backend{}
}

// Init negotiates the extension. An absent extension is an error; the
// lifecycle controller treats it as a missing optional feature, not a
// fatal condition.
func (b *Backend) Init(s *driver.Session) error {
	conn := s.Conn()
	if err := xf86vidmode.Init(conn); err != nil {
		return fmt.Errorf("XF86VidMode extension: %w", err)
	}
	version, err := xf86vidmode.QueryVersion(conn).Reply()
	if err != nil {
		return fmt.Errorf("XF86VidMode version: %w", err)
	}
	lines, err := xf86vidmode.GetAllModeLines(conn, uint16(conn.DefaultScreen)).Reply()
	if err != nil {
		return fmt.Errorf("XF86VidMode mode lines: %w", err)
	}
	b.conn = conn
	b.modes = lines.Modeinfo
	logger.Debugf("XF86VidMode %d.%d, %d video modes",
		version.MajorVersion, version.MinorVersion, len(b.modes))
	return nil
}

// Modes returns the advertised mode lines.
func (b *Backend) Modes() []xf86vidmode.ModeInfo {
	return b.modes
}

// Close drops the cached modes. No mode switch happens during bootstrap,
// so there is nothing to restore on the server side.
func (b *Backend) Close() error {
	b.modes = nil
	return nil
}
