// Package gdi bootstraps the drawing backend. Primitive rendering itself
// lives elsewhere; this allocates the shared server-side resources the
// drawing code relies on.
package gdi

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/happy-forks/wine/internal/driver"
	"github.com/happy-forks/wine/internal/logger"
)

// Backend is the default graphics backend over the negotiated session.
type Backend struct {
	conn *xgb.Conn
	gc   xproto.Gcontext
}

// New returns an uninitialized graphics backend.
func New() *Backend {
	return &Backend{}
}

// Init allocates the driver's root graphics context on the effective root
// window. Failure here means the session cannot render at all.
func (b *Backend) Init(s *driver.Session) error {
	gc, err := xproto.NewGcontextId(s.Conn())
	if err != nil {
		return fmt.Errorf("allocating gcontext id: %w", err)
	}
	err = xproto.CreateGCChecked(s.Conn(), gc, xproto.Drawable(s.Root()),
		xproto.GcForeground|xproto.GcBackground,
		[]uint32{s.Screen().BlackPixel, s.Screen().WhitePixel}).Check()
	if err != nil {
		return fmt.Errorf("creating root gcontext: %w", err)
	}
	b.conn = s.Conn()
	b.gc = gc
	logger.Debugf("graphics backend ready, root gc 0x%x", gc)
	return nil
}

// GC returns the root graphics context.
func (b *Backend) GC() xproto.Gcontext { return b.gc }

// Close releases the root graphics context.
func (b *Backend) Close() error {
	if b.gc != 0 {
		xproto.FreeGC(b.conn, b.gc)
		b.gc = 0
	}
	return nil
}
