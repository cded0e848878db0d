package driver

// The rendering, event and video-mode subsystems are external
// collaborators. The lifecycle controller only knows how to initialize and
// tear them down; their internals live behind these interfaces.
//
// Init and Load are invoked inside the serialization region. Goroutines a
// collaborator spawns (such as an event loop) run outside the region and
// must rely on the client library's own cookie/reply thread safety.

// GraphicsBackend is the drawing/graphics-primitive subsystem. Init
// failure is fatal for the attach.
type GraphicsBackend interface {
	Init(s *Session) error
	Close() error
}

// EventBackend is the input/event dispatch subsystem. Init runs after the
// input-device snapshot has been taken.
type EventBackend interface {
	Init(s *Session) error
}

// VideoModeBackend handles video-mode switching for full-screen modes. It
// is an optional feature; Init failure is logged, not fatal.
type VideoModeBackend interface {
	Init(s *Session) error
	Close() error
}

// SupportModule is a dependent display-support module loaded at the end of
// the attach sequence.
type SupportModule interface {
	Name() string
	Load(s *Session) error
}

// Backends collects the collaborators injected into the controller.
// Graphics and Events are required for a useful driver; VideoMode and
// Modules may be nil/empty.
type Backends struct {
	Graphics  GraphicsBackend
	Events    EventBackend
	VideoMode VideoModeBackend
	Modules   []SupportModule
}
