// video_interface.go - Display transport interface for MacVision

/*
███╗   ███╗ █████╗  ██████╗██╗   ██╗██╗███████╗██╗ ██████╗ ███╗   ██╗
████╗ ████║██╔══██╗██╔════╝██║   ██║██║██╔════╝██║██╔═══██╗████╗  ██║
██╔████╔██║███████║██║     ██║   ██║██║███████╗██║██║   ██║██╔██╗ ██║
██║╚██╔╝██║██╔══██║██║     ╚██╗ ██╔╝██║╚════██║██║██║   ██║██║╚██╗██║
██║ ╚═╝ ██║██║  ██║╚██████╗ ╚████╔╝ ██║███████║██║╚██████╔╝██║ ╚████║
╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝  ╚═══╝  ╚═╝╚══════╝╚═╝ ╚═════╝ ╚═╝  ╚═══╝

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MacVision
License: GPLv3 or later
*/

package main

import "fmt"

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

// DisplayConfig contains hardware-independent configuration
type DisplayConfig struct {
	Width      int
	Height     int
	Scale      int // Integer window scaling factor for desktop backends
	Fullscreen bool
}

// DisplayOutput is the minimal blit capability the engine depends on. The
// transfer model follows LCD controller semantics: open a batch, set a
// destination rectangle, stream pixel blocks into it, close the batch. Full
// updates issue one rectangle spanning the whole display; partial updates
// issue one rectangle plus one block per dirty tile inside a single batch to
// amortize transport setup cost.
type DisplayOutput interface {
	// Lifecycle management
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	SetDisplayConfig(config DisplayConfig) error
	GetDisplayConfig() DisplayConfig

	// Blit operations. Pixels are packed swap565 and fill the current
	// window rectangle row-major from the top-left corner.
	BeginBatch()
	SetWindow(x, y, w, h int)
	WritePixels(pixels []uint16)
	EndBatch()

	FrameCount() uint64
}

// StatusCapable is implemented by backends that can overlay a live status
// line on the display. Optional; the engine wires its telemetry in when the
// backend supports it.
type StatusCapable interface {
	SetStatusFunc(fn func() string)
}

// Predefined display backend types
const (
	VIDEO_BACKEND_EBITEN   = iota // Pure Go Ebiten windowed backend
	VIDEO_BACKEND_HEADLESS        // Recording backend for tests and -novideo runs
)

// NewDisplayOutput creates a new display output using the specified backend
func NewDisplayOutput(backend int) (DisplayOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewEbitenOutput()
	case VIDEO_BACKEND_HEADLESS:
		return NewHeadlessOutput()
	}
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}
