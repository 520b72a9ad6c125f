// video_frame_state.go - Shared frame state for MacVision

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

/*
frame_state.go holds the data shared between the two execution contexts: the
emulated framebuffer (one byte per pixel, owned by the producer for writes),
the 256-entry colour table in the display's wire format, and the geometry and
control flags that the render loop consults each cycle.

Ownership rules:

    The framebuffer is written only by the producer. The renderer never takes
    a whole-frame lock on it; it reads through bounded per-tile snapshots, or
    accepts a one-frame-stale mix during a full update.

    The colour table is the only state under true mutual exclusion. The
    critical section is one fixed-size table copy on either side, with no
    blocking calls while held, so a palette update can never stall the
    producer for longer than that copy.

    The force-full flag is an atomic bool: set by palette and mode changes,
    cleared by the renderer after the next full update.
*/

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// FrameState is the shared frame state passed by reference to both the
// producer write path and the render loop. Allocated once by NewFrameState,
// released by Teardown; no buffer is reallocated while the renderer runs.
type FrameState struct {
	width  int
	height int
	depth  int

	tileWidth  int
	tileHeight int
	tilesX     int
	tilesY     int

	frameBuffer []byte

	paletteMutex sync.Mutex
	palette      [256]uint16 // swap565, see rgb888ToSwap565

	forceFullUpdate atomic.Bool
}

// NewFrameState allocates the framebuffer for the given geometry. The tile
// dimensions must evenly divide the screen dimensions; the tile grid is
// immutable after this point.
func NewFrameState(width, height, tileWidth, tileHeight int) (*FrameState, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid screen geometry %dx%d", width, height)
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("invalid tile geometry %dx%d", tileWidth, tileHeight)
	}
	if width%tileWidth != 0 || height%tileHeight != 0 {
		return nil, fmt.Errorf("tile grid %dx%d does not evenly divide screen %dx%d",
			tileWidth, tileHeight, width, height)
	}

	fs := &FrameState{
		width:      width,
		height:     height,
		depth:      MAC_SCREEN_DEPTH,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		tilesX:     width / tileWidth,
		tilesY:     height / tileHeight,
	}
	fs.frameBuffer = make([]byte, width*height)

	// Neutral mid-gray so an unwritten screen is recognisably blank rather
	// than black.
	for i := range fs.frameBuffer {
		fs.frameBuffer[i] = 0x80
	}

	// Classic Mac indexed convention: 0 = white, 255 = black.
	fs.setGrayscalePalette()

	fs.forceFullUpdate.Store(true)
	return fs, nil
}

// Teardown releases the framebuffer. The renderer must have exited before
// this is called; the buffers outlive the renderer's last access.
func (fs *FrameState) Teardown() {
	fs.frameBuffer = nil
}

func (fs *FrameState) setGrayscalePalette() {
	fs.paletteMutex.Lock()
	for i := range 256 {
		gray := uint8(255 - i)
		fs.palette[i] = rgb888ToSwap565(gray, gray, gray)
	}
	fs.paletteMutex.Unlock()
}

// SetPalette replaces the colour table from packed RGB triples (pal[i*3+0..2]
// for entry i). Called by the producer; the renderer sees either the old
// table or the new one, never a partial mix. Forces a full update since every
// pixel may map to a different colour even though the framebuffer is
// unchanged.
func (fs *FrameState) SetPalette(pal []byte) {
	n := len(pal) / 3
	if n > 256 {
		n = 256
	}
	fs.paletteMutex.Lock()
	for i := range n {
		fs.palette[i] = rgb888ToSwap565(pal[i*3], pal[i*3+1], pal[i*3+2])
	}
	fs.paletteMutex.Unlock()
	fs.forceFullUpdate.Store(true)
}

// SetGamma is accepted and ignored: for indexed modes gamma arrives through
// the palette, and direct modes are out of scope.
func (fs *FrameState) SetGamma(gamma []byte) {
}

// CopyPalette copies the colour table into dst under the palette lock. This
// is the renderer's once-per-cycle bounded copy.
func (fs *FrameState) CopyPalette(dst *[256]uint16) {
	fs.paletteMutex.Lock()
	*dst = fs.palette
	fs.paletteMutex.Unlock()
}

// FrameBuffer returns the live framebuffer. The producer writes through
// this; the renderer only reads it via per-tile snapshots or a full-frame
// pass that tolerates concurrent writes.
func (fs *FrameState) FrameBuffer() []byte {
	return fs.frameBuffer
}

func (fs *FrameState) FrameBufferSize() int {
	return len(fs.frameBuffer)
}

func (fs *FrameState) Width() int  { return fs.width }
func (fs *FrameState) Height() int { return fs.height }

// rgb888ToSwap565 packs an RGB triple into the byte-swapped RGB565 layout the
// display transport expects: low byte RRRRRGGG (red 5 bits, green high 3),
// high byte GGGBBBBB (green low 3 bits, blue 5 bits). The exact bit packing
// is a compatibility contract with the transport, not cosmetic.
func rgb888ToSwap565(r, g, b uint8) uint16 {
	lo := uint16(r>>3)<<3 | uint16(g>>5)
	hi := (uint16(g>>2)<<5 | uint16(b>>3)) & 0xFF
	return hi<<8 | lo
}

// swap565Components recovers 8-bit RGB from a packed swap565 value, expanding
// the truncated channels into the full range. Used by backends that need RGBA
// and by tests.
func swap565Components(p uint16) (r, g, b uint8) {
	lo := uint8(p)
	hi := uint8(p >> 8)
	r5 := lo >> 3
	g6 := (lo&0x07)<<3 | hi>>5
	b5 := hi & 0x1F
	r = r5<<3 | r5>>2
	g = g6<<2 | g6>>4
	b = b5<<3 | b5>>2
	return r, g, b
}
