package main

import (
	"sync"
	"sync/atomic"
)

// blitRect records one destination rectangle and how many pixels were
// streamed into it.
type blitRect struct {
	x, y, w, h int
	pixels     int
}

// HeadlessOutput is a display transport with no display: it keeps a full
// RGB565 model of the screen and records every batch, rectangle and pixel
// block it receives. Used by the tests to assert exact transport traffic and
// destination pixels, and by -novideo runs.
type HeadlessOutput struct {
	mu      sync.Mutex
	started bool
	config  DisplayConfig

	model []uint16

	batchOpen  bool
	batchCount int
	rects      []blitRect

	// Current address window and write cursor within it, LCD controller
	// style: pixel blocks fill the window row-major from the top left.
	win    blitRect
	cursor int

	frameCount atomic.Uint64
}

func NewHeadlessOutput() (DisplayOutput, error) {
	return &HeadlessOutput{
		config: DisplayConfig{Width: DISPLAY_WIDTH, Height: DISPLAY_HEIGHT, Scale: 1},
		model:  make([]uint16, DISPLAY_WIDTH*DISPLAY_HEIGHT),
	}, nil
}

func (h *HeadlessOutput) Start() error {
	h.mu.Lock()
	h.started = true
	h.mu.Unlock()
	return nil
}

func (h *HeadlessOutput) Stop() error {
	h.mu.Lock()
	h.started = false
	h.mu.Unlock()
	return nil
}

func (h *HeadlessOutput) Close() error {
	return h.Stop()
}

func (h *HeadlessOutput) IsStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

func (h *HeadlessOutput) SetDisplayConfig(config DisplayConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if config.Width <= 0 || config.Height <= 0 {
		return &VideoError{Operation: "display config", Details: "non-positive dimensions"}
	}
	h.config = config
	if len(h.model) != config.Width*config.Height {
		h.model = make([]uint16, config.Width*config.Height)
	}
	return nil
}

func (h *HeadlessOutput) GetDisplayConfig() DisplayConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

func (h *HeadlessOutput) BeginBatch() {
	h.mu.Lock()
	h.batchOpen = true
	h.batchCount++
	h.mu.Unlock()
}

func (h *HeadlessOutput) SetWindow(x, y, w, h2 int) {
	h.mu.Lock()
	h.win = blitRect{x: x, y: y, w: w, h: h2}
	h.cursor = 0
	h.rects = append(h.rects, h.win)
	h.mu.Unlock()
}

func (h *HeadlessOutput) WritePixels(pixels []uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.win.w <= 0 {
		return
	}
	width := h.config.Width
	for _, p := range pixels {
		if h.cursor >= h.win.w*h.win.h {
			break
		}
		x := h.win.x + h.cursor%h.win.w
		y := h.win.y + h.cursor/h.win.w
		if x >= 0 && x < width && y >= 0 && y < h.config.Height {
			h.model[y*width+x] = p
		}
		h.cursor++
	}
	if n := len(h.rects); n > 0 {
		h.rects[n-1].pixels += len(pixels)
	}
}

func (h *HeadlessOutput) EndBatch() {
	h.mu.Lock()
	h.batchOpen = false
	h.mu.Unlock()
	h.frameCount.Add(1)
}

func (h *HeadlessOutput) FrameCount() uint64 {
	return h.frameCount.Load()
}

// PixelAt returns the display model pixel at x,y.
func (h *HeadlessOutput) PixelAt(x, y int) uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model[y*h.config.Width+x]
}

// Rects returns a copy of every rectangle recorded since the last reset.
func (h *HeadlessOutput) Rects() []blitRect {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]blitRect, len(h.rects))
	copy(out, h.rects)
	return out
}

func (h *HeadlessOutput) BatchCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.batchCount
}

// ResetRecording clears the recorded traffic but keeps the display model.
func (h *HeadlessOutput) ResetRecording() {
	h.mu.Lock()
	h.rects = h.rects[:0]
	h.batchCount = 0
	h.mu.Unlock()
}
