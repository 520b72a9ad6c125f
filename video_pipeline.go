// video_pipeline.go - Frame synchronization and render loop for MacVision

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
The render loop is the consumer half of the producer/renderer pair. The
producer (the emulated machine) writes pixels and marks tiles dirty from its
own goroutine; this loop wakes on an explicit frame-ready signal or after the
minimum frame interval, whichever comes first, so dirty state always drains
even when a signal is dropped.

Per cycle:

    1. Wait with deadline; a signal arriving sooner than the minimum frame
       interval since the last render is debounced so notification storms
       cannot push the transport past the target cadence.
    2. Copy the colour table under its lock.
    3. Decide the update mode: force-full flag or threshold promotion means
       full; otherwise partial over the collected dirty tiles; no dirty state
       at all means an explicit skip.
    4. Full: render the whole frame from the live framebuffer into the
       surface and push it as one rectangle. Partial: snapshot, render and
       push each dirty tile individually; untouched tiles keep their previous
       content on the display.

All buffers are allocated by Init and reused every cycle; the steady-state
path allocates nothing, so the render cadence never takes an allocator or GC
latency spike.
*/

package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// VideoEngine ties the shared frame state, the dirty tracker, the renderer
// and the display transport together, and owns the render goroutine.
type VideoEngine struct {
	output    DisplayOutput
	state     *FrameState
	tracker   *DirtyTracker
	renderer  *Renderer
	pusher    *displayPusher
	telemetry *Telemetry

	surface      []uint16 // scaled destination surface, renderer-owned
	tileSnapshot []byte   // one tile of source pixels
	tileBlock    []uint16 // one scaled tile of destination pixels

	// Compare-fallback buffers: snapshot of the current frame and what was
	// rendered last cycle. Only touched when write tracking is off.
	snapshotBuffer []byte
	compareBuffer  []byte

	frameReady chan struct{}
	done       chan struct{}
	loopDone   chan struct{}
	running    atomic.Bool

	frameBase uint32 // bus address of the framebuffer, set by MapFrameBuffer
}

// NewVideoEngine creates an engine on the given display backend. Init must
// be called before Start.
func NewVideoEngine(backend int) (*VideoEngine, error) {
	output, err := NewDisplayOutput(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create display output: %w", err)
	}
	return &VideoEngine{
		output:     output,
		telemetry:  NewTelemetry(),
		frameReady: make(chan struct{}, 1),
	}, nil
}

// Init allocates every buffer the pipeline needs: framebuffer, dirty
// bitmaps, rendered surface, per-tile scratch and the compare-fallback pair.
// Nothing is allocated again until Teardown or a stopped-engine SetMode.
func (e *VideoEngine) Init(width, height, tileWidth, tileHeight int) error {
	state, err := NewFrameState(width, height, tileWidth, tileHeight)
	if err != nil {
		return &VideoError{Operation: "init", Details: "frame state", Err: err}
	}
	e.state = state
	e.tracker = NewDirtyTracker(width, height, tileWidth, tileHeight)
	e.renderer = NewRenderer(width, height, tileWidth, tileHeight)
	e.pusher = &displayPusher{output: e.output}

	e.surface = make([]uint16, width*PIXEL_SCALE*height*PIXEL_SCALE)
	e.tileSnapshot = make([]byte, tileWidth*tileHeight)
	e.tileBlock = make([]uint16, tileWidth*PIXEL_SCALE*tileHeight*PIXEL_SCALE)
	e.snapshotBuffer = make([]byte, width*height)
	e.compareBuffer = make([]byte, width*height)

	// Match the framebuffer's initial fill so the first compare cycle only
	// reports real changes.
	for i := range e.snapshotBuffer {
		e.snapshotBuffer[i] = 0x80
		e.compareBuffer[i] = 0x80
	}
	return nil
}

func (e *VideoEngine) displayWidth() int  { return e.state.width * PIXEL_SCALE }
func (e *VideoEngine) displayHeight() int { return e.state.height * PIXEL_SCALE }

// Start configures and starts the display backend, pushes the initial blank
// screen and launches the render goroutine. A backend start failure is
// returned to the caller; the producer can keep running without video, with
// frames silently dropped.
func (e *VideoEngine) Start() error {
	if e.state == nil {
		return &VideoError{Operation: "start", Details: "Init not called"}
	}
	if e.running.Load() {
		return nil
	}

	dw, dh := e.displayWidth(), e.displayHeight()
	if err := e.output.SetDisplayConfig(DisplayConfig{Width: dw, Height: dh, Scale: 1}); err != nil {
		return &VideoError{Operation: "start", Details: "display config", Err: err}
	}
	if cfg := e.output.GetDisplayConfig(); cfg.Width != dw || cfg.Height != dh {
		// Non-fatal: proceed best-effort with the requested geometry.
		fmt.Printf("[VIDEO] WARNING: expected %dx%d display, got %dx%d\n",
			dw, dh, cfg.Width, cfg.Height)
	}
	if err := e.output.Start(); err != nil {
		return &VideoError{Operation: "start", Details: "display backend", Err: err}
	}

	if sc, ok := e.output.(StatusCapable); ok {
		sc.SetStatusFunc(e.telemetry.StatusLine)
	}

	// Dark gray until the first real frame lands.
	gray := rgb888ToSwap565(64, 64, 64)
	for i := range e.surface {
		e.surface[i] = gray
	}
	e.pusher.PushFull(e.surface, dw, dh)

	e.done = make(chan struct{})
	e.loopDone = make(chan struct{})
	e.running.Store(true)
	go e.renderLoop()

	fmt.Printf("[VIDEO] dirty tracking: %dx%d tiles (%d total), threshold %d%%\n",
		e.tracker.TilesX(), e.tracker.TilesY(), e.tracker.TotalTiles(), DIRTY_THRESHOLD_PERCENT)
	return nil
}

// Shutdown stops the render goroutine, waits for it to exit, closes the
// backend and only then releases the shared buffers, so every buffer
// outlives the renderer's last access.
func (e *VideoEngine) Shutdown() {
	if e.running.Load() {
		close(e.done)
		<-e.loopDone
		e.running.Store(false)
	}
	if e.output != nil {
		e.output.Close()
	}
	if e.state != nil {
		e.state.Teardown()
	}
	e.surface = nil
	e.tileSnapshot = nil
	e.tileBlock = nil
	e.snapshotBuffer = nil
	e.compareBuffer = nil
}

// SignalFrameReady is the producer's non-blocking hint that a frame worth
// rendering exists. It never guarantees an immediate render; the loop's rate
// limiting decides.
func (e *VideoEngine) SignalFrameReady() {
	select {
	case e.frameReady <- struct{}{}:
	default:
	}
}

// Refresh is the legacy synchronous entry point; it just signals the render
// loop and returns immediately.
func (e *VideoEngine) Refresh() {
	if !e.running.Load() {
		return
	}
	e.SignalFrameReady()
}

// MarkDirty marks the tile owning a framebuffer byte offset. Producer-side,
// lock-free, out-of-bounds is a no-op.
func (e *VideoEngine) MarkDirty(offset uint32) {
	e.tracker.MarkDirty(offset)
}

// MarkDirtyRange marks the boundary tiles of a multi-byte write.
func (e *VideoEngine) MarkDirtyRange(offset, size uint32) {
	e.tracker.MarkDirtyRange(offset, size)
}

// SetPalette replaces the colour table from RGB triples and forces the next
// cycle to be a full update.
func (e *VideoEngine) SetPalette(pal []byte) {
	e.state.SetPalette(pal)
}

// SetGamma is accepted and ignored (indexed modes take gamma via the
// palette).
func (e *VideoEngine) SetGamma(gamma []byte) {
	e.state.SetGamma(gamma)
}

// SetWriteTracking toggles between write-time tracking and the per-cycle
// compare fallback.
func (e *VideoEngine) SetWriteTracking(on bool) {
	e.tracker.SetWriteTracking(on)
}

// SetMode reconfigures the emulated geometry. A depth other than 8-bit
// indexed is rejected. Changing dimensions reallocates every buffer, so it
// is only permitted while the renderer is stopped; a same-geometry call just
// forces the next render to be a full update, mirroring a mode switch that
// only changes the frame base.
func (e *VideoEngine) SetMode(width, height, depth int) error {
	if depth != MAC_SCREEN_DEPTH {
		return &VideoError{Operation: "set mode",
			Details: fmt.Sprintf("unsupported depth %d", depth)}
	}
	if e.state != nil && width == e.state.width && height == e.state.height {
		e.state.forceFullUpdate.Store(true)
		return nil
	}
	if e.running.Load() {
		return &VideoError{Operation: "set mode",
			Details: "geometry change requires a stopped renderer"}
	}
	tw, th := TILE_WIDTH, TILE_HEIGHT
	if e.state != nil {
		tw, th = e.state.tileWidth, e.state.tileHeight
	}
	return e.Init(width, height, tw, th)
}

// FrameBuffer exposes the live framebuffer to the producer's write path.
func (e *VideoEngine) FrameBuffer() []byte {
	return e.state.FrameBuffer()
}

func (e *VideoEngine) renderLoop() {
	defer close(e.loopDone)

	timer := time.NewTimer(MIN_FRAME_INTERVAL)
	defer timer.Stop()

	// Allow the first cycle to render immediately.
	lastFrame := time.Now().Add(-MIN_FRAME_INTERVAL)

	var localPalette [256]uint16

	for {
		signaled := false
		select {
		case <-e.done:
			return
		case <-e.frameReady:
			signaled = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
		timer.Reset(MIN_FRAME_INTERVAL)

		now := time.Now()
		if signaled && now.Sub(lastFrame) < MIN_FRAME_INTERVAL {
			// Too soon; pending dirty state drains on the next timeout.
			continue
		}

		e.runCycle(&localPalette)
		lastFrame = now
		e.telemetry.MaybeReport(now)
	}
}

// runCycle performs one collect/decide/render/push pass.
func (e *VideoEngine) runCycle(pal *[256]uint16) {
	e.state.CopyPalette(pal)

	fullUpdate := e.state.forceFullUpdate.Load()
	dirtyCount := 0

	if !fullUpdate && e.tracker.WriteTracking() {
		t0 := time.Now()
		dirtyCount = e.tracker.CollectAndClear()
		e.telemetry.AddDetect(time.Since(t0))
		if dirtyCount > e.tracker.Threshold() {
			fullUpdate = true
		}
	} else if !fullUpdate {
		// Compare fallback: snapshot the whole frame, diff against what was
		// rendered last cycle, then swap the pair so this snapshot becomes
		// the next comparison baseline.
		t0 := time.Now()
		copy(e.snapshotBuffer, e.state.FrameBuffer())
		e.telemetry.AddSnapshot(time.Since(t0))

		t0 = time.Now()
		dirtyCount = e.tracker.DetectDirty(e.snapshotBuffer, e.compareBuffer)
		e.telemetry.AddDetect(time.Since(t0))
		if dirtyCount > e.tracker.Threshold() {
			fullUpdate = true
		}
		e.snapshotBuffer, e.compareBuffer = e.compareBuffer, e.snapshotBuffer
	}

	switch {
	case fullUpdate:
		t0 := time.Now()
		e.renderer.RenderFrame(e.state.FrameBuffer(), pal, e.surface)
		e.telemetry.AddRender(time.Since(t0))

		t0 = time.Now()
		e.pusher.PushFull(e.surface, e.displayWidth(), e.displayHeight())
		e.telemetry.AddPush(time.Since(t0))

		e.state.forceFullUpdate.Store(false)
		e.telemetry.CountFull()

	case dirtyCount > 0:
		t0 := time.Now()
		e.renderAndPushDirtyTiles(pal)
		e.telemetry.AddRender(time.Since(t0))
		e.telemetry.CountPartial()

	default:
		// Nothing dirty, no force flag: an explicit skip, not an error.
		e.telemetry.CountSkip()
	}
}

// renderAndPushDirtyTiles snapshots, renders and pushes each dirty tile in
// one transport batch. The per-tile snapshot bounds the race with the
// producer to one tile's bytes, which eliminates cross-tile tearing at the
// cost of a small fixed copy per dirty tile.
func (e *VideoEngine) renderAndPushDirtyTiles(pal *[256]uint16) {
	fb := e.state.FrameBuffer()
	tw := e.state.tileWidth * PIXEL_SCALE
	th := e.state.tileHeight * PIXEL_SCALE

	e.pusher.Begin()
	for ty := 0; ty < e.tracker.TilesY(); ty++ {
		for tx := 0; tx < e.tracker.TilesX(); tx++ {
			if !e.tracker.TileDirty(ty*e.tracker.TilesX() + tx) {
				continue
			}
			e.renderer.SnapshotTile(fb, tx, ty, e.tileSnapshot)
			e.renderer.RenderTile(e.tileSnapshot, pal, e.tileBlock)
			e.pusher.PushBlock(tx*tw, ty*th, tw, th, e.tileBlock)
		}
	}
	e.pusher.End()
}
