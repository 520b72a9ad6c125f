package main

import "time"

// Emulated screen geometry. 640x360 at 8-bit indexed colour, doubled to
// 1280x720 on the physical display.
const (
	MAC_SCREEN_WIDTH  = 640
	MAC_SCREEN_HEIGHT = 360
	MAC_SCREEN_DEPTH  = 8
	PIXEL_SCALE       = 2

	DISPLAY_WIDTH  = MAC_SCREEN_WIDTH * PIXEL_SCALE
	DISPLAY_HEIGHT = MAC_SCREEN_HEIGHT * PIXEL_SCALE
)

// Tile-based dirty tracking. 40x40 emulated pixels per tile gives a
// 16x9 grid (144 tiles) covering 640x360 with no remainder.
const (
	TILE_WIDTH  = 40
	TILE_HEIGHT = 40

	// If more than this percentage of tiles are dirty, a full update is
	// cheaper than paying the per-tile transfer overhead.
	DIRTY_THRESHOLD_PERCENT = 80
)

// Frame pacing and diagnostics.
const (
	// Minimum time between renders, ~15 FPS. The renderer's wait is also
	// bounded by this so dirty state drains even without a signal.
	MIN_FRAME_INTERVAL = 67 * time.Millisecond

	PERF_REPORT_INTERVAL = 5 * time.Second
)

// Producer-side address of the emulated framebuffer on the system bus.
const MAC_FRAME_BASE = 0x00A00000
