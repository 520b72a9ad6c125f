// video_dirty.go - Dirty tile tracking engine for MacVision

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
Write-time dirty tracking: the producer marks the owning tile of every
framebuffer write with a lock-free atomic bit-set, and the renderer drains the
bitmap once per cycle with a bulk exchange-to-zero. The producer is never
blocked for more than one atomic operation, which is the whole point - a
mutex here would stall the emulated CPU on every pixel write.

Memory-ordering contract: the only requirement on a bit-set is that it becomes
visible to the renderer by the next CollectAndClear, not any particular
ordering against the pixel write it describes. Go's sync/atomic provides
sequentially consistent operations, which is stronger than needed and
trivially satisfies the contract.

Accepted race: a bit set concurrently with the renderer's exchange can be
lost for that cycle. Continuous writes re-mark the tile on the next write and
the frame cadence makes a one-cycle-late tile imperceptible. Do not "fix"
this with a lock; that reintroduces producer stalls for no visible benefit.
*/

package main

import (
	"bytes"
	"math/bits"
	"sync/atomic"
)

// DirtyTracker maintains two bit-vectors over the tile grid: a write-side
// bitmap fed by the producer and a render-side bitmap populated from it each
// cycle. Bit i corresponds to tile index ty*tilesX+tx.
type DirtyTracker struct {
	width      int
	frameSize  int
	tileWidth  int
	tileHeight int
	tilesX     int
	tilesY     int
	totalTiles int

	writeBitmap  []atomic.Uint32
	renderBitmap []uint32

	writeTracking atomic.Bool
}

// NewDirtyTracker builds a tracker for a framebuffer of width x height pixels
// partitioned into tileWidth x tileHeight tiles. Geometry must already be
// validated (see NewFrameState); the grid is immutable afterwards.
func NewDirtyTracker(width, height, tileWidth, tileHeight int) *DirtyTracker {
	dt := &DirtyTracker{
		width:      width,
		frameSize:  width * height,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		tilesX:     width / tileWidth,
		tilesY:     height / tileHeight,
	}
	dt.totalTiles = dt.tilesX * dt.tilesY
	words := (dt.totalTiles + 31) / 32
	dt.writeBitmap = make([]atomic.Uint32, words)
	dt.renderBitmap = make([]uint32, words)
	dt.writeTracking.Store(true)
	return dt
}

func (dt *DirtyTracker) TotalTiles() int { return dt.totalTiles }
func (dt *DirtyTracker) TilesX() int     { return dt.tilesX }
func (dt *DirtyTracker) TilesY() int     { return dt.tilesY }

// Threshold returns the dirty-tile count above which a full update is
// cheaper than per-tile transfers.
func (dt *DirtyTracker) Threshold() int {
	return dt.totalTiles * DIRTY_THRESHOLD_PERCENT / 100
}

// SetWriteTracking switches between write-time marking and the per-cycle
// compare fallback.
func (dt *DirtyTracker) SetWriteTracking(on bool) {
	dt.writeTracking.Store(on)
}

func (dt *DirtyTracker) WriteTracking() bool {
	return dt.writeTracking.Load()
}

// MarkDirty marks the tile containing the given framebuffer byte offset.
// Called from the producer's memory-write path, so it must stay
// unconditionally fast: out-of-bounds offsets are a silent no-op, never an
// error.
func (dt *DirtyTracker) MarkDirty(offset uint32) {
	if !dt.writeTracking.Load() {
		return
	}
	if offset >= uint32(dt.frameSize) {
		return
	}

	y := int(offset) / dt.width
	x := int(offset) % dt.width
	idx := (y/dt.tileHeight)*dt.tilesX + x/dt.tileWidth

	dt.writeBitmap[idx/32].Or(1 << (idx % 32))
}

// MarkDirtyRange marks the tiles containing the first and last byte of a
// multi-byte write. Marking only the boundary tiles is sufficient for the
// producer's actual write granularity (at most a 4-byte bus access, which
// can span at most two horizontally adjacent tiles). A very large contiguous
// write that skips rows could under-mark interior tiles; accepted
// approximation, left as-is until a producer exhibits such writes.
func (dt *DirtyTracker) MarkDirtyRange(offset, size uint32) {
	if !dt.writeTracking.Load() {
		return
	}
	if offset >= uint32(dt.frameSize) {
		return
	}
	if offset+size > uint32(dt.frameSize) {
		size = uint32(dt.frameSize) - offset
	}

	dt.MarkDirty(offset)
	if size > 1 {
		dt.MarkDirty(offset + size - 1)
	}
}

// CollectAndClear atomically exchanges each word of the write-side bitmap
// with zero, copies the pre-exchange values into the render-side bitmap and
// returns the dirty tile count. This is the single synchronization point
// between producer and renderer for dirty state.
func (dt *DirtyTracker) CollectAndClear() int {
	count := 0
	for i := range dt.writeBitmap {
		w := dt.writeBitmap[i].Swap(0)
		dt.renderBitmap[i] = w
		count += bits.OnesCount32(w)
	}
	return count
}

// TileDirty reports whether the given tile index is set in the render-side
// bitmap, i.e. whether the last CollectAndClear or DetectDirty saw it change.
func (dt *DirtyTracker) TileDirty(idx int) bool {
	return dt.renderBitmap[idx/32]&(1<<(idx%32)) != 0
}

// DetectDirty computes dirtiness by comparing two full-frame snapshots,
// row by row per tile with an early exit on the first mismatch. This is the
// degraded mode used when write-time hooks are disabled: it costs O(W*H)
// every cycle where write tracking costs O(dirty bytes).
func (dt *DirtyTracker) DetectDirty(current, previous []byte) int {
	for i := range dt.renderBitmap {
		dt.renderBitmap[i] = 0
	}

	count := 0
	for ty := 0; ty < dt.tilesY; ty++ {
		for tx := 0; tx < dt.tilesX; tx++ {
			dirty := false
			for row := 0; row < dt.tileHeight && !dirty; row++ {
				off := (ty*dt.tileHeight+row)*dt.width + tx*dt.tileWidth
				if !bytes.Equal(current[off:off+dt.tileWidth], previous[off:off+dt.tileWidth]) {
					dirty = true
				}
			}
			if dirty {
				idx := ty*dt.tilesX + tx
				dt.renderBitmap[idx/32] |= 1 << (idx % 32)
				count++
			}
		}
	}
	return count
}
