// memory_bus_test.go - System bus and framebuffer mapping tests

package main

import "testing"

func TestBus_BigEndianReadWrite(t *testing.T) {
	bus := NewSystemBus()

	bus.Write(0x1000, 0x11223344, 4)
	if got := bus.Read(0x1000, 4); got != 0x11223344 {
		t.Fatalf("32-bit read: got %08X", got)
	}
	// Big-endian byte order in memory.
	if got := bus.Read(0x1000, 1); got != 0x11 {
		t.Fatalf("expected high byte first, got %02X", got)
	}
	if got := bus.Read(0x1002, 2); got != 0x3344 {
		t.Fatalf("16-bit read: got %04X", got)
	}

	bus.Write(0x2000, 0xBEEF, 2)
	if got := bus.Read(0x2000, 2); got != 0xBEEF {
		t.Fatalf("16-bit round trip: got %04X", got)
	}

	bus.Reset()
	if got := bus.Read(0x1000, 4); got != 0 {
		t.Fatalf("expected zero after reset, got %08X", got)
	}
}

func TestBus_OutOfRangeAccessIsNoOp(t *testing.T) {
	bus := NewSystemBus()
	bus.Write(DEFAULT_MEMORY_SIZE-2, 0xFFFFFFFF, 4)
	if got := bus.Read(DEFAULT_MEMORY_SIZE-2, 4); got != 0 {
		t.Fatalf("expected dropped write past memory end, got %08X", got)
	}
}

func TestMapFrameBuffer_WritesLandAndMarkTiles(t *testing.T) {
	e, _ := newTestEngine(t)
	bus := NewSystemBus()
	e.MapFrameBuffer(bus, MAC_FRAME_BASE)

	bus.Write(MAC_FRAME_BASE, 0x01020304, 4)
	fb := e.FrameBuffer()
	if fb[0] != 0x01 || fb[1] != 0x02 || fb[2] != 0x03 || fb[3] != 0x04 {
		t.Fatalf("framebuffer bytes %02X %02X %02X %02X, want 01 02 03 04",
			fb[0], fb[1], fb[2], fb[3])
	}

	if got := e.tracker.CollectAndClear(); got != 1 {
		t.Fatalf("expected 1 dirty tile from bus write, got %d", got)
	}
	if !e.tracker.TileDirty(0) {
		t.Fatal("expected tile 0 dirty")
	}
}

func TestMapFrameBuffer_WriteInInteriorTile(t *testing.T) {
	e, _ := newTestEngine(t)
	bus := NewSystemBus()
	e.MapFrameBuffer(bus, MAC_FRAME_BASE)

	// One byte in tile (3,2).
	off := tileOffset(3, 2) + uint32(7*MAC_SCREEN_WIDTH+11)
	bus.Write(MAC_FRAME_BASE+off, 0x7F, 1)

	if e.FrameBuffer()[off] != 0x7F {
		t.Fatalf("byte write missed: got %02X", e.FrameBuffer()[off])
	}
	if got := e.tracker.CollectAndClear(); got != 1 {
		t.Fatalf("expected 1 dirty tile, got %d", got)
	}
	if !e.tracker.TileDirty(2*e.tracker.TilesX() + 3) {
		t.Fatal("expected tile (3,2) dirty")
	}
}

func TestMapFrameBuffer_ReadsRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	bus := NewSystemBus()
	e.MapFrameBuffer(bus, MAC_FRAME_BASE)

	bus.Write(MAC_FRAME_BASE+100, 0xCAFE, 2)
	if got := bus.Read(MAC_FRAME_BASE+100, 2); got != 0xCAFE {
		t.Fatalf("framebuffer read: got %04X", got)
	}
	if got := bus.Read(MAC_FRAME_BASE+100, 1); got != 0xCA {
		t.Fatalf("framebuffer byte read: got %02X", got)
	}
}

func TestMapFrameBuffer_WritePastEndIsDropped(t *testing.T) {
	e, _ := newTestEngine(t)
	bus := NewSystemBus()
	e.MapFrameBuffer(bus, MAC_FRAME_BASE)

	last := uint32(e.state.FrameBufferSize()) - 2
	bus.Write(MAC_FRAME_BASE+last, 0xFFFFFFFF, 4)
	if e.FrameBuffer()[last] != 0x80 {
		t.Fatal("overlapping write at the framebuffer end must be dropped whole")
	}
	if got := e.tracker.CollectAndClear(); got != 0 {
		t.Fatalf("dropped write marked %d tiles", got)
	}
}

func TestBus_UnmappedRegionUntouchedByFrameWrites(t *testing.T) {
	e, _ := newTestEngine(t)
	bus := NewSystemBus()
	e.MapFrameBuffer(bus, MAC_FRAME_BASE)

	// Plain memory just below the frame base stays plain memory.
	bus.Write(MAC_FRAME_BASE-4, 0xAABBCCDD, 4)
	if got := bus.Read(MAC_FRAME_BASE-4, 4); got != 0xAABBCCDD {
		t.Fatalf("memory below frame base: got %08X", got)
	}
	if got := e.tracker.CollectAndClear(); got != 0 {
		t.Fatalf("write below frame base marked %d tiles", got)
	}
}
