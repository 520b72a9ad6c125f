// memory_bus.go - Producer-side memory bus for MacVision

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
memory_bus.go - the producer-facing memory bus.

This module is the integration surface between the emulated machine and the
video layer. The 68k virtual machine sees the framebuffer as ordinary memory
at MAC_FRAME_BASE; every byte, word and long write it issues lands here, gets
stored big-endian (68k byte order) into the shared framebuffer, and marks the
owning tiles dirty as a side effect. The emulator itself is an external
collaborator: it needs nothing from the video layer beyond this write path
and the palette/mode calls on the engine.

Technical details:

    Memory-mapped regions are registered per 256-byte page, so region lookup
    on the hot write path is one map probe plus a bounds check.

    Accesses carry an explicit size (1, 2 or 4 bytes) mirroring the 68k's
    bput/wput/lput granularity. This is what makes boundary-only dirty
    marking sound: a 4-byte write can span at most two horizontally adjacent
    tiles.

    Region callbacks run outside the bus lock. The framebuffer handler must
    stay lock-free; serialising it behind the bus mutex would reintroduce
    exactly the producer stall the dirty tracker exists to avoid.
*/

package main

import (
	"encoding/binary"
	"sync"
)

const (
	DEFAULT_MEMORY_SIZE = 16 * 1024 * 1024
	PAGE_SIZE           = 0x100
	PAGE_MASK           = 0xFFFFFF00
)

// MemoryBus defines sized read/write access as the emulated CPU performs it.
type MemoryBus interface {
	Read(addr uint32, size uint32) uint32
	Write(addr uint32, value uint32, size uint32)
	Reset()
}

// SystemBus implements MemoryBus with a contiguous main memory block and a
// table of memory-mapped I/O regions keyed by page.
type SystemBus struct {
	memory  []byte
	mutex   sync.RWMutex
	mapping map[uint32][]IORegion
}

// IORegion represents a memory-mapped region. Callbacks receive the absolute
// address, the value (for writes) and the access size in bytes.
type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32, size uint32) uint32
	onWrite func(addr uint32, value uint32, size uint32)
}

func NewSystemBus() *SystemBus {
	return &SystemBus{
		memory:  make([]byte, DEFAULT_MEMORY_SIZE),
		mapping: make(map[uint32][]IORegion),
	}
}

// MapIO registers a memory-mapped region covering [start, end]. Later
// registrations shadow earlier ones for overlapping pages.
func (bus *SystemBus) MapIO(start, end uint32, onRead func(uint32, uint32) uint32, onWrite func(uint32, uint32, uint32)) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	region := IORegion{start: start, end: end, onRead: onRead, onWrite: onWrite}
	for page := start & PAGE_MASK; page <= end; page += PAGE_SIZE {
		bus.mapping[page] = append([]IORegion{region}, bus.mapping[page]...)
	}
}

func (bus *SystemBus) findRegion(addr uint32) *IORegion {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	for i := range bus.mapping[addr&PAGE_MASK] {
		r := &bus.mapping[addr&PAGE_MASK][i]
		if addr >= r.start && addr <= r.end {
			return r
		}
	}
	return nil
}

// Write stores a 1, 2 or 4 byte value big-endian at addr, dispatching to a
// mapped region when one covers the address.
func (bus *SystemBus) Write(addr uint32, value uint32, size uint32) {
	if r := bus.findRegion(addr); r != nil {
		if r.onWrite != nil {
			r.onWrite(addr, value, size)
		}
		return
	}

	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if int(addr)+int(size) > len(bus.memory) {
		return
	}
	switch size {
	case 1:
		bus.memory[addr] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(bus.memory[addr:], uint16(value))
	case 4:
		binary.BigEndian.PutUint32(bus.memory[addr:], value)
	}
}

// Read fetches a 1, 2 or 4 byte big-endian value from addr.
func (bus *SystemBus) Read(addr uint32, size uint32) uint32 {
	if r := bus.findRegion(addr); r != nil {
		if r.onRead != nil {
			return r.onRead(addr, size)
		}
		return 0
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if int(addr)+int(size) > len(bus.memory) {
		return 0
	}
	switch size {
	case 1:
		return uint32(bus.memory[addr])
	case 2:
		return uint32(binary.BigEndian.Uint16(bus.memory[addr:]))
	case 4:
		return binary.BigEndian.Uint32(bus.memory[addr:])
	}
	return 0
}

// Reset clears main memory. Mapped regions are the owning device's problem.
func (bus *SystemBus) Reset() {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	for i := range bus.memory {
		bus.memory[i] = 0
	}
}

// MapFrameBuffer exposes the engine's framebuffer on the bus at base. Writes
// land in the framebuffer and mark the owning tiles; reads return what the
// producer last wrote.
func (e *VideoEngine) MapFrameBuffer(bus *SystemBus, base uint32) {
	e.frameBase = base
	end := base + uint32(e.state.FrameBufferSize()) - 1
	bus.MapIO(base, end, e.handleFrameRead, e.handleFrameWrite)
}

func (e *VideoEngine) handleFrameWrite(addr uint32, value uint32, size uint32) {
	offset := addr - e.frameBase
	fb := e.state.FrameBuffer()
	if int(offset)+int(size) > len(fb) {
		return
	}
	switch size {
	case 1:
		fb[offset] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(fb[offset:], uint16(value))
	case 4:
		binary.BigEndian.PutUint32(fb[offset:], value)
	}
	e.tracker.MarkDirtyRange(offset, size)
}

func (e *VideoEngine) handleFrameRead(addr uint32, size uint32) uint32 {
	offset := addr - e.frameBase
	fb := e.state.FrameBuffer()
	if int(offset)+int(size) > len(fb) {
		return 0
	}
	switch size {
	case 1:
		return uint32(fb[offset])
	case 2:
		return uint32(binary.BigEndian.Uint16(fb[offset:]))
	case 4:
		return binary.BigEndian.Uint32(fb[offset:])
	}
	return 0
}
