// main.go - Main entry point for the MacVision demo machine

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

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func boilerPlate() {
	fmt.Println("\n███╗   ███╗ █████╗  ██████╗██╗   ██╗██╗███████╗██╗ ██████╗ ███╗   ██╗")
	fmt.Println("████╗ ████║██╔══██╗██╔════╝██║   ██║██║██╔════╝██║██╔═══██╗████╗  ██║")
	fmt.Println("██╔████╔██║███████║██║     ██║   ██║██║███████╗██║██║   ██║██╔██╗ ██║")
	fmt.Println("██║╚██╔╝██║██╔══██║██║     ╚██╗ ██╔╝██║╚════██║██║██║   ██║██║╚██╗██║")
	fmt.Println("██║ ╚═╝ ██║██║  ██║╚██████╗ ╚████╔╝ ██║███████║██║╚██████╔╝██║ ╚████║")
	fmt.Println("╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝  ╚═══╝  ╚═╝╚══════╝╚═╝ ╚═════╝ ╚═╝  ╚═══╝")
	fmt.Println("\nA dirty-tile video pipeline for 68k Macintosh-style machine emulation.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/MacVision")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	novideo := flag.Bool("novideo", false, "use the recording backend instead of a window")
	seconds := flag.Int("seconds", 0, "exit after this many seconds (0 = run until the window closes)")
	compare := flag.Bool("compare", false, "disable write-time dirty tracking, use snapshot comparison")
	flag.Parse()

	boilerPlate()

	backend := VIDEO_BACKEND_EBITEN
	if *novideo {
		backend = VIDEO_BACKEND_HEADLESS
	}

	engine, err := NewVideoEngine(backend)
	if err != nil {
		fmt.Printf("Failed to create video engine: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Init(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT); err != nil {
		fmt.Printf("Failed to initialize video engine: %v\n", err)
		os.Exit(1)
	}
	if *compare {
		engine.SetWriteTracking(false)
	}

	bus := NewSystemBus()
	engine.MapFrameBuffer(bus, MAC_FRAME_BASE)

	if err := engine.Start(); err != nil {
		// The machine keeps running without video output; frames are
		// dropped rather than taking the producer down.
		fmt.Printf("[VIDEO] %v - continuing without video output\n", err)
	}

	stop := make(chan struct{})
	producerDone := make(chan struct{})
	go runDemoProducer(bus, engine, stop, producerDone)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *seconds > 0 {
		timeout = time.After(time.Duration(*seconds) * time.Second)
	}
	var windowClosed <-chan struct{}
	if d, ok := engine.output.(interface{ Done() <-chan struct{} }); ok {
		windowClosed = d.Done()
	}

	select {
	case <-sigc:
		fmt.Println("\nInterrupted")
	case <-timeout:
	case <-windowClosed:
	}

	close(stop)
	<-producerDone
	engine.Shutdown()
}

// runDemoProducer stands in for the emulated machine: it continuously writes
// to the mapped framebuffer through the bus at machine cadence, signalling
// frame-ready as it goes. A bouncing block exercises partial updates; the
// periodic palette cycle exercises forced full updates.
func runDemoProducer(bus *SystemBus, engine *VideoEngine, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	const boxSize = 64
	x, y := 0, 0
	dx, dy := 2, 2

	fillBox := func(px, py int, index byte) {
		pattern := uint32(index)<<24 | uint32(index)<<16 | uint32(index)<<8 | uint32(index)
		for row := 0; row < boxSize; row++ {
			off := uint32((py+row)*MAC_SCREEN_WIDTH + px)
			for col := uint32(0); col < boxSize; col += 4 {
				bus.Write(MAC_FRAME_BASE+off+col, pattern, 4)
			}
		}
	}

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	paletteTicker := time.NewTicker(7 * time.Second)
	defer paletteTicker.Stop()

	hue := 0
	pal := make([]byte, 768)

	for {
		select {
		case <-stop:
			return
		case <-paletteTicker.C:
			// Rotate a colour ramp through the table; forces a full update.
			hue = (hue + 64) % 256
			for i := range 256 {
				pal[i*3] = byte((i + hue) % 256)
				pal[i*3+1] = byte(255 - i)
				pal[i*3+2] = byte(i)
			}
			engine.SetPalette(pal)
			engine.SignalFrameReady()
		case <-ticker.C:
			fillBox(x, y, 0x80)
			x += dx
			y += dy
			if x <= 0 || x+boxSize >= MAC_SCREEN_WIDTH {
				dx = -dx
				x += dx
			}
			if y <= 0 || y+boxSize >= MAC_SCREEN_HEIGHT {
				dy = -dy
				y += dy
			}
			fillBox(x, y, 0x20)
			engine.SignalFrameReady()
		}
	}
}
