//go:build !headless

// video_backend_ebiten.go - Ebiten display backend for MacVision

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
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// EbitenOutput implements the blit transport on a desktop window. Incoming
// swap565 blocks are unpacked to RGBA into an internal buffer at the current
// address window; Draw uploads the buffer once per display refresh. The
// window runs on its own goroutine wrapping RunGame so the render loop never
// blocks on the display.
type EbitenOutput struct {
	running     bool
	window      *ebiten.Image
	width       int
	height      int
	scale       int
	fullscreen  bool
	windowedW   int
	windowedH   int
	frameBuffer []byte // RGBA
	bufferMutex sync.RWMutex
	frameCount  atomic.Uint64
	vsyncChan   chan struct{}
	done        chan struct{}

	// Current blit window and write cursor within it.
	winX, winY, winW, winH int
	cursor                 int

	showStatusBar bool
	statusFunc    func() string
}

func NewEbitenOutput() (DisplayOutput, error) {
	return &EbitenOutput{
		width:         DISPLAY_WIDTH,
		height:        DISPLAY_HEIGHT,
		scale:         1,
		windowedW:     DISPLAY_WIDTH,
		windowedH:     DISPLAY_HEIGHT,
		frameBuffer:   make([]byte, DISPLAY_WIDTH*DISPLAY_HEIGHT*4),
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
		showStatusBar: true,
	}, nil
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.bufferMutex.Lock()
	eo.done = make(chan struct{})
	eo.bufferMutex.Unlock()
	eo.running = true
	ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	ebiten.SetWindowTitle("MacVision (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running = false
			eo.bufferMutex.RLock()
			done := eo.done
			eo.bufferMutex.RUnlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for the first Draw call so callers know the window is live.
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

// Done is closed when the window is closed by the user.
func (eo *EbitenOutput) Done() <-chan struct{} {
	eo.bufferMutex.RLock()
	done := eo.done
	eo.bufferMutex.RUnlock()
	return done
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	width := config.Width
	height := config.Height
	if width <= 0 || height <= 0 {
		return &VideoError{Operation: "display config", Details: "non-positive dimensions"}
	}
	eo.width = width
	eo.height = height
	eo.scale = config.Scale
	if eo.scale < 1 {
		eo.scale = 1
	}
	if newSize := width * height * 4; len(eo.frameBuffer) != newSize {
		eo.frameBuffer = make([]byte, newSize)
	}
	eo.windowedW = width * eo.scale
	eo.windowedH = height * eo.scale
	eo.fullscreen = config.Fullscreen
	ebiten.SetFullscreen(eo.fullscreen)
	if !eo.fullscreen {
		ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	}
	if eo.window != nil {
		eo.window.Dispose()
		eo.window = nil
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	return DisplayConfig{
		Width:      eo.width,
		Height:     eo.height,
		Scale:      eo.scale,
		Fullscreen: eo.fullscreen,
	}
}

func (eo *EbitenOutput) SetStatusFunc(fn func() string) {
	eo.bufferMutex.Lock()
	eo.statusFunc = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) BeginBatch() {
	// The RGBA buffer is the batch: blocks accumulate under the mutex and
	// Draw picks the finished state up on the next display refresh.
}

func (eo *EbitenOutput) SetWindow(x, y, w, h int) {
	eo.bufferMutex.Lock()
	eo.winX, eo.winY, eo.winW, eo.winH = x, y, w, h
	eo.cursor = 0
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) WritePixels(pixels []uint16) {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()
	if eo.winW <= 0 {
		return
	}
	for _, p := range pixels {
		if eo.cursor >= eo.winW*eo.winH {
			break
		}
		x := eo.winX + eo.cursor%eo.winW
		y := eo.winY + eo.cursor/eo.winW
		eo.cursor++
		if x < 0 || x >= eo.width || y < 0 || y >= eo.height {
			continue
		}
		r, g, b := swap565Components(p)
		off := (y*eo.width + x) * 4
		eo.frameBuffer[off] = r
		eo.frameBuffer[off+1] = g
		eo.frameBuffer[off+2] = b
		eo.frameBuffer[off+3] = 0xFF
	}
}

func (eo *EbitenOutput) EndBatch() {
}

func (eo *EbitenOutput) FrameCount() uint64 {
	return eo.frameCount.Load()
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if !eo.running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}
	return nil
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	showStatusBar := eo.showStatusBar
	statusFunc := eo.statusFunc
	eo.bufferMutex.RUnlock()
	screen.DrawImage(eo.window, nil)

	if showStatusBar && statusFunc != nil {
		label := statusFunc()
		text.Draw(screen, label, basicfont.Face7x13,
			8, eo.height-8, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	}

	eo.frameCount.Add(1)
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return eo.width, eo.height
}
