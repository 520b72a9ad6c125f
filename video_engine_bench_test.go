// video_engine_bench_test.go - Benchmarks for the dirty-tile video pipeline
//
// Run with: go test -bench=. -benchmem -run="^$" ./...

package main

import "testing"

func BenchmarkMarkDirty(b *testing.B) {
	dt := NewDirtyTracker(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dt.MarkDirty(uint32(i) % uint32(MAC_SCREEN_WIDTH*MAC_SCREEN_HEIGHT))
	}
}

func BenchmarkCollectAndClear(b *testing.B) {
	dt := NewDirtyTracker(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dt.MarkDirty(0)
		dt.MarkDirty(uint32(MAC_SCREEN_WIDTH * (MAC_SCREEN_HEIGHT - 1)))
		_ = dt.CollectAndClear()
	}
}

func BenchmarkDetectDirty(b *testing.B) {
	dt := NewDirtyTracker(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	size := MAC_SCREEN_WIDTH * MAC_SCREEN_HEIGHT
	current := make([]byte, size)
	previous := make([]byte, size)
	// One changed tile, typical steady-state load.
	current[tileOffset(8, 4)] = 1

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dt.DetectDirty(current, previous)
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	r := NewRenderer(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	pal := grayscalePalette()
	src := make([]byte, MAC_SCREEN_WIDTH*MAC_SCREEN_HEIGHT)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]uint16, DISPLAY_WIDTH*DISPLAY_HEIGHT)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RenderFrame(src, pal, dst)
	}
}

func BenchmarkRenderTile(b *testing.B) {
	r := NewRenderer(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	pal := grayscalePalette()
	src := make([]byte, MAC_SCREEN_WIDTH*MAC_SCREEN_HEIGHT)
	for i := range src {
		src[i] = byte(i)
	}
	snapshot := make([]byte, TILE_WIDTH*TILE_HEIGHT)
	block := make([]uint16, TILE_WIDTH*PIXEL_SCALE*TILE_HEIGHT*PIXEL_SCALE)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.SnapshotTile(src, 3, 2, snapshot)
		r.RenderTile(snapshot, pal, block)
	}
}

func BenchmarkRunCycle_SingleDirtyTile(b *testing.B) {
	e, err := NewVideoEngine(VIDEO_BACKEND_HEADLESS)
	if err != nil {
		b.Fatalf("NewVideoEngine: %v", err)
	}
	if err := e.Init(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT); err != nil {
		b.Fatalf("Init: %v", err)
	}
	var pal [256]uint16
	e.runCycle(&pal) // drain the forced first frame

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.MarkDirty(0)
		e.runCycle(&pal)
	}
}

func BenchmarkRunCycle_FullFrame(b *testing.B) {
	e, err := NewVideoEngine(VIDEO_BACKEND_HEADLESS)
	if err != nil {
		b.Fatalf("NewVideoEngine: %v", err)
	}
	if err := e.Init(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT); err != nil {
		b.Fatalf("Init: %v", err)
	}
	var pal [256]uint16

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.state.forceFullUpdate.Store(true)
		e.runCycle(&pal)
	}
}
