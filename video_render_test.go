// video_render_test.go - Pixel conversion and scaling tests

package main

import "testing"

func TestSwap565_KnownValues(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		want    uint16
	}{
		{0, 0, 0, 0x0000},
		{255, 255, 255, 0xFFFF},
		{255, 0, 0, 0x00F8}, // low byte RRRRR000
		{0, 255, 0, 0xE007}, // green split across both bytes
		{0, 0, 255, 0x1F00}, // high byte 000BBBBB
	}
	for _, c := range cases {
		if got := rgb888ToSwap565(c.r, c.g, c.b); got != c.want {
			t.Errorf("rgb888ToSwap565(%d,%d,%d) = %04X, want %04X", c.r, c.g, c.b, got, c.want)
		}
	}
}

func TestSwap565_RoundTrip(t *testing.T) {
	// Every value representable in 5/6/5 must survive unpack and repack.
	for r := 0; r < 256; r += 8 {
		for g := 0; g < 256; g += 4 {
			for b := 0; b < 256; b += 8 {
				packed := rgb888ToSwap565(uint8(r), uint8(g), uint8(b))
				rr, gg, bb := swap565Components(packed)
				if rgb888ToSwap565(rr, gg, bb) != packed {
					t.Fatalf("round trip failed for (%d,%d,%d): packed=%04X unpacked=(%d,%d,%d)",
						r, g, b, packed, rr, gg, bb)
				}
			}
		}
	}
}

func grayscalePalette() *[256]uint16 {
	var pal [256]uint16
	for i := range 256 {
		gray := uint8(255 - i)
		pal[i] = rgb888ToSwap565(gray, gray, gray)
	}
	return &pal
}

func TestRenderFrame_ColorRoundTrip(t *testing.T) {
	const w, h = 8, 4
	r := NewRenderer(w, h, 4, 2)
	pal := grayscalePalette()

	src := make([]byte, w*h)
	for i := range src {
		src[i] = byte(i * 8)
	}
	dst := make([]uint16, w*PIXEL_SCALE*h*PIXEL_SCALE)
	r.RenderFrame(src, pal, dst)

	// Every source pixel must become a 2x2 block of its palette colour.
	dw := w * PIXEL_SCALE
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := pal[src[y*w+x]]
			for dy := 0; dy < PIXEL_SCALE; dy++ {
				for dx := 0; dx < PIXEL_SCALE; dx++ {
					got := dst[(y*PIXEL_SCALE+dy)*dw+x*PIXEL_SCALE+dx]
					if got != want {
						t.Fatalf("pixel (%d,%d) block (%d,%d): got %04X, want %04X",
							x, y, dx, dy, got, want)
					}
				}
			}
		}
	}
}

func TestExpandRow_BatchedMatchesScalar(t *testing.T) {
	pal := grayscalePalette()

	// Widths around the 4-pixel batch boundary, including ones that leave a
	// remainder for the scalar tail.
	for _, w := range []int{1, 3, 4, 5, 7, 8, 13, 40} {
		src := make([]byte, w)
		for i := range src {
			src[i] = byte(i*37 + w)
		}

		row0 := make([]uint16, w*2)
		row1 := make([]uint16, w*2)
		expandRow(src, pal, row0, row1)

		for x := 0; x < w; x++ {
			want := pal[src[x]]
			if row0[x*2] != want || row0[x*2+1] != want {
				t.Fatalf("width %d: row0 pixel %d got %04X/%04X, want %04X",
					w, x, row0[x*2], row0[x*2+1], want)
			}
			if row1[x*2] != want || row1[x*2+1] != want {
				t.Fatalf("width %d: row1 pixel %d got %04X/%04X, want %04X",
					w, x, row1[x*2], row1[x*2+1], want)
			}
		}
	}
}

func TestSnapshotTile_CopiesCorrectRegion(t *testing.T) {
	r := NewRenderer(MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT, TILE_WIDTH, TILE_HEIGHT)
	src := make([]byte, MAC_SCREEN_WIDTH*MAC_SCREEN_HEIGHT)
	for i := range src {
		src[i] = byte(i)
	}

	out := make([]byte, TILE_WIDTH*TILE_HEIGHT)
	tx, ty := 3, 2
	r.SnapshotTile(src, tx, ty, out)

	for row := 0; row < TILE_HEIGHT; row++ {
		for col := 0; col < TILE_WIDTH; col++ {
			want := src[(ty*TILE_HEIGHT+row)*MAC_SCREEN_WIDTH+tx*TILE_WIDTH+col]
			if got := out[row*TILE_WIDTH+col]; got != want {
				t.Fatalf("snapshot (%d,%d): got %02X, want %02X", col, row, got, want)
			}
		}
	}
}

func TestRenderTile_MatchesFullFrameRegion(t *testing.T) {
	const w, h = 80, 40
	const tw, th = 40, 20
	r := NewRenderer(w, h, tw, th)
	pal := grayscalePalette()

	src := make([]byte, w*h)
	for i := range src {
		src[i] = byte(i * 3)
	}

	full := make([]uint16, w*PIXEL_SCALE*h*PIXEL_SCALE)
	r.RenderFrame(src, pal, full)

	snapshot := make([]byte, tw*th)
	block := make([]uint16, tw*PIXEL_SCALE*th*PIXEL_SCALE)
	dw := w * PIXEL_SCALE

	// The compact per-tile render must be byte-identical to the same region
	// of a whole-frame render.
	for ty := 0; ty < h/th; ty++ {
		for tx := 0; tx < w/tw; tx++ {
			r.SnapshotTile(src, tx, ty, snapshot)
			r.RenderTile(snapshot, pal, block)

			for row := 0; row < th*PIXEL_SCALE; row++ {
				for col := 0; col < tw*PIXEL_SCALE; col++ {
					fullPx := full[(ty*th*PIXEL_SCALE+row)*dw+tx*tw*PIXEL_SCALE+col]
					blockPx := block[row*tw*PIXEL_SCALE+col]
					if fullPx != blockPx {
						t.Fatalf("tile (%d,%d) pixel (%d,%d): tile render %04X, frame render %04X",
							tx, ty, col, row, blockPx, fullPx)
					}
				}
			}
		}
	}
}
