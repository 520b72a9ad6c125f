package main

// displayPusher sequences the four blit operations of the transport. It adds
// no policy of its own; the render loop decides what to push and the pusher
// keeps the begin/window/write/end ordering in one place.
type displayPusher struct {
	output DisplayOutput
}

// PushFull transmits the whole rendered surface as a single rectangle.
func (p *displayPusher) PushFull(surface []uint16, width, height int) {
	p.output.BeginBatch()
	p.output.SetWindow(0, 0, width, height)
	p.output.WritePixels(surface)
	p.output.EndBatch()
}

// Begin opens a batch for a run of per-tile pushes.
func (p *displayPusher) Begin() {
	p.output.BeginBatch()
}

// PushBlock transmits one scaled tile into its destination rectangle. Must
// be called between Begin and End.
func (p *displayPusher) PushBlock(x, y, w, h int, pixels []uint16) {
	p.output.SetWindow(x, y, w, h)
	p.output.WritePixels(pixels)
}

// End closes the batch opened by Begin.
func (p *displayPusher) End() {
	p.output.EndBatch()
}
