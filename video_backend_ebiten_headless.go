//go:build headless

package main

// Headless builds have no ebiten; requests for the windowed backend get the
// recording backend instead.
func NewEbitenOutput() (DisplayOutput, error) {
	return NewHeadlessOutput()
}
