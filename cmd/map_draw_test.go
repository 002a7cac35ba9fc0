package cmd

import (
	"image/color"
	"testing"

	"github.com/mj1618/game-bridge/internal/protocol"
)

func TestRenderElementMapAutoSizesToFit(t *testing.T) {
	elements := []protocol.ElementInfo{
		{Name: "menu.start", Position: protocol.Position{X: 200, Y: 120}},
		{Name: "hud.pause", Position: protocol.Position{X: 360, Y: 40}},
	}

	img := RenderElementMap(elements, 0, 0)

	bounds := img.Bounds()
	if bounds.Dx() != 360+mapMargin {
		t.Errorf("width = %d, want %d", bounds.Dx(), 360+mapMargin)
	}
	if bounds.Dy() != 120+mapMargin {
		t.Errorf("height = %d, want %d", bounds.Dy(), 120+mapMargin)
	}
}

func TestRenderElementMapExplicitSize(t *testing.T) {
	img := RenderElementMap(nil, 640, 480)
	bounds := img.Bounds()
	if bounds.Dx() != 640 || bounds.Dy() != 480 {
		t.Errorf("bounds = %dx%d, want 640x480", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderElementMapDrawsMarker(t *testing.T) {
	elements := []protocol.ElementInfo{{Name: "btn", Position: protocol.Position{X: 100, Y: 100}}}

	img := RenderElementMap(elements, 320, 240)

	// The crosshair center pixel carries the marker color.
	got := img.RGBAAt(100, 100)
	want := color.RGBA{R: 255, G: 80, B: 80, A: 255}
	if got != want {
		t.Errorf("pixel at marker center = %v, want %v", got, want)
	}
}

func TestRenderElementMapSkipsHiddenElements(t *testing.T) {
	elements := []protocol.ElementInfo{{Name: "hidden"}}

	img := RenderElementMap(elements, 320, 240)

	// No marker at the origin for hidden elements, just the background.
	got := img.RGBAAt(0, 0)
	want := color.RGBA{R: 24, G: 24, B: 28, A: 255}
	if got != want {
		t.Errorf("pixel at origin = %v, want background %v", got, want)
	}
}
