package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/game-bridge/internal/protocol"
)

const (
	markerRadius = 6
	mapMargin    = 40
)

// RenderElementMap draws every element's registered position onto a fresh
// canvas. Width and height of 0 auto-size the canvas to fit all elements
// plus a margin. Hidden elements (reported at the origin) are skipped.
func RenderElementMap(elements []protocol.ElementInfo, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		maxX, maxY := 0, 0
		for _, el := range elements {
			if x := int(el.Position.X); x > maxX {
				maxX = x
			}
			if y := int(el.Position.Y); y > maxY {
				maxY = y
			}
		}
		width = maxX + mapMargin
		height = maxY + mapMargin
		if width < 2*mapMargin {
			width = 2 * mapMargin
		}
		if height < 2*mapMargin {
			height = 2 * mapMargin
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{R: 24, G: 24, B: 28, A: 255}), image.Point{}, draw.Src)

	markerColor := color.RGBA{R: 255, G: 80, B: 80, A: 255}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	for _, el := range elements {
		x, y := int(el.Position.X), int(el.Position.Y)
		if x == 0 && y == 0 {
			continue
		}
		drawMarker(rgba, x, y, markerColor)
		label := fmt.Sprintf("%s (%d,%d)", el.Name, x, y)
		drawLabelWithOutline(rgba, label, x, y-markerRadius-8, textColor, outlineColor)
	}

	return rgba
}

// drawMarker draws a crosshair centered at (x, y).
func drawMarker(img *image.RGBA, x, y int, c color.Color) {
	bounds := img.Bounds()
	for d := -markerRadius; d <= markerRadius; d++ {
		if inBounds(bounds, x+d, y) {
			img.Set(x+d, y, c)
		}
		if inBounds(bounds, x, y+d) {
			img.Set(x, y+d, c)
		}
	}
}

func inBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawLabelWithOutline draws text centered at (x, y) with a one-pixel
// outline so it stays readable on any background.
func drawLabelWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 is 7 pixels wide and 13 tall per glyph.
	textWidth := len(text) * 7
	offsetX := x - textWidth/2
	offsetY := y

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(text)
}
