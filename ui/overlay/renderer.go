// Package overlay maps detections from source-image pixel space onto the rendered
// preview and draws boxes and labels onto a transparent surface.
package overlay

import (
	"fmt"
	"image/color"
	"math"

	"github.com/soocke/detect-view-go/domain/detection"
)

// Label geometry, in rendered pixels.
const (
	labelTextHeight = 20
	labelPadX       = 5
	labelBaseline   = 8
	defaultStroke   = 3
)

// Palette cycles per detection index; the results list uses the same colours.
var Palette = []color.RGBA{
	{0xFF, 0x6B, 0x6B, 0xFF},
	{0x4E, 0xCD, 0xC4, 0xFF},
	{0x45, 0xB7, 0xD1, 0xFF},
	{0xFF, 0xA0, 0x7A, 0xFF},
	{0x98, 0xD8, 0xC8, 0xFF},
	{0xF7, 0xDC, 0x6F, 0xFF},
	{0xBB, 0x8F, 0xCE, 0xFF},
	{0x85, 0xC1, 0xE2, 0xFF},
	{0xF8, 0xB8, 0x8B, 0xFF},
	{0xAA, 0xB7, 0xB8, 0xFF},
}

// LabelColor is the label text colour.
var LabelColor = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}

// ColorAt returns the palette colour for detection index i.
func ColorAt(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Hex formats c as #RRGGBB for Tk.
func Hex(c color.RGBA) string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// Extent is the on-screen size of the displayed image.
type Extent struct {
	Width, Height int
}

// Rect is a float rectangle in surface coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Surface is a drawing target aligned with the displayed image.
type Surface interface {
	// Resize sets the surface size in pixels. Content after Resize is unspecified until Clear.
	Resize(w, h int)
	// Clear makes every pixel transparent.
	Clear()
	StrokeRect(r Rect, c color.RGBA, width float64)
	FillRect(r Rect, c color.RGBA)
	MeasureText(s string) float64
	// DrawText draws s with its baseline starting at (x, y).
	DrawText(s string, x, y float64, c color.RGBA)
}

// Box describes one drawn detection.
type Box struct {
	Index int
	Box   detection.BoundingBox // scaled, surface coordinates
	Label string
	Color color.RGBA
	Tag   Rect // label background
}

// Renderer draws detections. The zero value uses the default stroke width.
type Renderer struct {
	StrokeWidth float64
}

// Scale returns the per-axis factors mapping dims onto extent, and false when
// either side of dims is unknown.
func Scale(dims detection.ImageDimensions, extent Extent) (sx, sy float64, ok bool) {
	if !dims.Known() {
		return 0, 0, false
	}
	return float64(extent.Width) / float64(dims.Width), float64(extent.Height) / float64(dims.Height), true
}

// LabelText returns "{class} {confidence%}" with the percentage rounded to an integer.
func LabelText(d detection.Detection) string {
	return fmt.Sprintf("%s %d%%", d.ClassName, int(math.Round(d.Confidence*100)))
}

// Render resizes s to extent, clears it and draws dets scaled from dims.
// Nothing is drawn when dims or extent are unknown. The drawn boxes are returned.
func (r Renderer) Render(s Surface, dets []detection.Detection, dims detection.ImageDimensions, extent Extent) []Box {
	if s == nil {
		return nil
	}
	w, h := extent.Width, extent.Height
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.Resize(w, h)
	s.Clear()
	if w == 0 || h == 0 || len(dets) == 0 {
		return nil
	}
	sx, sy, ok := Scale(dims, extent)
	if !ok {
		return nil
	}
	stroke := r.StrokeWidth
	if stroke <= 0 {
		stroke = defaultStroke
	}
	out := make([]Box, 0, len(dets))
	for i, d := range dets {
		b := d.BBox.Scale(sx, sy)
		col := ColorAt(i)
		s.StrokeRect(Rect{X: b.X1, Y: b.Y1, W: b.Width(), H: b.Height()}, col, stroke)

		label := LabelText(d)
		tw := s.MeasureText(label)
		tag := Rect{X: b.X1, Y: b.Y1 - labelTextHeight - 4, W: tw + 2*labelPadX, H: labelTextHeight + 4}
		s.FillRect(tag, col)
		s.DrawText(label, b.X1+labelPadX, b.Y1-labelBaseline, LabelColor)

		out = append(out, Box{Index: i, Box: b, Label: label, Color: col, Tag: tag})
	}
	return out
}
