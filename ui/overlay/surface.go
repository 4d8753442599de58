package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RGBASurface implements Surface on a transparent *image.RGBA.
// The backing image is reused while the size does not change.
type RGBASurface struct {
	img  *image.RGBA
	face font.Face
}

// NewRGBASurface returns an empty surface using the basic 7x13 face.
func NewRGBASurface() *RGBASurface {
	return &RGBASurface{img: image.NewRGBA(image.Rectangle{}), face: basicfont.Face7x13}
}

// Image returns the backing image. It is overwritten by the next Render.
func (s *RGBASurface) Image() *image.RGBA { return s.img }

func (s *RGBASurface) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if s.img != nil && s.img.Bounds().Dx() == w && s.img.Bounds().Dy() == h {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (s *RGBASurface) Clear() {
	if s.img == nil {
		return
	}
	clear(s.img.Pix)
}

func (s *RGBASurface) StrokeRect(r Rect, c color.RGBA, width float64) {
	if width <= 0 {
		return
	}
	half := width / 2
	// the stroke is centred on the rectangle outline
	s.FillRect(Rect{X: r.X - half, Y: r.Y - half, W: r.W + width, H: width}, c)
	s.FillRect(Rect{X: r.X - half, Y: r.Y + r.H - half, W: r.W + width, H: width}, c)
	if inner := r.H - width; inner > 0 {
		s.FillRect(Rect{X: r.X - half, Y: r.Y + half, W: width, H: inner}, c)
		s.FillRect(Rect{X: r.X + r.W - half, Y: r.Y + half, W: width, H: inner}, c)
	}
}

func (s *RGBASurface) FillRect(r Rect, c color.RGBA) {
	if s.img == nil {
		return
	}
	x0, y0 := int(math.Round(r.X)), int(math.Round(r.Y))
	x1, y1 := int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H))
	rect := image.Rect(x0, y0, x1, y1).Intersect(s.img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(s.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

func (s *RGBASurface) MeasureText(str string) float64 {
	return float64(font.MeasureString(s.face, str).Ceil())
}

func (s *RGBASurface) DrawText(str string, x, y float64, c color.RGBA) {
	if s.img == nil {
		return
	}
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(str)
}
