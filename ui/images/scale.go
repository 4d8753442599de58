package images

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// FitSize returns the size w x h scaled to fit within maxW x maxH preserving aspect ratio.
// Images that already fit keep their natural size. Non-positive bounds are treated as 1.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := float64(maxW) / float64(w)
	if r := float64(maxH) / float64(h); r < ratio {
		ratio = r
	}
	newW := int(float64(w)*ratio + 0.5)
	newH := int(float64(h)*ratio + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}

// ScaleToFit resizes src to fit within maxW x maxH preserving aspect ratio.
// If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	return ScaleTo(src, w, h)
}

// ScaleTo resizes src to exactly w x h.
func ScaleTo(src image.Image, w, h int) image.Image {
	if src == nil || w <= 0 || h <= 0 {
		return nil
	}
	return imaging.Resize(src, w, h, imaging.Linear)
}

// Composite draws overlay over base and returns a new image the size of base.
// A nil overlay or one of a different size is drawn anchored at the top-left.
func Composite(base image.Image, overlay image.Image) *image.NRGBA {
	if base == nil {
		return nil
	}
	b := base.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)
	if overlay != nil {
		ob := overlay.Bounds()
		draw.Draw(dst, dst.Bounds(), overlay, ob.Min, draw.Over)
	}
	return dst
}
