// Package capture grabs the screen as an image candidate.
package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/vova616/screenshot"

	"github.com/soocke/detect-view-go/domain/source"
)

// Grab returns a screen capture of the current active monitor.
func Grab() (*image.RGBA, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Screen produces PNG candidates from screen captures.
type Screen struct {
	// Capture defaults to Grab.
	Capture func() (*image.RGBA, error)
	Now     func() time.Time
}

// Grab captures the screen and encodes it as a PNG candidate.
func (s Screen) Grab() (*source.Candidate, error) {
	capture := s.Capture
	if capture == nil {
		capture = Grab
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	img, err := capture()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("capture screen: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	name := "screen-" + now().Format("20060102-150405") + ".png"
	return &source.Candidate{Name: name, MediaType: "image/png", Data: buf.Bytes()}, nil
}
