package presenter

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/domain/source"
)

func pngCandidate(t *testing.T, name string, w, h int) *source.Candidate {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &source.Candidate{Name: name, MediaType: "image/png", Data: buf.Bytes()}
}

func acquireInto(t *testing.T, src *source.Source, m *session.Machine, name string) *source.ImageHandle {
	t.Helper()
	h, err := src.Acquire(pngCandidate(t, name, 40, 20))
	if err != nil {
		t.Fatalf("acquire %s: %v", name, err)
	}
	m.Acquire(h)
	return h
}

// drainUntilIdle drains detect outcomes until none are pending.
func drainUntilIdle(t *testing.T, p *DetectionPresenter) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Pending() {
		p.Drain()
		if time.Now().After(deadline) {
			t.Fatalf("detect calls still pending")
		}
		time.Sleep(time.Millisecond)
	}
}
