package presenter

import (
	"errors"
	"image"
	"testing"

	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/domain/source"
	"github.com/soocke/detect-view-go/ui/model"
)

type mockDropView struct{ calls []bool }

func (v *mockDropView) SetDragging(b bool) { v.calls = append(v.calls, b) }

type mockGrabber struct {
	c   *source.Candidate
	err error
}

func (g *mockGrabber) Grab() (*source.Candidate, error) { return g.c, g.err }

func newSourceFixture(t *testing.T, files map[string]*source.Candidate) (*source.Source, *session.Machine, *mockDropView, *SourcePresenter) {
	t.Helper()
	src := source.NewSource(nil)
	m := session.NewMachine(nil)
	view := &mockDropView{}
	p := NewSourcePresenter(src, m, &model.DragModel{}, &mockGrabber{err: errors.New("no display")}, view, nil)
	p.ReadFile = func(path string) (*source.Candidate, error) {
		c, ok := files[path]
		if !ok {
			return nil, errors.New("missing")
		}
		return c, nil
	}
	return src, m, view, p
}

func TestSourcePresenter_SelectValidImage(t *testing.T) {
	files := map[string]*source.Candidate{"/tmp/a.png": pngCandidate(t, "a.png", 10, 10)}
	src, m, _, p := newSourceFixture(t, files)
	p.Select("/tmp/a.png")
	s := m.Snapshot()
	if s.State != session.StateImageSelected || s.Image == nil || len(s.Detections) != 0 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if src.Live() != 1 {
		t.Fatalf("expected 1 live handle, got %d", src.Live())
	}
}

func TestSourcePresenter_InvalidKeepsCurrentImage(t *testing.T) {
	files := map[string]*source.Candidate{
		"/tmp/a.png":   pngCandidate(t, "a.png", 10, 10),
		"/tmp/doc.txt": {Name: "doc.txt", MediaType: "text/plain", Data: []byte("hello")},
	}
	src, m, _, p := newSourceFixture(t, files)
	p.Select("/tmp/a.png")
	before := m.Snapshot().HandleID()

	p.Select("/tmp/doc.txt")
	s := m.Snapshot()
	if s.HandleID() != before || s.State != session.StateImageSelected {
		t.Fatalf("invalid file replaced the image: %+v", s)
	}
	if s.Error != source.MsgInvalidFileType {
		t.Fatalf("expected invalid file message, got %q", s.Error)
	}
	if src.Live() != 1 {
		t.Fatalf("rejected candidate allocated a handle")
	}

	// unreadable paths are reported the same way
	p.Select("/tmp/missing.png")
	if m.Snapshot().HandleID() != before {
		t.Fatalf("unreadable file replaced the image")
	}
}

func TestSourcePresenter_SelectCancelled(t *testing.T) {
	_, m, _, p := newSourceFixture(t, nil)
	p.Select("")
	if s := m.Snapshot(); s.State != session.StateIdle || s.Error != "" {
		t.Fatalf("cancelled dialog should change nothing: %+v", s)
	}
}

func TestSourcePresenter_DragAndDrop(t *testing.T) {
	files := map[string]*source.Candidate{"/tmp/a.png": pngCandidate(t, "a.png", 10, 10), "/tmp/b.png": pngCandidate(t, "b.png", 10, 10)}
	_, m, view, p := newSourceFixture(t, files)
	p.DragEnter()
	p.DragEnter()
	if len(view.calls) != 1 || !view.calls[0] {
		t.Fatalf("expected one highlight on, got %v", view.calls)
	}
	p.Drop([]string{"/tmp/b.png", "/tmp/a.png"})
	if len(view.calls) != 2 || view.calls[1] {
		t.Fatalf("drop should clear highlight, got %v", view.calls)
	}
	s := m.Snapshot()
	if s.Image == nil || s.Image.Name != "b.png" {
		t.Fatalf("expected first dropped file, got %+v", s.Image)
	}
	p.DragEnter()
	p.DragLeave()
	if len(view.calls) != 4 || view.calls[3] {
		t.Fatalf("leave should clear highlight, got %v", view.calls)
	}
}

func TestSourcePresenter_DragOver(t *testing.T) {
	_, _, view, p := newSourceFixture(t, nil)
	p.DragOver()
	if len(view.calls) != 1 || !view.calls[0] {
		t.Fatalf("drag over should turn the highlight on, got %v", view.calls)
	}
	p.DragEnter()
	p.DragOver()
	if len(view.calls) != 1 {
		t.Fatalf("repeated drag events should not re-notify, got %v", view.calls)
	}
	p.DragLeave()
	if len(view.calls) != 2 || view.calls[1] {
		t.Fatalf("leave should clear highlight, got %v", view.calls)
	}
}

func TestSourcePresenter_CaptureRoutesThroughAcquire(t *testing.T) {
	src := source.NewSource(nil)
	m := session.NewMachine(nil)
	g := &mockGrabber{c: pngCandidate(t, "screen.png", 64, 32)}
	p := NewSourcePresenter(src, m, nil, g, nil, nil)
	p.Capture()
	s := m.Snapshot()
	if s.Image == nil || s.Image.Bounds() != image.Pt(64, 32) {
		t.Fatalf("capture not installed: %+v", s)
	}

	g.c, g.err = nil, errors.New("no display")
	p.Capture()
	if m.Snapshot().HandleID() != s.HandleID() {
		t.Fatalf("failed capture must not replace the image")
	}
}
