package session

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"testing"

	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/domain/source"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newHandle(t *testing.T, src *source.Source) *source.ImageHandle {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatal(err)
	}
	h, err := src.Acquire(&source.Candidate{Name: "img.png", MediaType: "image/png", Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	return h
}

func sampleResult() detection.Result {
	return detection.Result{
		Detections: []detection.Detection{
			{ClassName: "bottle", Confidence: 0.91, BBox: detection.BoundingBox{X1: 10, Y1: 20, X2: 30, Y2: 40}},
		},
		Dimensions: detection.ImageDimensions{Width: 800, Height: 600},
	}
}

type transitionRecorder struct {
	seq []State
}

func (r *transitionRecorder) listener(prev State, next Snapshot) {
	r.seq = append(r.seq, next.State)
}

func TestMachine_AcquireInstallsImageWithEmptyDetections(t *testing.T) {
	src := source.NewSource(nil)
	m := NewMachine(discardLogger)
	if m.Current() != StateIdle {
		t.Fatalf("expected idle initial state, got %v", m.Current())
	}
	h := newHandle(t, src)
	m.Acquire(h)
	s := m.Snapshot()
	if s.State != StateImageSelected || s.Image != h || len(s.Detections) != 0 || s.Error != "" {
		t.Fatalf("unexpected snapshot after acquire: %+v", s)
	}
}

func TestMachine_FullCycle(t *testing.T) {
	src := source.NewSource(nil)
	m := NewMachine(discardLogger)
	r := &transitionRecorder{}
	m.AddListener(r.listener)
	m.Acquire(newHandle(t, src))
	tk, err := m.BeginDetect()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !m.Complete(tk, sampleResult()) {
		t.Fatalf("expected result applied")
	}
	s := m.Snapshot()
	if s.State != StateDetected || len(s.Detections) != 1 || s.Dimensions.Width != 800 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	want := []State{StateImageSelected, StateDetecting, StateDetected}
	if len(r.seq) != len(want) {
		t.Fatalf("unexpected transitions %v", r.seq)
	}
	for i := range want {
		if r.seq[i] != want[i] {
			t.Fatalf("transition %d: got %v want %v", i, r.seq[i], want[i])
		}
	}
}

func TestMachine_DetectWithoutImage(t *testing.T) {
	m := NewMachine(discardLogger)
	_, err := m.BeginDetect()
	if !errors.Is(err, ErrNoImageSelected) {
		t.Fatalf("expected ErrNoImageSelected, got %v", err)
	}
	s := m.Snapshot()
	if s.State != StateIdle || s.Error != MsgNoImageSelected {
		t.Fatalf("expected idle with message, got %+v", s)
	}
}

func TestMachine_RejectsReentrantDetect(t *testing.T) {
	m := NewMachine(discardLogger)
	m.Acquire(newHandle(t, source.NewSource(nil)))
	if _, err := m.BeginDetect(); err != nil {
		t.Fatal(err)
	}
	rev := m.Snapshot().Revision
	if _, err := m.BeginDetect(); !errors.Is(err, ErrDetectInFlight) {
		t.Fatalf("expected ErrDetectInFlight, got %v", err)
	}
	if s := m.Snapshot(); s.State != StateDetecting || s.Revision != rev {
		t.Fatalf("re-entrant trigger changed state: %+v", s)
	}
}

func TestMachine_FailureClearsDetectionsAndAllowsRetry(t *testing.T) {
	m := NewMachine(discardLogger)
	m.Acquire(newHandle(t, source.NewSource(nil)))
	tk, _ := m.BeginDetect()
	m.Complete(tk, sampleResult())
	tk, err := m.BeginDetect()
	if err != nil {
		t.Fatalf("re-detect from detected: %v", err)
	}
	if !m.Fail(tk, "model unavailable") {
		t.Fatalf("expected failure applied")
	}
	s := m.Snapshot()
	if s.State != StateFailed || len(s.Detections) != 0 || s.Error != "model unavailable" {
		t.Fatalf("unexpected failed snapshot %+v", s)
	}
	if _, err := m.BeginDetect(); err != nil {
		t.Fatalf("retry from failed: %v", err)
	}
	if m.Current() != StateDetecting {
		t.Fatalf("expected detecting after retry")
	}
}

func TestMachine_StaleResponseDiscarded(t *testing.T) {
	src := source.NewSource(nil)
	m := NewMachine(discardLogger)
	a := newHandle(t, src)
	m.Acquire(a)
	tkA, _ := m.BeginDetect()

	b := newHandle(t, src)
	m.Acquire(b)
	if !a.Released() {
		t.Fatalf("superseded image must be released")
	}
	if m.Complete(tkA, sampleResult()) {
		t.Fatalf("stale result must not be applied")
	}
	s := m.Snapshot()
	if s.State != StateImageSelected || s.Image != b || len(s.Detections) != 0 || s.Dimensions.Known() {
		t.Fatalf("state polluted by stale response: %+v", s)
	}

	// a stale response also must not complete a newer call for the new image
	tkB, _ := m.BeginDetect()
	if m.Fail(tkA, "late failure") {
		t.Fatalf("stale failure must not be applied")
	}
	if !m.Complete(tkB, sampleResult()) {
		t.Fatalf("current result must be applied")
	}
}

func TestMachine_OlderTicketSameImageDiscarded(t *testing.T) {
	m := NewMachine(discardLogger)
	m.Acquire(newHandle(t, source.NewSource(nil)))
	first, _ := m.BeginDetect()
	m.Fail(first, "boom")
	second, _ := m.BeginDetect()
	if m.Complete(first, sampleResult()) {
		t.Fatalf("result for an earlier call must be ignored")
	}
	if !m.Complete(second, sampleResult()) {
		t.Fatalf("expected second call applied")
	}
}

func TestMachine_RejectKeepsState(t *testing.T) {
	m := NewMachine(discardLogger)
	h := newHandle(t, source.NewSource(nil))
	m.Acquire(h)
	tk, _ := m.BeginDetect()
	m.Complete(tk, sampleResult())
	m.Reject(source.MsgInvalidFileType)
	s := m.Snapshot()
	if s.State != StateDetected || s.Image != h || len(s.Detections) != 1 || s.Error != source.MsgInvalidFileType {
		t.Fatalf("reject must only set the message: %+v", s)
	}
	if h.Released() {
		t.Fatalf("reject must not release the current image")
	}
}

func TestMachine_EmptyResult(t *testing.T) {
	m := NewMachine(discardLogger)
	m.Acquire(newHandle(t, source.NewSource(nil)))
	tk, _ := m.BeginDetect()
	m.Complete(tk, detection.Result{Detections: []detection.Detection{}, Dimensions: detection.ImageDimensions{Width: 800, Height: 600}})
	s := m.Snapshot()
	if s.State != StateDetected || len(s.Detections) != 0 || s.Dimensions != (detection.ImageDimensions{Width: 800, Height: 600}) {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestMachine_SnapshotDoesNotAlias(t *testing.T) {
	m := NewMachine(discardLogger)
	m.Acquire(newHandle(t, source.NewSource(nil)))
	tk, _ := m.BeginDetect()
	res := sampleResult()
	m.Complete(tk, res)
	res.Detections[0].ClassName = "mutated"
	s := m.Snapshot()
	s.Detections[0].ClassName = "mutated too"
	if got := m.Snapshot().Detections[0].ClassName; got != "bottle" {
		t.Fatalf("machine state aliased caller memory: %q", got)
	}
}

func TestMachine_CloseReleasesHandle(t *testing.T) {
	src := source.NewSource(nil)
	m := NewMachine(discardLogger)
	for i := 0; i < 5; i++ {
		m.Acquire(newHandle(t, src))
	}
	if src.Live() != 1 {
		t.Fatalf("expected exactly one live handle, got %d", src.Live())
	}
	m.Close()
	if src.Live() != 0 || m.Current() != StateIdle {
		t.Fatalf("close must release and reset: live=%d state=%v", src.Live(), m.Current())
	}
}
