package session

import (
	"log/slog"
	"sync"

	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/domain/source"
)

// Machine manages the image/detection cycle. It exclusively owns the current image
// handle and releases it when superseded or on Close.
//
// Listeners run synchronously on the goroutine that caused the change, after the
// internal lock is released; in the app that is always the Tk thread.
type Machine struct {
	mu         sync.Mutex
	logger     *slog.Logger
	state      State
	image      *source.ImageHandle
	detections []detection.Detection
	dims       detection.ImageDimensions
	message    string
	seq        uint64
	pending    uint64
	revision   uint64
	listeners  []Listener
}

// NewMachine returns a machine in StateIdle.
func NewMachine(logger *slog.Logger) *Machine {
	return &Machine{state: StateIdle, logger: logger}
}

// AddListener registers l for all subsequent changes.
func (m *Machine) AddListener(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the full state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      m.state,
		Image:      m.image,
		Dimensions: m.dims,
		Error:      m.message,
		Revision:   m.revision,
	}
	if len(m.detections) > 0 {
		s.Detections = append([]detection.Detection(nil), m.detections...)
	}
	return s
}

// Acquire installs h as the current image, atomically discarding detections, dimensions,
// the error message and any pending call. The previous handle is released afterwards.
func (m *Machine) Acquire(h *source.ImageHandle) {
	if h == nil {
		return
	}
	m.mu.Lock()
	prevImage := m.image
	if prevImage == h {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.image = h
	m.detections = nil
	m.dims = detection.ImageDimensions{}
	m.message = ""
	m.pending = 0
	m.state = StateImageSelected
	m.notifyLocked(prev)
	if prevImage != nil {
		prevImage.Release()
	}
	if m.logger != nil {
		m.logger.Debug("image installed", "id", h.ID.String(), "from", prev.String())
	}
}

// Reject records a locally recovered error (for example an invalid file) without
// changing state, image or detections.
func (m *Machine) Reject(msg string) {
	m.mu.Lock()
	m.message = msg
	m.notifyLocked(m.state)
}

// BeginDetect moves to StateDetecting and returns the ticket the outcome must carry.
// Without an image it records ErrNoImageSelected as the visible message and keeps the state.
// While a call is pending it returns ErrDetectInFlight and changes nothing.
func (m *Machine) BeginDetect() (Ticket, error) {
	m.mu.Lock()
	if m.image == nil {
		m.message = MsgNoImageSelected
		m.notifyLocked(m.state)
		return Ticket{}, ErrNoImageSelected
	}
	if m.state == StateDetecting {
		m.mu.Unlock()
		return Ticket{}, ErrDetectInFlight
	}
	prev := m.state
	m.seq++
	m.pending = m.seq
	t := Ticket{HandleID: m.image.ID, seq: m.seq}
	m.message = ""
	m.detections = nil
	m.state = StateDetecting
	m.notifyLocked(prev)
	return t, nil
}

// Complete installs res if t still belongs to the current image and pending call.
// It reports whether the result was applied; stale results are dropped.
func (m *Machine) Complete(t Ticket, res detection.Result) bool {
	m.mu.Lock()
	if !m.matchesLocked(t) {
		m.mu.Unlock()
		m.logStale(t)
		return false
	}
	prev := m.state
	clone := res.Clone()
	m.detections = clone.Detections
	m.dims = clone.Dimensions
	m.message = ""
	m.pending = 0
	m.state = StateDetected
	m.notifyLocked(prev)
	return true
}

// Fail records msg for t's call and clears detections, if t is still current.
func (m *Machine) Fail(t Ticket, msg string) bool {
	m.mu.Lock()
	if !m.matchesLocked(t) {
		m.mu.Unlock()
		m.logStale(t)
		return false
	}
	prev := m.state
	m.detections = nil
	m.message = msg
	m.pending = 0
	m.state = StateFailed
	m.notifyLocked(prev)
	return true
}

// Close releases the current image and returns to StateIdle.
func (m *Machine) Close() {
	m.mu.Lock()
	img := m.image
	prev := m.state
	m.image = nil
	m.detections = nil
	m.dims = detection.ImageDimensions{}
	m.message = ""
	m.pending = 0
	m.state = StateIdle
	m.notifyLocked(prev)
	if img != nil {
		img.Release()
	}
}

func (m *Machine) matchesLocked(t Ticket) bool {
	return m.state == StateDetecting && m.image != nil && m.image.ID == t.HandleID && m.pending != 0 && m.pending == t.seq
}

func (m *Machine) logStale(t Ticket) {
	if m.logger != nil {
		m.logger.Info("discarding stale detection response", "image", t.HandleID.String(), "seq", t.seq)
	}
}

// notifyLocked bumps the revision, releases the lock and fans out to listeners.
func (m *Machine) notifyLocked(prev State) {
	m.revision++
	snap := m.snapshotLocked()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	if m.logger != nil && prev != snap.State {
		m.logger.Debug("session state transition", "from", prev.String(), "to", snap.State.String())
	}
	for _, l := range listeners {
		l(prev, snap)
	}
}
