package model

import (
	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/ui/overlay"
)

// ExtentModel holds the rendered size of the displayed image together with the
// handle it was measured for. Zero value means nothing is displayed and is usable.
// No synchronization needed: updates occur on the UI thread.
type ExtentModel struct {
	handle   uuid.UUID
	extent   overlay.Extent
	onChange func(uuid.UUID, overlay.Extent)
}

func NewExtentModel() *ExtentModel { return &ExtentModel{} }

// OnChange sets the callback invoked after every effective change.
func (m *ExtentModel) OnChange(fn func(uuid.UUID, overlay.Extent)) {
	if m == nil {
		return
	}
	m.onChange = fn
}

// Set records extent for handle. Unchanged values do not notify.
func (m *ExtentModel) Set(handle uuid.UUID, e overlay.Extent) {
	if m == nil {
		return
	}
	if e.Width < 0 || e.Height < 0 {
		e = overlay.Extent{}
	}
	if handle == m.handle && e == m.extent {
		return
	}
	m.handle = handle
	m.extent = e
	if m.onChange != nil {
		m.onChange(handle, e)
	}
}

// Reset clears the extent (no image displayed).
func (m *ExtentModel) Reset() { m.Set(uuid.Nil, overlay.Extent{}) }

// Extent returns the last extent and the handle it belongs to.
func (m *ExtentModel) Extent() (uuid.UUID, overlay.Extent) {
	if m == nil {
		return uuid.Nil, overlay.Extent{}
	}
	return m.handle, m.extent
}

// ReadyFor reports whether a non-empty extent measured for handle is known.
func (m *ExtentModel) ReadyFor(handle uuid.UUID) bool {
	if m == nil || handle == uuid.Nil {
		return false
	}
	return m.handle == handle && m.extent.Width > 0 && m.extent.Height > 0
}
