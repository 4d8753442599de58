package model

import (
	"sync/atomic"
)

// DragModel tracks whether a drag is hovering over the drop zone. The zero value is
// not dragging and usable.
type DragModel struct{ dragging atomic.Bool }

// Dragging reports whether the drop zone should show its drag highlight.
func (m *DragModel) Dragging() bool {
	if m == nil {
		return false
	}
	return m.dragging.Load()
}

// SetDragging stores the flag and reports whether it changed.
func (m *DragModel) SetDragging(b bool) bool {
	if m == nil {
		return false
	}
	return m.dragging.Swap(b) != b
}
