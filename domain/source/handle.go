package source

import (
	"image"
	"sync"

	"github.com/google/uuid"
)

// ImageHandle owns the bytes of one acquired image and its decoded, displayable form.
// Views attach release hooks to free resources derived from the handle (Tk photos).
// Release is idempotent; after release Data and Image are nil.
type ImageHandle struct {
	ID        uuid.UUID
	Name      string
	MediaType string
	Data      []byte
	Image     image.Image

	mu       sync.Mutex
	released bool
	hooks    []func()
	onFree   func()
}

// Bounds returns the decoded pixel size, or the zero point once released.
func (h *ImageHandle) Bounds() image.Point {
	if h == nil {
		return image.Point{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Image == nil {
		return image.Point{}
	}
	return h.Image.Bounds().Size()
}

// OnRelease registers fn to run when the handle is released. If the handle is already
// released fn runs immediately.
func (h *ImageHandle) OnRelease(fn func()) {
	if h == nil || fn == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		fn()
		return
	}
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// Released reports whether Release has run.
func (h *ImageHandle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release frees the handle: hooks run in registration order, bytes are dropped.
func (h *ImageHandle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	hooks := h.hooks
	h.hooks = nil
	h.Data = nil
	h.Image = nil
	onFree := h.onFree
	h.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if onFree != nil {
		onFree()
	}
}
