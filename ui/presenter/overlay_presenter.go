package presenter

import (
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/domain/source"
	"github.com/soocke/detect-view-go/ui/model"
	"github.com/soocke/detect-view-go/ui/overlay"
)

// PreviewView displays the current image and the overlay drawn on top of it.
// After laying out an image the view reports its rendered size through
// OverlayPresenter.ImageShown.
type PreviewView interface {
	ShowImage(h *source.ImageHandle) // nil clears the preview
	ShowOverlay(img *image.RGBA)
}

// OverlayPresenter redraws the detection overlay whenever the session's detections
// or the rendered extent of the current image change. It never draws before the
// extent of the current image is known.
type OverlayPresenter struct {
	view     PreviewView
	extent   *model.ExtentModel
	renderer overlay.Renderer
	surface  overlay.Surface
	logger   *slog.Logger

	snap    session.Snapshot
	shownID uuid.UUID
	dirty   bool
	boxes   []overlay.Box
}

// NewOverlayPresenter wires the presenter to extent changes.
func NewOverlayPresenter(view PreviewView, extent *model.ExtentModel, surface overlay.Surface, strokeWidth float64, logger *slog.Logger) *OverlayPresenter {
	if extent == nil {
		extent = model.NewExtentModel()
	}
	if surface == nil {
		surface = overlay.NewRGBASurface()
	}
	p := &OverlayPresenter{
		view:     view,
		extent:   extent,
		renderer: overlay.Renderer{StrokeWidth: strokeWidth},
		surface:  surface,
		logger:   logger,
	}
	extent.OnChange(func(uuid.UUID, overlay.Extent) { p.dirty = true })
	return p
}

// OnState records the snapshot; detections or image changes trigger a redraw.
func (p *OverlayPresenter) OnState(_ session.State, s session.Snapshot) {
	if p == nil {
		return
	}
	p.snap = s
	p.dirty = true
}

// ImageShown is the readiness event: the view has displayed handle id at extent e.
func (p *OverlayPresenter) ImageShown(id uuid.UUID, e overlay.Extent) {
	if p == nil {
		return
	}
	if id != p.snap.HandleID() {
		if p.logger != nil {
			p.logger.Debug("ignoring extent for replaced image", "image", id.String())
		}
		return
	}
	p.extent.Set(id, e)
}

// ExtentChanged reports a new rendered size of the displayed image, e.g. after a resize.
func (p *OverlayPresenter) ExtentChanged(id uuid.UUID, e overlay.Extent) { p.ImageShown(id, e) }

// SetStrokeWidth changes the box stroke and schedules a redraw.
func (p *OverlayPresenter) SetStrokeWidth(w float64) {
	if p == nil || p.renderer.StrokeWidth == w {
		return
	}
	p.renderer.StrokeWidth = w
	p.dirty = true
}

// Boxes returns what the last redraw drew.
func (p *OverlayPresenter) Boxes() []overlay.Box {
	if p == nil {
		return nil
	}
	return p.boxes
}

// Tick shows a newly selected image and redraws the overlay when needed.
func (p *OverlayPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	id := p.snap.HandleID()
	if id != p.shownID {
		p.shownID = id
		p.boxes = nil
		if id == uuid.Nil {
			p.extent.Reset()
		}
		p.view.ShowImage(p.snap.Image)
		p.dirty = true
	}
	if !p.dirty || id == uuid.Nil {
		p.dirty = false
		return
	}
	if !p.extent.ReadyFor(id) {
		return
	}
	p.dirty = false
	_, e := p.extent.Extent()
	p.boxes = p.renderer.Render(p.surface, p.snap.Detections, p.snap.Dimensions, e)
	if rs, ok := p.surface.(interface{ Image() *image.RGBA }); ok {
		p.view.ShowOverlay(rs.Image())
	}
}
