package view

import (
	"image"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/domain/source"
	"github.com/soocke/detect-view-go/ui/images"
	"github.com/soocke/detect-view-go/ui/overlay"
	"github.com/soocke/detect-view-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ImagePreview is the drop zone and image display. It scales the current image to
// fit its bounds, composites the detection overlay on top and reports the rendered
// extent once the scaled image is displayed.
type ImagePreview interface {
	ShowImage(h *source.ImageHandle)
	ShowOverlay(img *image.RGBA)
	SetDragging(bool)
	SetBounds(maxW, maxH int)
}

type imagePreview struct {
	label   *LabelWidget
	photo   *Img // last Tk photo image instance
	maxW    int
	maxH    int
	current uuid.UUID
	source  image.Image // decoded image of the current handle
	base    image.Image // scaled image currently displayed
	extent  overlay.Extent

	onShown   func(uuid.UUID, overlay.Extent)
	onResized func(uuid.UUID, overlay.Extent)
}

const (
	placeholderW = 320
	placeholderH = 200
	dropHint     = "Drop an image here or click to browse"
)

// NewImagePreview creates the preview label, grids it and returns the view.
// onBrowse runs when the empty drop zone is clicked.
func NewImagePreview(parent *FrameWidget, maxW, maxH int, onBrowse func(), onShown, onResized func(uuid.UUID, overlay.Extent)) ImagePreview {
	v := &imagePreview{onShown: onShown, onResized: onResized}
	v.setBounds(maxW, maxH)
	v.photo = NewPhoto(Data(images.EncodePNG(image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH)))))
	v.label = Label(Image(v.photo), Txt(dropHint), Compound("center"), Borderwidth(2), Relief("groove"), Anchor("center"))
	Grid(v.label, In(parent), Row(0), Column(0), Sticky("nsew"), Padx("0.4m"), Pady("0.4m"))
	if onBrowse != nil {
		Bind(v.label, "<Button-1>", Command(onBrowse))
	}
	return v
}

func (v *imagePreview) ShowImage(h *source.ImageHandle) {
	if v.label == nil {
		return
	}
	if h == nil || h.Image == nil {
		v.current, v.source, v.base, v.extent = uuid.Nil, nil, nil, overlay.Extent{}
		v.setPhoto(images.EncodePNG(image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH))))
		v.label.Configure(Txt(dropHint))
		return
	}
	v.current = h.ID
	v.source = h.Image
	id := h.ID
	h.OnRelease(func() { v.release(id) })
	v.label.Configure(Txt(""))
	v.layout(v.onShown)
}

// ShowOverlay composites img over the displayed image. Overlays of another size are
// ignored; a redraw for the current extent follows.
func (v *imagePreview) ShowOverlay(img *image.RGBA) {
	if v.label == nil || v.base == nil || img == nil {
		return
	}
	if img.Bounds().Dx() != v.extent.Width || img.Bounds().Dy() != v.extent.Height {
		return
	}
	v.setPhoto(images.EncodePNG(images.Composite(v.base, img)))
}

func (v *imagePreview) SetDragging(b bool) {
	if v.label == nil {
		return
	}
	if b {
		v.label.Configure(Relief("solid"), Background(theme.CurrentPalette().Primary))
		return
	}
	v.label.Configure(Relief("groove"), Background(theme.CurrentPalette().Surface))
}

// SetBounds changes the maximum display size and re-lays out the current image.
func (v *imagePreview) SetBounds(maxW, maxH int) {
	if !v.setBounds(maxW, maxH) || v.source == nil {
		return
	}
	v.layout(v.onResized)
}

func (v *imagePreview) setBounds(maxW, maxH int) bool {
	if maxW < 50 {
		maxW = 50
	}
	if maxH < 50 {
		maxH = 50
	}
	if maxW == v.maxW && maxH == v.maxH {
		return false
	}
	v.maxW, v.maxH = maxW, maxH
	return true
}

// layout scales the source image to the bounds, displays it and reports the extent.
func (v *imagePreview) layout(report func(uuid.UUID, overlay.Extent)) {
	b := v.source.Bounds()
	w, h := images.FitSize(b.Dx(), b.Dy(), v.maxW, v.maxH)
	scaled := images.ScaleToFit(v.source, w, h)
	if scaled == nil {
		return
	}
	v.base = scaled
	v.extent = overlay.Extent{Width: w, Height: h}
	v.setPhoto(images.EncodePNG(scaled))
	if report != nil {
		report(v.current, v.extent)
	}
}

// setPhoto replaces the previous photo to avoid retaining obsolete pixel buffers.
func (v *imagePreview) setPhoto(pngBytes []byte) {
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.photo))
}

// release frees the photo of a released handle if it is still displayed.
func (v *imagePreview) release(id uuid.UUID) {
	if v.current != id {
		return
	}
	v.ShowImage(nil)
}
