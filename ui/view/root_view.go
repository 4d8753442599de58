package view

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/config"
	"github.com/soocke/detect-view-go/domain/source"
	"github.com/soocke/detect-view-go/ui/overlay"
	"github.com/soocke/detect-view-go/ui/presenter"
	"github.com/soocke/detect-view-go/ui/results"
	"github.com/soocke/detect-view-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions and layout events.
type Handlers struct {
	OnOpen          func()
	OnDetect        func()
	OnCapture       func()
	OnExit          func()
	OnImageShown    func(uuid.UUID, overlay.Extent)
	OnExtentChanged func(uuid.UUID, overlay.Extent)
	OnConfigApplied func(*config.Config)
}

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Preview     ImagePreview
	Results     ResultsList
	ConfigPanel ConfigPanel

	// Widgets
	StateLabel   *TLabelWidget
	MessageLabel *LabelWidget
	ServiceLabel *LabelWidget
	DetectBtn    *ButtonWidget

	lastGeom string
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	SetStateLabel(text string)
	SetMessage(text string)
	SetDetectEnabled(enabled bool)
	SetServiceStatus(text string)
	SetDragging(bool)
	ShowImage(h *source.ImageHandle)
	ShowOverlay(img *image.RGBA)
	SetResults(p results.Panel)
}

var _ UI = (*RootView)(nil)

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	pal := theme.CurrentPalette()

	// Row 0: toolbar
	bar := Frame()
	Grid(bar, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	openBtn := TButton(Txt("Open Image"), Style(theme.StylePrimaryButton), Command(h.OnOpen))
	Grid(openBtn, In(bar), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	rv.DetectBtn = Button(Txt("Detect Objects"), Command(h.OnDetect))
	Grid(rv.DetectBtn, In(bar), Row(0), Column(1), Sticky("w"), Padx("0.2m"))
	captureBtn := Button(Txt("Capture Screen"), Command(h.OnCapture))
	Grid(captureBtn, In(bar), Row(0), Column(2), Sticky("w"), Padx("0.2m"))
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, In(bar), Row(0), Column(3), Sticky("we"), Padx("0.6m"))
	rv.ServiceLabel = Label(Txt(presenter.StatusUnknown), Foreground(pal.TextMuted))
	Grid(rv.ServiceLabel, In(bar), Row(0), Column(4), Sticky("e"), Padx("0.6m"))
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(h.OnExit))
	Grid(exitBtn, In(bar), Row(0), Column(5), Sticky("e"), Padx("0.2m"))
	GridColumnConfigure(bar.Window, 3, Weight(1))

	// Row 1: inline error message
	rv.MessageLabel = Label(Txt(""), Foreground(pal.Danger), Anchor("w"))
	Grid(rv.MessageLabel, Row(1), Column(0), Columnspan(2), Sticky("we"), Padx("0.6m"))

	// Row 2: preview (left) and side panel (right)
	left := Frame()
	Grid(left, Row(2), Column(0), Sticky("nsew"))
	maxW, maxH := 800, 600
	if rv.cfg != nil {
		maxW, maxH = previewBounds(rv.cfg.WindowW, rv.cfg.WindowH, rv.cfg.MaxPreviewW, rv.cfg.MaxPreviewH)
	}
	rv.Preview = NewImagePreview(left, maxW, maxH, h.OnOpen, h.OnImageShown, h.OnExtentChanged)

	right := Frame()
	Grid(right, Row(2), Column(1), Sticky("nsew"))
	rv.Results = NewResultsList(right, 0, 0)
	cfgFrame := Frame(Borderwidth(1), Relief("groove"))
	Grid(cfgFrame, In(right), Row(1), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, func(c *config.Config) {
		rv.lastGeom = ""
		rv.applyPreviewBounds()
		if h.OnConfigApplied != nil {
			h.OnConfigApplied(c)
		}
	})
	rv.ConfigPanel.Build(cfgFrame, 0)

	GridRowConfigure(App, 2, Weight(1))
	GridColumnConfigure(App, 0, Weight(1))

	// Resizing the window re-lays out the preview.
	Bind(App, "<Configure>", Command(rv.applyPreviewBounds))
}

// applyPreviewBounds derives the preview size from the current window geometry.
func (rv *RootView) applyPreviewBounds() {
	if rv == nil || rv.Preview == nil || rv.cfg == nil {
		return
	}
	geom := WmGeometry(App)
	if geom == rv.lastGeom && rv.lastGeom != "" {
		return
	}
	rect, ok := parseGeometry(geom)
	if !ok {
		return
	}
	rv.lastGeom = geom
	rv.Preview.SetBounds(previewBounds(rect.Dx(), rect.Dy(), rv.cfg.MaxPreviewW, rv.cfg.MaxPreviewH))
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// SetMessage shows an inline error message; empty hides it.
func (rv *RootView) SetMessage(text string) {
	if rv != nil && rv.MessageLabel != nil {
		rv.MessageLabel.Configure(Txt(text))
	}
}

// SetDetectEnabled toggles the detect button; disabled means a call is in flight.
// The config form is locked for the duration of the call.
func (rv *RootView) SetDetectEnabled(enabled bool) {
	if rv == nil || rv.DetectBtn == nil {
		return
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
	if enabled {
		rv.DetectBtn.Configure(State("normal"), Txt("Detect Objects"))
		return
	}
	rv.DetectBtn.Configure(State("disabled"), Txt("Detecting..."))
}

// SetServiceStatus shows the last health probe result.
func (rv *RootView) SetServiceStatus(text string) {
	if rv != nil && rv.ServiceLabel != nil {
		rv.ServiceLabel.Configure(Txt(text))
	}
}

// SetDragging proxies to the preview drop zone.
func (rv *RootView) SetDragging(b bool) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.SetDragging(b)
	}
}

// ShowImage proxies to the preview.
func (rv *RootView) ShowImage(h *source.ImageHandle) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.ShowImage(h)
	}
}

// ShowOverlay proxies to the preview.
func (rv *RootView) ShowOverlay(img *image.RGBA) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.ShowOverlay(img)
	}
}

// SetResults proxies to the results list.
func (rv *RootView) SetResults(p results.Panel) {
	if rv != nil && rv.Results != nil {
		rv.Results.SetResults(p)
	}
}

// PickFile opens the file dialog and returns the chosen path, or "" when cancelled.
func PickFile() string {
	files := GetOpenFile(Title("Select an image"), Filetypes([]FileType{
		{TypeName: "Images", Extensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}},
		{TypeName: "All files", Extensions: []string{"*"}},
	}))
	if len(files) == 0 {
		return ""
	}
	return files[0]
}

// WindowGeometry formats a startup geometry string.
func WindowGeometry(w, h int) string { return fmt.Sprintf("%dx%d+100+100", w, h) }
