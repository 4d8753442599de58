package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/detect-view-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	onApplied func(*config.Config)
	applyBtn  *ButtonWidget
	status    *LabelWidget
	widgets   map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg. onApplied receives the saved config.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApplied func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApplied: onApplied, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(24))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("serverOrigin", "Server Origin (next start)", c.ServerOrigin)
	makeRow("apiBase", "API Base (next start)", c.APIBase)
	makeRow("requestTimeoutSeconds", "Request Timeout Seconds", fmt.Sprintf("%d", c.RequestTimeoutSeconds))
	makeRow("strokeWidth", "Box Stroke Width (1-12)", fmt.Sprintf("%d", c.StrokeWidth))
	makeRow("maxPreviewW", "Max Preview Width", fmt.Sprintf("%d", c.MaxPreviewW))
	makeRow("maxPreviewH", "Max Preview Height", fmt.Sprintf("%d", c.MaxPreviewH))
	makeRow("debug", "Debug Logging (true/false)", fmt.Sprintf("%t", c.Debug))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	v.status = Label(Txt(""), Anchor("w"))
	Grid(v.status, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.Join(parts, "")
}

func (v *configPanel) setStatus(s string) {
	if v.status != nil {
		v.status.Configure(Txt(s))
	}
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignInt := func(id string, dst *int) {
		w := v.widgets[id]
		if w == nil {
			return
		}
		if i, ok := parseIntField(strings.TrimSpace(v.text(w))); ok {
			*dst = i
		}
	}
	assignString := func(id string, dst *string) {
		if w := v.widgets[id]; w != nil {
			if val := strings.TrimSpace(v.text(w)); val != "" {
				*dst = val
			}
		}
	}
	assignString("serverOrigin", &cfg.ServerOrigin)
	assignString("apiBase", &cfg.APIBase)
	assignInt("requestTimeoutSeconds", &cfg.RequestTimeoutSeconds)
	assignInt("strokeWidth", &cfg.StrokeWidth)
	assignInt("maxPreviewW", &cfg.MaxPreviewW)
	assignInt("maxPreviewH", &cfg.MaxPreviewH)
	if w := v.widgets["debug"]; w != nil {
		if b, ok := parseBoolLoose(strings.TrimSpace(v.text(w))); ok {
			cfg.Debug = b
		}
	}
	if verr := cfg.Validate(); verr != nil {
		v.setStatus(verr.Error())
		return
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		v.setStatus("Save failed")
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else {
		v.setStatus("Saved")
		if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
	if v.onApplied != nil {
		v.onApplied(v.cfg)
	}
}

// parsing helpers (unexported)
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
