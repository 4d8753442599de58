// Package app wires the container into the Tk application lifecycle.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/config"
	"github.com/soocke/detect-view-go/debug"
	"github.com/soocke/detect-view-go/ui/overlay"
	"github.com/soocke/detect-view-go/ui/presenter"
	"github.com/soocke/detect-view-go/ui/theme"
	"github.com/soocke/detect-view-go/ui/view"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	tick          = 50 * time.Millisecond
	debugInterval = 5 * time.Second
)

type app struct {
	c       *AppContainer
	logger  *slog.Logger
	afterID string
	paths   []string // positional paths handed to the process, treated as a drop
	stop    context.CancelFunc
	closed  bool
}

// NewApp builds the container and configures the main window.
func NewApp(title string, cfg *config.Config, cfgPath, apiBase string, logger *slog.Logger, paths []string) *app {
	a := &app{logger: logger, paths: paths}
	a.c = BuildContainer(cfg, logger, cfgPath, apiBase)

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, view.WindowGeometry(a.c.Config.WindowW, a.c.Config.WindowH))
	return a
}

// Start builds the UI, starts background work and enters the Tk event loop.
func (a *app) Start() {
	c := a.c
	theme.SetDark(c.Config.DarkMode)
	c.RootView.Build(view.Handlers{
		OnOpen:    func() { c.SourcePresenter.Select(view.PickFile()) },
		OnDetect:  c.DetectionPresenter.Detect,
		OnCapture: c.SourcePresenter.Capture,
		OnExit:    a.exitHandler,
		OnImageShown: func(id uuid.UUID, e overlay.Extent) {
			c.OverlayPresenter.ImageShown(id, e)
		},
		OnExtentChanged: func(id uuid.UUID, e overlay.Extent) {
			c.OverlayPresenter.ExtentChanged(id, e)
		},
		OnConfigApplied: func(cfg *config.Config) {
			c.OverlayPresenter.SetStrokeWidth(float64(cfg.StrokeWidth))
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	if c.Config.Debug {
		debug.StartMemLogger(ctx, debugInterval, a.logger, c.Source.Live)
	}
	c.HealthWatcher.Start()

	c.Loop = presenter.NewLoop(c.DetectionPresenter, c.StatePresenter, c.OverlayPresenter, c.ResultsPresenter, c.HealthWatcher, a.scheduleUpdate)

	if len(a.paths) > 0 {
		c.SourcePresenter.DragEnter()
		c.SourcePresenter.Drop(a.paths)
	}

	// Kick off update loop.
	a.scheduleUpdate()

	App.Wait()
}

func (a *app) update() {
	if a.closed {
		return
	}
	a.c.Loop.Tick()
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}

func (a *app) exitHandler() {
	if a.closed {
		return
	}
	a.closed = true
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.c.HealthWatcher.Stop()
	a.c.DetectionPresenter.Close()
	a.c.Session.Close()
	if a.stop != nil {
		a.stop()
	}
	if a.logger != nil {
		a.logger.Info("shutdown", "live_handles", a.c.Source.Live())
	}
	Destroy(App)
}
