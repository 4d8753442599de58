package app

import (
	"log/slog"
	"time"

	"github.com/soocke/detect-view-go/capture"
	"github.com/soocke/detect-view-go/config"
	"github.com/soocke/detect-view-go/detector"
	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/domain/source"
	"github.com/soocke/detect-view-go/ui/model"
	"github.com/soocke/detect-view-go/ui/overlay"
	"github.com/soocke/detect-view-go/ui/presenter"
	"github.com/soocke/detect-view-go/ui/view"
)

// healthInterval is how often the service health is re-probed.
const healthInterval = 30 * time.Second

// AppContainer assembles models, services, presenters and the root view.
type AppContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Source   *source.Source
	Session  *session.Machine
	Client   *detector.Client
	Drag     *model.DragModel
	Extent   *model.ExtentModel
	RootView *view.RootView
	UI       view.UI

	// Presenters
	SourcePresenter    *presenter.SourcePresenter
	DetectionPresenter *presenter.DetectionPresenter
	StatePresenter     *presenter.StatePresenter
	OverlayPresenter   *presenter.OverlayPresenter
	ResultsPresenter   *presenter.ResultsPresenter
	HealthWatcher      *presenter.HealthWatcher
	Loop               *presenter.Loop
}

// BuildContainer constructs all components and subscribes presenters to the session.
// No Tk widgets are created here; the root view is built by the app.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath, apiBase string) *AppContainer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Source = source.NewSource(logger)
	c.Session = session.NewMachine(logger)
	c.Client = detector.NewClient(apiBase, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, logger)
	c.Drag = &model.DragModel{}
	c.Extent = model.NewExtentModel()

	// View
	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	c.UI = c.RootView

	// Presenters
	c.SourcePresenter = presenter.NewSourcePresenter(c.Source, c.Session, c.Drag, capture.Screen{}, c.UI, logger)
	c.DetectionPresenter = presenter.NewDetectionPresenter(c.Session, c.Client, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, logger)
	c.StatePresenter = presenter.NewStatePresenter(c.UI)
	c.OverlayPresenter = presenter.NewOverlayPresenter(c.UI, c.Extent, overlay.NewRGBASurface(), float64(cfg.StrokeWidth), logger)
	c.ResultsPresenter = presenter.NewResultsPresenter(c.UI)
	c.HealthWatcher = presenter.NewHealthWatcher(c.Client, c.UI, logger, healthInterval)

	c.Session.AddListener(c.DetectionPresenter.OnSession)
	c.Session.AddListener(c.StatePresenter.OnState)
	c.Session.AddListener(c.OverlayPresenter.OnState)
	c.Session.AddListener(c.ResultsPresenter.OnState)

	// seed the views with the initial state
	initial := c.Session.Snapshot()
	c.StatePresenter.OnState(initial.State, initial)
	c.ResultsPresenter.OnState(initial.State, initial)
	return c
}
