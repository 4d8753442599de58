package presenter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/detect-view-go/detector"
)

// Service status texts.
const (
	StatusUnknown     = "Service: unknown"
	StatusUnreachable = "Service: unreachable"
)

// HealthProber queries the detection service health endpoint.
type HealthProber interface {
	Health(ctx context.Context) (detector.Health, error)
}

// ServiceStatusView shows the last known service status.
type ServiceStatusView interface {
	SetServiceStatus(string)
}

// HealthWatcher polls the service health in the background and reflects changes in
// the view on Tick. Probes never block the UI thread.
type HealthWatcher struct {
	Prober   HealthProber
	View     ServiceStatusView
	Logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	running  atomic.Bool
	done     chan struct{}

	mu     sync.Mutex
	status string // latest probe result, written by the poll goroutine
	shown  string // last status pushed to the view
}

// NewHealthWatcher constructs a watcher probing every interval.
func NewHealthWatcher(prober HealthProber, view ServiceStatusView, logger *slog.Logger, interval time.Duration) *HealthWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthWatcher{Prober: prober, View: view, Logger: logger, interval: interval, timeout: 5 * time.Second, status: StatusUnknown}
}

// Start probes immediately and then every interval until Stop.
func (w *HealthWatcher) Start() {
	if w == nil || w.Prober == nil || w.running.Load() {
		return
	}
	w.done = make(chan struct{})
	w.running.Store(true)
	go w.loop(w.done)
}

// Stop ends polling. Idempotent.
func (w *HealthWatcher) Stop() {
	if w == nil || !w.running.Load() {
		return
	}
	close(w.done)
	w.running.Store(false)
}

// Status returns the latest probe result, StatusUnknown before the first answer.
func (w *HealthWatcher) Status() string {
	if w == nil {
		return ""
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Tick pushes a changed status to the view. Call it from the UI thread.
func (w *HealthWatcher) Tick() {
	if w == nil || w.View == nil {
		return
	}
	s := w.Status()
	if s == "" || s == w.shown {
		return
	}
	w.shown = s
	w.View.SetServiceStatus(s)
}

func (w *HealthWatcher) loop(done chan struct{}) {
	w.poll()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-done:
			return
		}
	}
}

func (w *HealthWatcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	h, err := w.Prober.Health(ctx)
	status := "Service: " + h.Status
	if err != nil {
		status = StatusUnreachable
	} else if h.Status == "" {
		status = StatusUnknown
	}
	w.mu.Lock()
	changed := status != w.status
	w.status = status
	w.mu.Unlock()
	if !changed || w.Logger == nil {
		return
	}
	if err != nil {
		w.Logger.Warn("detection service health", "error", err)
		return
	}
	w.Logger.Info("detection service health", "status", h.Status, "model", h.ModelPath)
}
