package presenter

// Loop aggregates feature presenters and drives periodic updates.
//
// It drains finished detect calls, lets the sub-presenters flush queued session
// changes to their views and invokes a scheduler callback. The zero value is usable
// (methods are nil-safe).
type Loop struct {
	Detect   *DetectionPresenter
	State    *StatePresenter
	Overlay  *OverlayPresenter
	Results  *ResultsPresenter
	Health   *HealthWatcher
	Schedule func()
}

func NewLoop(detect *DetectionPresenter, state *StatePresenter, ov *OverlayPresenter, res *ResultsPresenter, health *HealthWatcher, schedule func()) *Loop {
	return &Loop{Detect: detect, State: state, Overlay: ov, Results: res, Health: health, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	// Apply outcomes first so the views below reflect them in the same tick.
	l.Detect.Drain()
	l.State.Tick()
	l.Overlay.Tick()
	l.Results.Tick()
	l.Health.Tick()
	if l.Schedule != nil {
		l.Schedule()
	}
}
