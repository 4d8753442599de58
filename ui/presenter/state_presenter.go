package presenter

import (
	"github.com/soocke/detect-view-go/domain/session"
)

// StateView shows the session state, the visible message and the detect button state.
type StateView interface {
	SetStateLabel(string)
	SetMessage(string)
	SetDetectEnabled(bool)
}

// StatePresenter receives session changes and updates the view on the next Tick.
type StatePresenter struct {
	view     StateView
	latest   session.Snapshot // last reflected snapshot
	pending  []session.Snapshot
	rendered bool
}

func NewStatePresenter(view StateView) *StatePresenter {
	return &StatePresenter{view: view}
}

// OnState queues a snapshot from the session listener.
//
// Only the latest queued snapshot is reflected on the next Tick.
func (p *StatePresenter) OnState(_ session.State, s session.Snapshot) {
	if p == nil {
		return
	}
	p.pending = append(p.pending, s)
}

// Tick reflects the most recent snapshot and clears the queue.
func (p *StatePresenter) Tick() {
	if p == nil || p.view == nil || len(p.pending) == 0 {
		return
	}
	last := p.pending[len(p.pending)-1]
	p.pending = p.pending[:0]
	if p.rendered && last.Revision == p.latest.Revision {
		return
	}
	first := !p.rendered
	p.rendered = true
	prev := p.latest
	p.latest = last
	if first || last.State != prev.State {
		p.view.SetStateLabel("State: " + last.State.String())
		p.view.SetDetectEnabled(last.State != session.StateDetecting)
	}
	if first || last.Error != prev.Error {
		p.view.SetMessage(last.Error)
	}
}
