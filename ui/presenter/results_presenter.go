package presenter

import (
	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/ui/results"
)

// ResultsView renders the detection list.
type ResultsView interface {
	SetResults(results.Panel)
}

// ResultsPresenter projects session snapshots into the results list.
type ResultsPresenter struct {
	view    ResultsView
	pending *session.Snapshot
	shown   uint64
}

func NewResultsPresenter(view ResultsView) *ResultsPresenter {
	return &ResultsPresenter{view: view}
}

// OnState records the latest snapshot.
func (p *ResultsPresenter) OnState(_ session.State, s session.Snapshot) {
	if p == nil {
		return
	}
	p.pending = &s
}

// Tick pushes the projection of the latest snapshot, once per revision.
func (p *ResultsPresenter) Tick() {
	if p == nil || p.view == nil || p.pending == nil {
		return
	}
	s := *p.pending
	p.pending = nil
	if s.Revision != 0 && s.Revision == p.shown {
		return
	}
	p.shown = s.Revision
	p.view.SetResults(results.Project(s))
}
