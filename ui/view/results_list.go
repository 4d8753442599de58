package view

import (
	"fmt"

	"github.com/soocke/detect-view-go/ui/results"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// ResultsList shows the detection count and one row per detection.
type ResultsList interface {
	SetResults(p results.Panel)
}

type resultsList struct {
	frame *FrameWidget
	title *LabelWidget
	rows  []*LabelWidget
}

// NewResultsList creates the list inside parent at (row, col).
func NewResultsList(parent *FrameWidget, row, col int) ResultsList {
	l := &resultsList{frame: Frame(Borderwidth(1), Relief("groove"))}
	Grid(l.frame, In(parent), Row(row), Column(col), Sticky("nsew"), Padx("0.4m"), Pady("0.4m"))
	l.title = Label(Txt(""), Anchor("w"), Width(36))
	Grid(l.title, In(l.frame), Row(0), Column(0), Columnspan(3), Sticky("we"), Padx("0.2m"))
	return l
}

// SetResults rebuilds the rows. A hidden panel clears the list.
func (l *resultsList) SetResults(p results.Panel) {
	if l == nil || l.frame == nil {
		return
	}
	for _, w := range l.rows {
		Destroy(w)
	}
	l.rows = l.rows[:0]
	if !p.Visible {
		l.title.Configure(Txt(""))
		return
	}
	l.title.Configure(Txt(p.Title()))
	for i, r := range p.Rows {
		swatch := Label(Txt("  "), Background(r.Color), Borderwidth(1), Relief("solid"))
		name := Label(Txt(fmt.Sprintf("%d. %s  %s", r.Index+1, r.Class, r.Confidence)), Anchor("w"))
		box := Label(Txt(r.Box), Anchor("w"))
		Grid(swatch, In(l.frame), Row(i+1), Column(0), Sticky("w"), Padx("0.2m"), Pady("0.1m"))
		Grid(name, In(l.frame), Row(i+1), Column(1), Sticky("w"), Padx("0.2m"))
		Grid(box, In(l.frame), Row(i+1), Column(2), Sticky("w"), Padx("0.2m"))
		l.rows = append(l.rows, swatch, name, box)
	}
}
