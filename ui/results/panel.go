// Package results projects the session state into the detection list shown next to
// the preview. It holds no state of its own.
package results

import (
	"fmt"
	"math"

	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/domain/session"
	"github.com/soocke/detect-view-go/ui/overlay"
)

// Row is one formatted detection.
type Row struct {
	Index      int
	Class      string
	Confidence string // "87.3%"
	Box        string // "[100, 100] → [300, 200]" in source-image pixels
	Color      string // palette colour as #RRGGBB
}

// Panel is the full list view model.
type Panel struct {
	Visible bool
	Count   int
	Rows    []Row
}

// Title returns the panel heading.
func (p Panel) Title() string { return fmt.Sprintf("Detections (%d)", p.Count) }

// Project builds the panel for s. The panel is only visible in StateDetected.
func Project(s session.Snapshot) Panel {
	if s.State != session.StateDetected {
		return Panel{}
	}
	p := Panel{Visible: true, Count: len(s.Detections)}
	if len(s.Detections) == 0 {
		return p
	}
	p.Rows = make([]Row, 0, len(s.Detections))
	for i, d := range s.Detections {
		p.Rows = append(p.Rows, Row{
			Index:      i,
			Class:      d.ClassName,
			Confidence: FormatConfidence(d.Confidence),
			Box:        FormatBox(d.BBox),
			Color:      overlay.Hex(overlay.ColorAt(i)),
		})
	}
	return p
}

// FormatConfidence renders c in [0,1] as a percentage with one decimal place.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// FormatBox renders the two corners rounded to whole pixels.
func FormatBox(b detection.BoundingBox) string {
	return fmt.Sprintf("[%d, %d] → [%d, %d]", round(b.X1), round(b.Y1), round(b.X2), round(b.Y2))
}

func round(v float64) int { return int(math.Round(v)) }
