package presenter

import (
	"errors"
	"log/slog"

	"github.com/soocke/detect-view-go/domain/source"
)

// ImageAcquirer validates candidates and produces handles.
type ImageAcquirer interface {
	Acquire(c *source.Candidate) (*source.ImageHandle, error)
}

// ImageInstaller is the part of the session that takes new images and local errors.
type ImageInstaller interface {
	Acquire(h *source.ImageHandle)
	Reject(msg string)
}

// DragModel stores the drop-zone highlight flag.
type DragModel interface {
	Dragging() bool
	SetDragging(bool) bool
}

// ScreenGrabber captures the screen as an image candidate.
type ScreenGrabber interface {
	Grab() (*source.Candidate, error)
}

// DropZoneView reflects the drag highlight.
type DropZoneView interface {
	SetDragging(bool)
}

// SourcePresenter routes file selection, drops and screen captures through a single
// acquire path.
type SourcePresenter struct {
	source  ImageAcquirer
	session ImageInstaller
	drag    DragModel
	grabber ScreenGrabber
	view    DropZoneView
	logger  *slog.Logger

	// ReadFile loads a path into a candidate. Defaults to source.CandidateFromPath.
	ReadFile func(path string) (*source.Candidate, error)
}

func NewSourcePresenter(src ImageAcquirer, sess ImageInstaller, drag DragModel, grabber ScreenGrabber, view DropZoneView, logger *slog.Logger) *SourcePresenter {
	return &SourcePresenter{source: src, session: sess, drag: drag, grabber: grabber, view: view, logger: logger, ReadFile: source.CandidateFromPath}
}

// Select handles a path chosen in the file dialog. An empty path means the dialog was cancelled.
func (p *SourcePresenter) Select(path string) {
	if p == nil || path == "" {
		return
	}
	p.acquirePath(path)
}

// DragEnter shows the drop highlight.
func (p *SourcePresenter) DragEnter() { p.setDragging(true) }

// DragOver keeps the highlight on while a drag moves over the drop zone.
func (p *SourcePresenter) DragOver() { p.setDragging(true) }

// DragLeave hides the drop highlight.
func (p *SourcePresenter) DragLeave() { p.setDragging(false) }

// Drop hides the highlight and acquires the first dropped path.
func (p *SourcePresenter) Drop(paths []string) {
	if p == nil {
		return
	}
	p.setDragging(false)
	if len(paths) == 0 {
		return
	}
	if len(paths) > 1 && p.logger != nil {
		p.logger.Info("multiple files dropped, using the first", "count", len(paths))
	}
	p.acquirePath(paths[0])
}

// Capture grabs the screen and acquires it.
func (p *SourcePresenter) Capture() {
	if p == nil || p.grabber == nil {
		return
	}
	c, err := p.grabber.Grab()
	if err != nil {
		if p.logger != nil {
			p.logger.Error("screen capture", "error", err)
		}
		return
	}
	p.acquire(c)
}

func (p *SourcePresenter) acquirePath(path string) {
	read := p.ReadFile
	if read == nil {
		read = source.CandidateFromPath
	}
	c, err := read(path)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("read image file", "path", path, "error", err)
		}
		p.reject()
		return
	}
	p.acquire(c)
}

func (p *SourcePresenter) acquire(c *source.Candidate) {
	if p.source == nil || p.session == nil {
		return
	}
	h, err := p.source.Acquire(c)
	if err != nil {
		if p.logger != nil && !errors.Is(err, source.ErrInvalidFileType) {
			p.logger.Error("acquire image", "error", err)
		}
		p.reject()
		return
	}
	p.session.Acquire(h)
}

func (p *SourcePresenter) reject() {
	if p.session != nil {
		p.session.Reject(source.MsgInvalidFileType)
	}
}

func (p *SourcePresenter) setDragging(b bool) {
	if p == nil || p.drag == nil {
		return
	}
	if p.drag.SetDragging(b) && p.view != nil {
		p.view.SetDragging(b)
	}
}
