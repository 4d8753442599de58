package presenter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/detector"
	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/domain/session"
)

// Detector performs the remote detection call.
type Detector interface {
	Detect(ctx context.Context, name string, data []byte) (detection.Result, error)
}

// DetectSession exposes the session operations used around one detect call.
type DetectSession interface {
	BeginDetect() (session.Ticket, error)
	Complete(t session.Ticket, res detection.Result) bool
	Fail(t session.Ticket, msg string) bool
	Snapshot() session.Snapshot
}

type detectionResult struct {
	ticket   session.Ticket
	res      detection.Result
	err      error
	duration time.Duration
}

type inflight struct {
	ticket session.Ticket
	cancel context.CancelFunc
}

// DetectionPresenter dispatches detect calls to worker goroutines and applies their
// outcomes on the UI thread. Outcomes are matched against the session at apply time.
type DetectionPresenter struct {
	Session  DetectSession
	Detector Detector
	Timeout  time.Duration
	logger   *slog.Logger

	resultCh chan detectionResult
	calls    []inflight
}

// NewDetectionPresenter constructs a detection presenter.
func NewDetectionPresenter(sess DetectSession, det Detector, timeout time.Duration, logger *slog.Logger) *DetectionPresenter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DetectionPresenter{
		Session:  sess,
		Detector: det,
		Timeout:  timeout,
		logger:   logger,
		resultCh: make(chan detectionResult, 4),
	}
}

// Detect starts a call for the current image. Without an image the session records
// the message and nothing is sent; while a call is pending the trigger is ignored.
func (p *DetectionPresenter) Detect() {
	if p == nil || p.Session == nil || p.Detector == nil {
		return
	}
	t, err := p.Session.BeginDetect()
	if err != nil {
		if p.logger != nil && !errors.Is(err, session.ErrNoImageSelected) {
			p.logger.Debug("detect ignored", "reason", err)
		}
		return
	}
	snap := p.Session.Snapshot()
	img := snap.Image
	if img == nil || img.ID != t.HandleID {
		p.Session.Fail(t, detector.FallbackMessage)
		return
	}
	name, data := img.Name, img.Data
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	p.calls = append(p.calls, inflight{ticket: t, cancel: cancel})
	if p.logger != nil {
		p.logger.Info("detect dispatched", "image", t.HandleID.String(), "bytes", len(data))
	}
	go func() {
		start := time.Now()
		res, err := p.Detector.Detect(ctx, name, data)
		p.resultCh <- detectionResult{ticket: t, res: res, err: err, duration: time.Since(start)}
	}()
}

// Pending reports whether any call has not been drained yet.
func (p *DetectionPresenter) Pending() bool {
	return p != nil && len(p.calls) > 0
}

// Drain applies every finished call. Call it from the UI thread.
func (p *DetectionPresenter) Drain() {
	if p == nil || p.Session == nil {
		return
	}
	for {
		select {
		case r := <-p.resultCh:
			p.handleResult(r)
		default:
			return
		}
	}
}

// OnSession cancels calls issued for an image that is no longer current.
func (p *DetectionPresenter) OnSession(_ session.State, snap session.Snapshot) {
	if p == nil {
		return
	}
	p.cancelExcept(snap.HandleID())
}

// Close cancels all outstanding calls.
func (p *DetectionPresenter) Close() {
	if p == nil {
		return
	}
	p.cancelExcept(uuid.Nil)
}

func (p *DetectionPresenter) cancelExcept(current uuid.UUID) {
	for _, c := range p.calls {
		if c.ticket.HandleID != current && c.cancel != nil {
			c.cancel()
		}
	}
}

func (p *DetectionPresenter) handleResult(r detectionResult) {
	p.finish(r.ticket)
	if r.err != nil {
		applied := p.Session.Fail(r.ticket, detector.UserMessage(r.err))
		if p.logger != nil && applied {
			p.logger.Error("detection", "image", r.ticket.HandleID.String(), "error", r.err, "duration", r.duration)
		}
		return
	}
	if p.Session.Complete(r.ticket, r.res) && p.logger != nil {
		p.logger.Info("detection applied", "image", r.ticket.HandleID.String(), "detections", len(r.res.Detections), "duration", r.duration)
	}
}

func (p *DetectionPresenter) finish(t session.Ticket) {
	for i, c := range p.calls {
		if c.ticket == t {
			if c.cancel != nil {
				c.cancel()
			}
			p.calls = append(p.calls[:i], p.calls[i+1:]...)
			return
		}
	}
}
