package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/domain/source"
)

// State enumerates the finite states of one detection session.
type State int

const (
	StateIdle State = iota
	StateImageSelected
	StateDetecting
	StateDetected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateImageSelected:
		return "image selected"
	case StateDetecting:
		return "detecting"
	case StateDetected:
		return "detected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MsgNoImageSelected is shown when detection is triggered without an image.
const MsgNoImageSelected = "Please select an image first"

var (
	// ErrNoImageSelected is returned by BeginDetect when there is nothing to detect.
	ErrNoImageSelected = errors.New("no image selected")
	// ErrDetectInFlight is returned by BeginDetect while a call is pending.
	ErrDetectInFlight = errors.New("detection already in progress")
)

// Ticket identifies one detect call: the image it was issued for and its sequence.
type Ticket struct {
	HandleID uuid.UUID
	seq      uint64
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	State      State
	Image      *source.ImageHandle
	Detections []detection.Detection
	Dimensions detection.ImageDimensions
	Error      string
	// Revision increases on every change, including message-only changes.
	Revision uint64
}

// HandleID returns the current image identity or uuid.Nil.
func (s Snapshot) HandleID() uuid.UUID {
	if s.Image == nil {
		return uuid.Nil
	}
	return s.Image.ID
}

// Listener is called synchronously after every change.
type Listener func(prev State, next Snapshot)
