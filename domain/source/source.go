package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	// Registered decoders for the image formats accepted by the picker.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MsgInvalidFileType is shown when a candidate is rejected.
const MsgInvalidFileType = "Please upload a valid image file"

// ErrInvalidFileType is returned for candidates that are missing, not declared as
// images, or whose bytes cannot be decoded as an image.
var ErrInvalidFileType = errors.New("invalid file type")

// Candidate is a file offered by the user, from the file dialog, a drop or a capture.
type Candidate struct {
	Name      string
	MediaType string // declared media type, e.g. "image/png"
	Data      []byte
}

// CandidateFromPath reads path and declares its media type from the extension,
// falling back to content sniffing when the extension is unknown.
func CandidateFromPath(path string) (*Candidate, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty path: %w", ErrInvalidFileType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Candidate{Name: filepath.Base(path), MediaType: DeclaredType(path, data), Data: data}, nil
}

// DeclaredType returns the media type a browser would declare for name, or the sniffed
// type of data when the extension is not registered.
func DeclaredType(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(strings.ToLower(ext)); mt != "" {
			if base, _, err := mime.ParseMediaType(mt); err == nil {
				return base
			}
			return mt
		}
	}
	if len(data) == 0 {
		return ""
	}
	return mimetype.Detect(data).String()
}

// Source validates candidates and creates image handles. It counts live handles so
// leaks across many acquisitions are observable.
type Source struct {
	logger *slog.Logger
	live   atomic.Int64
}

// NewSource returns a Source. A nil logger is tolerated.
func NewSource(logger *slog.Logger) *Source {
	return &Source{logger: logger}
}

// Acquire validates c and returns a new handle that the caller owns until it is released.
// Invalid candidates fail with ErrInvalidFileType and allocate nothing.
func (s *Source) Acquire(c *Candidate) (*ImageHandle, error) {
	if c == nil || len(c.Data) == 0 {
		return nil, fmt.Errorf("no file: %w", ErrInvalidFileType)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.MediaType)), "image/") {
		return nil, fmt.Errorf("media type %q: %w", c.MediaType, ErrInvalidFileType)
	}
	img, _, err := image.Decode(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", c.Name, err, ErrInvalidFileType)
	}
	h := &ImageHandle{
		ID:        uuid.New(),
		Name:      c.Name,
		MediaType: c.MediaType,
		Data:      c.Data,
		Image:     img,
	}
	h.onFree = func() {
		n := s.live.Add(-1)
		if s.logger != nil {
			s.logger.Debug("image handle released", "id", h.ID.String(), "live", n)
		}
	}
	n := s.live.Add(1)
	if s.logger != nil {
		b := img.Bounds()
		s.logger.Info("image acquired", "id", h.ID.String(), "name", c.Name, "type", c.MediaType, "width", b.Dx(), "height", b.Dy(), "live", n)
	}
	return h, nil
}

// Live returns the number of handles acquired and not yet released.
func (s *Source) Live() int64 {
	if s == nil {
		return 0
	}
	return s.live.Load()
}
