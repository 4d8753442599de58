package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soocke/detect-view-go/domain/detection"
)

// FixtureBox is expressed as fractions of the uploaded image size.
type FixtureBox struct {
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
	X2 float64 `yaml:"x2"`
	Y2 float64 `yaml:"y2"`
}

type FixtureDetection struct {
	ClassName  string     `yaml:"class_name"`
	ClassID    int        `yaml:"class_id"`
	Confidence float64    `yaml:"confidence"`
	BBox       FixtureBox `yaml:"bbox"`
}

// FixtureError forces a failure for uploads whose file name contains Match.
type FixtureError struct {
	Match  string `yaml:"match"`
	Status int    `yaml:"status"`
	Detail string `yaml:"detail"`
}

// Fixtures is the canned behaviour of the stub service.
type Fixtures struct {
	ModelPath  string             `yaml:"model_path"`
	Status     string             `yaml:"status"`
	Detections []FixtureDetection `yaml:"detections"`
	Errors     []FixtureError     `yaml:"errors"`
}

const defaultFixtures = `
model_path: /models/stub.pt
status: healthy
detections:
  - {class_name: cereal, class_id: 2, confidence: 0.873, bbox: {x1: 0.10, y1: 0.20, x2: 0.30, y2: 0.40}}
  - {class_name: can, class_id: 0, confidence: 0.52, bbox: {x1: 0.55, y1: 0.35, x2: 0.70, y2: 0.80}}
errors:
  - {match: broken, status: 500, detail: model unavailable}
`

// DefaultFixtures returns the built-in fixture set.
func DefaultFixtures() *Fixtures {
	f, err := ParseFixtures([]byte(defaultFixtures))
	if err != nil {
		panic(err)
	}
	return f
}

// LoadFixtures reads a YAML fixture file. An empty path yields the defaults.
func LoadFixtures(path string) (*Fixtures, error) {
	if path == "" {
		return DefaultFixtures(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes and validates a fixture document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if f.Status == "" {
		f.Status = "healthy"
	}
	for i, d := range f.Detections {
		b := d.BBox
		if b.X1 < 0 || b.Y1 < 0 || b.X2 > 1 || b.Y2 > 1 || b.X1 > b.X2 || b.Y1 > b.Y2 {
			return nil, fmt.Errorf("detection %d: bbox must be fractional and ordered", i)
		}
	}
	for i, e := range f.Errors {
		if e.Match == "" {
			return nil, fmt.Errorf("error fixture %d: empty match", i)
		}
		if e.Status < 400 || e.Status > 599 {
			return nil, errors.New("error fixture status must be 4xx or 5xx")
		}
	}
	return &f, nil
}

// ErrorFor returns the forced error for a file name, if any.
func (f *Fixtures) ErrorFor(name string) (FixtureError, bool) {
	for _, e := range f.Errors {
		if strings.Contains(name, e.Match) {
			return e, true
		}
	}
	return FixtureError{}, false
}

// DetectionsFor scales the fixture boxes to dims, rounded to two decimals.
func (f *Fixtures) DetectionsFor(dims detection.ImageDimensions) []detection.Detection {
	out := make([]detection.Detection, 0, len(f.Detections))
	w, h := float64(dims.Width), float64(dims.Height)
	for _, d := range f.Detections {
		out = append(out, detection.Detection{
			ClassName:  d.ClassName,
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
			BBox: detection.BoundingBox{
				X1: round2(d.BBox.X1 * w),
				Y1: round2(d.BBox.Y1 * h),
				X2: round2(d.BBox.X2 * w),
				Y2: round2(d.BBox.Y2 * h),
			},
		})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
