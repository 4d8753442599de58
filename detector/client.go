package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/soocke/detect-view-go/domain/detection"
)

// FallbackMessage is shown when the service gives no usable detail.
const FallbackMessage = "Error processing image"

// Kind classifies a failed call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindService
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned for every failed call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for transport failures
	Message string // user-facing text
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("detect %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("detect %s error (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text to display for err.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && strings.TrimSpace(de.Message) != "" {
		return de.Message
	}
	return FallbackMessage
}

// Health is the service health payload.
type Health struct {
	Status    string `json:"status"`
	ModelPath string `json:"model_path"`
}

// Client calls the remote detection service.
type Client struct {
	http   *resty.Client
	base   string
	logger *slog.Logger
}

// NewClient returns a client for base, the absolute API base without trailing slash.
func NewClient(base string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: hc, base: strings.TrimRight(base, "/"), logger: logger}
}

// Base returns the API base the client was built with.
func (c *Client) Base() string { return c.base }

type wireBox struct {
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
	X2 *float64 `json:"x2"`
	Y2 *float64 `json:"y2"`
}

type wireDetection struct {
	ClassName  string   `json:"class_name"`
	ClassID    int      `json:"class_id"`
	Confidence *float64 `json:"confidence"`
	BBox       *wireBox `json:"bbox"`
}

// wireDims accepts any JSON number; services may send 800.0 for 800.
type wireDims struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type wireResponse struct {
	Detections      *[]wireDetection `json:"detections"`
	ImageDimensions *wireDims        `json:"image_dimensions"`
}

type wireError struct {
	Detail json.RawMessage `json:"detail"`
}

// Detect uploads data as multipart field "file" and returns the parsed result.
func (c *Client) Detect(ctx context.Context, name string, data []byte) (detection.Result, error) {
	if name == "" {
		name = "image"
	}
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(data)).
		Post(c.base + "/detect")
	if err != nil {
		return detection.Result{}, &Error{Kind: KindTransport, Message: FallbackMessage, Err: err}
	}
	if !resp.IsSuccess() {
		msg := serviceDetail(resp.Body())
		if c.logger != nil {
			c.logger.Warn("detect rejected", "status", resp.StatusCode(), "detail", msg)
		}
		return detection.Result{}, &Error{Kind: KindService, Status: resp.StatusCode(), Message: msg}
	}
	res, err := parseResult(resp.Body())
	if err != nil {
		return detection.Result{}, &Error{Kind: KindMalformed, Status: resp.StatusCode(), Message: FallbackMessage, Err: err}
	}
	if c.logger != nil {
		c.logger.Info("detect ok", "detections", len(res.Detections), "width", res.Dimensions.Width, "height", res.Dimensions.Height, "elapsed", time.Since(start))
	}
	return res, nil
}

// Health queries GET {base}/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&h).
		Get(c.base + "/health")
	if err != nil {
		return Health{}, &Error{Kind: KindTransport, Message: FallbackMessage, Err: err}
	}
	if resp.IsError() {
		return Health{}, &Error{Kind: KindService, Status: resp.StatusCode(), Message: serviceDetail(resp.Body())}
	}
	return h, nil
}

// serviceDetail extracts {"detail": "..."} or returns FallbackMessage.
func serviceDetail(body []byte) string {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil || len(we.Detail) == 0 {
		return FallbackMessage
	}
	var s string
	if err := json.Unmarshal(we.Detail, &s); err != nil || strings.TrimSpace(s) == "" {
		return FallbackMessage
	}
	return s
}

func parseResult(body []byte) (detection.Result, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return detection.Result{}, fmt.Errorf("decode response: %w", err)
	}
	if wr.Detections == nil {
		return detection.Result{}, errors.New("response has no detections")
	}
	if wr.ImageDimensions == nil {
		return detection.Result{}, errors.New("response has no image_dimensions")
	}
	w, err := dimension("width", wr.ImageDimensions.Width)
	if err != nil {
		return detection.Result{}, err
	}
	h, err := dimension("height", wr.ImageDimensions.Height)
	if err != nil {
		return detection.Result{}, err
	}
	out := detection.Result{
		Detections: make([]detection.Detection, 0, len(*wr.Detections)),
		Dimensions: detection.ImageDimensions{Width: w, Height: h},
	}
	for i, d := range *wr.Detections {
		if d.BBox == nil || d.BBox.X1 == nil || d.BBox.Y1 == nil || d.BBox.X2 == nil || d.BBox.Y2 == nil {
			return detection.Result{}, fmt.Errorf("detection %d: incomplete bbox", i)
		}
		if d.Confidence == nil {
			return detection.Result{}, fmt.Errorf("detection %d: missing confidence", i)
		}
		out.Detections = append(out.Detections, detection.Detection{
			ClassName:  d.ClassName,
			ClassID:    d.ClassID,
			Confidence: *d.Confidence,
			BBox:       detection.BoundingBox{X1: *d.BBox.X1, Y1: *d.BBox.Y1, X2: *d.BBox.X2, Y2: *d.BBox.Y2},
		})
	}
	return out, nil
}

// dimension rounds a wire size to whole pixels. A missing side is unknown (0).
func dimension(name string, v *float64) (int, error) {
	if v == nil {
		return 0, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v > math.MaxInt32 {
		return 0, fmt.Errorf("image_dimensions.%s out of range: %v", name, *v)
	}
	return int(math.Round(*v)), nil
}
