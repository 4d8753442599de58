package detector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soocke/detect-view-go/domain/detection"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", 2*time.Second, nil)
}

func TestDetect_Success(t *testing.T) {
	var gotName string
	var gotBody []byte
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/detect", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"image_dimensions":{"width":1000,"height":500},
			"detections":[{"bbox":{"x1":100,"y1":100,"x2":300,"y2":200},"confidence":0.873,"class_id":2,"class_name":"cereal"}],
			"total_detections":1}`)
	})

	res, err := c.Detect(context.Background(), "shelf.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "shelf.jpg", gotName)
	require.Equal(t, []byte("jpeg-bytes"), gotBody)
	require.Equal(t, detection.ImageDimensions{Width: 1000, Height: 500}, res.Dimensions)
	require.Len(t, res.Detections, 1)
	require.Equal(t, detection.Detection{
		ClassName:  "cereal",
		ClassID:    2,
		Confidence: 0.873,
		BBox:       detection.BoundingBox{X1: 100, Y1: 100, X2: 300, Y2: 200},
	}, res.Detections[0])
}

func TestDetect_EmptyDetections(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"detections":[],"image_dimensions":{"width":800,"height":600}}`)
	})
	res, err := c.Detect(context.Background(), "a.png", []byte("x"))
	require.NoError(t, err)
	require.Empty(t, res.Detections)
	require.Equal(t, 800, res.Dimensions.Width)
}

func TestDetect_ServiceErrorUsesDetail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"model unavailable"}`)
	})
	_, err := c.Detect(context.Background(), "a.png", []byte("x"))
	var de *Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindService, de.Kind)
	require.Equal(t, http.StatusInternalServerError, de.Status)
	require.Equal(t, "model unavailable", UserMessage(err))
}

func TestDetect_ServiceErrorFallback(t *testing.T) {
	bodies := []string{``, `<html>bad gateway</html>`, `{"detail":""}`, `{"detail":[{"msg":"field required"}]}`}
	for _, body := range bodies {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, body)
		})
		_, err := c.Detect(context.Background(), "a.png", []byte("x"))
		require.Error(t, err)
		require.Equal(t, FallbackMessage, UserMessage(err), "body %q", body)
	}
}

func TestDetect_FloatDimensions(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"detections":[{"bbox":{"x1":1,"y1":2,"x2":3,"y2":4},"confidence":0.5,"class_id":1,"class_name":"can"}],
			"image_dimensions":{"width":800.0,"height":599.6}}`)
	})
	res, err := c.Detect(context.Background(), "a.png", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, detection.ImageDimensions{Width: 800, Height: 600}, res.Dimensions)
	require.Len(t, res.Detections, 1)
}

func TestDetect_MalformedResponses(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"image_dimensions":{"width":1,"height":1}}`,
		`{"detections":[]}`,
		`{"detections":[{"class_name":"x","confidence":0.5}],"image_dimensions":{"width":1,"height":1}}`,
		`{"detections":[{"class_name":"x","confidence":0.5,"bbox":{"x1":1,"y1":1,"x2":2}}],"image_dimensions":{"width":1,"height":1}}`,
		`{"detections":[{"class_name":"x","bbox":{"x1":1,"y1":1,"x2":2,"y2":2}}],"image_dimensions":{"width":1,"height":1}}`,
		`{"detections":[],"image_dimensions":{"width":-800,"height":600}}`,
		`{"detections":[],"image_dimensions":{"width":800,"height":1e300}}`,
		`{"detections":[],"image_dimensions":{"width":"800","height":600}}`,
	}
	for _, body := range bodies {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})
		_, err := c.Detect(context.Background(), "a.png", []byte("x"))
		var de *Error
		require.ErrorAs(t, err, &de, "body %q", body)
		require.Equal(t, KindMalformed, de.Kind, "body %q", body)
		require.Equal(t, FallbackMessage, UserMessage(err))
	}
}

func TestDetect_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c := NewClient(base+"/api", time.Second, nil)
	_, err := c.Detect(context.Background(), "a.png", []byte("x"))
	var de *Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindTransport, de.Kind)
	require.Equal(t, FallbackMessage, UserMessage(err))
}

func TestDetect_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Detect(ctx, "a.png", []byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestHealth(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"healthy","model_path":"/app/best.pt"}`)
	})
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, Health{Status: "healthy", ModelPath: "/app/best.pt"}, h)
}

func TestUserMessage_NonDetectorError(t *testing.T) {
	require.Equal(t, FallbackMessage, UserMessage(errors.New("boom")))
}
