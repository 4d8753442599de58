package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/soocke/detect-view-go/domain/detection"
	"github.com/soocke/detect-view-go/ui/images"
	"github.com/soocke/detect-view-go/ui/overlay"
)

// maxUpload bounds the multipart body.
const maxUpload = 32 << 20

// Options configures the stub service.
type Options struct {
	Fixtures       *Fixtures
	MinConfidence  float64
	AllowedOrigins []string
	Logger         *zap.Logger
}

type server struct {
	opts Options
	log  *zap.Logger
}

// NewRouter returns the gin engine serving the detection API under /api.
func NewRouter(opts Options) *gin.Engine {
	if opts.Fixtures == nil {
		opts.Fixtures = DefaultFixtures()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &server{opts: opts, log: opts.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), cors(opts.AllowedOrigins))
	r.MaxMultipartMemory = maxUpload

	api := r.Group("/api")
	api.GET("/", s.root)
	api.GET("/health", s.health)
	api.POST("/detect", s.detect)
	api.POST("/detect/visualize", s.visualize)
	return r
}

func (s *server) modelLoaded() bool { return s.opts.Fixtures.Status == "healthy" }

func (s *server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Product Detector API",
		"status":       "online",
		"model_loaded": s.modelLoaded(),
	})
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     s.opts.Fixtures.Status,
		"model_path": s.opts.Fixtures.ModelPath,
	})
}

// upload is a decoded multipart "file" field.
type upload struct {
	name string
	img  image.Image
	dims detection.ImageDimensions
}

// readUpload writes the error response itself and returns false on failure.
func (s *server) readUpload(c *gin.Context) (upload, bool) {
	if !s.modelLoaded() {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Model not loaded"})
		return upload{}, false
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file: field required"})
		return upload{}, false
	}
	if fe, ok := s.opts.Fixtures.ErrorFor(fh.Filename); ok {
		s.log.Info("forced error", zap.String("file", fh.Filename), zap.Int("status", fe.Status))
		c.JSON(fe.Status, gin.H{"detail": fe.Detail})
		return upload{}, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Error processing image: " + err.Error()})
		return upload{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Error processing image: " + err.Error()})
		return upload{}, false
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Error processing image: unsupported content %s", mt.String())})
		return upload{}, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Error processing image: " + err.Error()})
		return upload{}, false
	}
	b := img.Bounds()
	return upload{name: fh.Filename, img: img, dims: detection.ImageDimensions{Width: b.Dx(), Height: b.Dy()}}, true
}

func (s *server) detectionsFor(dims detection.ImageDimensions) []detection.Detection {
	all := s.opts.Fixtures.DetectionsFor(dims)
	out := all[:0]
	for _, d := range all {
		if d.Confidence >= s.opts.MinConfidence {
			out = append(out, d)
		}
	}
	return out
}

func (s *server) detect(c *gin.Context) {
	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	dets := s.detectionsFor(up.dims)
	s.log.Debug("detect", zap.String("file", up.name), zap.Int("width", up.dims.Width), zap.Int("height", up.dims.Height), zap.Int("detections", len(dets)))
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"image_dimensions": up.dims,
		"detections":       dets,
		"total_detections": len(dets),
	})
}

// visualize also returns the image with the boxes burned in as a JPEG data URL.
func (s *server) visualize(c *gin.Context) {
	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	dets := s.detectionsFor(up.dims)
	surf := overlay.NewRGBASurface()
	overlay.Renderer{}.Render(surf, dets, up.dims, overlay.Extent{Width: up.dims.Width, Height: up.dims.Height})
	out := images.Composite(up.img, surf.Image())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 95}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Error processing image: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"image_dimensions": up.dims,
		"detections":       dets,
		"total_detections": len(dets),
		"visualized_image": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// cors allows the listed origins, or any origin for an empty list or "*".
func cors(origins []string) gin.HandlerFunc {
	anyOrigin := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (anyOrigin || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "*")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
