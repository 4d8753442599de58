package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIBaseEnv overrides the configured API base when set.
const APIBaseEnv = "DETECTOR_API_URL"

// DefaultAPIBase is the reverse-proxy relative path of the detection API.
const DefaultAPIBase = "/api"

// Config holds runtime configuration for the detection client and the UI.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Detection service
	ServerOrigin          string `json:"server_origin"`
	APIBase               string `json:"api_base"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`

	// Overlay & preview
	StrokeWidth int `json:"stroke_width"`
	MaxPreviewW int `json:"max_preview_w"`
	MaxPreviewH int `json:"max_preview_h"`

	// Window geometry and theme at startup
	WindowW  int  `json:"window_w"`
	WindowH  int  `json:"window_h"`
	DarkMode bool `json:"dark_mode"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                 false,
		ServerOrigin:          "http://localhost:8000",
		APIBase:               DefaultAPIBase,
		RequestTimeoutSeconds: 30,
		StrokeWidth:           3,
		MaxPreviewW:           800,
		MaxPreviewH:           600,
		WindowW:               1180,
		WindowH:               780,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.ServerOrigin = strings.TrimRight(strings.TrimSpace(c.ServerOrigin), "/")
	if c.ServerOrigin == "" {
		c.ServerOrigin = "http://localhost:8000"
	}
	if u, err := url.Parse(c.ServerOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server origin %q", c.ServerOrigin)
	}
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.StrokeWidth < 1 {
		c.StrokeWidth = 1
	}
	if c.StrokeWidth > 12 {
		c.StrokeWidth = 12
	}
	if c.MaxPreviewW < 100 {
		c.MaxPreviewW = 100
	}
	if c.MaxPreviewH < 100 {
		c.MaxPreviewH = 100
	}
	if c.WindowW < 400 {
		c.WindowW = 400
	}
	if c.WindowH < 300 {
		c.WindowH = 300
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// ResolveAPIBase returns the absolute detection API base URL without a trailing slash.
// A .env file in the working directory is loaded first (a missing file is fine, an
// unreadable or malformed one is an error); the
// DETECTOR_API_URL environment variable wins over the configured api_base. A relative
// base is resolved against ServerOrigin. Call once at startup.
func (c *Config) ResolveAPIBase() (string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("load .env: %w", err)
	}
	base := strings.TrimSpace(os.Getenv(APIBaseEnv))
	if base == "" {
		base = c.APIBase
	}
	return resolveBase(c.ServerOrigin, base)
}

func resolveBase(origin, base string) (string, error) {
	if base == "" {
		base = DefaultAPIBase
	}
	ref, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse api base %q: %w", base, err)
	}
	if !ref.IsAbs() {
		if origin == "" {
			return "", errors.New("relative api base requires a server origin")
		}
		o, err := url.Parse(origin)
		if err != nil {
			return "", fmt.Errorf("parse server origin %q: %w", origin, err)
		}
		ref = o.ResolveReference(ref)
	}
	return strings.TrimRight(ref.String(), "/"), nil
}
