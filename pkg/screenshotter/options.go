package screenshotter

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/root4loot/goutils/urlutil"
)

const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"

	DefaultURL = "http://localhost:3000"
)

var (
	ErrUnknownEngine = errors.New("unknown engine")
	ErrInvalidURL    = errors.New("invalid url")
)

// Options contains the options for capturing a screenshot.
type Options struct {
	URL                     string `yaml:"url"`                  // Page to capture
	Engine                  string `yaml:"engine"`               // Browser driver (chromedp or rod)
	Timeout                 int    `yaml:"timeout"`              // Timeout for the capture (seconds, 0 disables)
	CaptureWidth            int    `yaml:"capture-width"`        // Width of the viewport
	CaptureHeight           int    `yaml:"capture-height"`       // Height of the viewport
	CaptureFull             bool   `yaml:"capture-full"`         // Take a full-page screenshot
	DelayBeforeCapture      int    `yaml:"delay-capture"`        // Delay after network idle (seconds)
	UserAgent               string `yaml:"user-agent,omitempty"` // User agent
	IgnoreCertificateErrors bool   `yaml:"ignore-cert-err"`      // Ignore certificate errors
	BrowserPath             string `yaml:"browser,omitempty"`    // Browser executable
	ImprintURL              bool   `yaml:"imprint-text"`         // Stamp the URL below the image
}

// NewOptions returns an Options struct initialized with default values.
func NewOptions() Options {
	return Options{
		URL:           envOr("SCREENSHOTTER_URL", DefaultURL),
		Engine:        EngineChromedp,
		Timeout:       30,
		CaptureWidth:  1280,
		CaptureHeight: 720,
		CaptureFull:   true,
		BrowserPath:   os.Getenv("CHROME_BIN"),
	}
}

// LoadOptions overlays the YAML file at path onto the defaults.
func LoadOptions(path string) (Options, error) {
	options := NewOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return options, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &options); err != nil {
		return options, fmt.Errorf("parsing config %s: %w", path, err)
	}

	options.URL = EnsureScheme(options.URL)
	return options, options.Validate()
}

// Validate reports the first setting that cannot be used for a capture.
func (o Options) Validate() error {
	if o.URL == "" {
		return errors.New("url must not be empty")
	}

	if !urlutil.IsURL(o.URL) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, o.URL)
	}

	switch o.Engine {
	case EngineChromedp, EngineRod:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, o.Engine)
	}

	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %d", o.Timeout)
	}

	if o.CaptureWidth < 0 || o.CaptureHeight < 0 {
		return fmt.Errorf("invalid viewport %dx%d", o.CaptureWidth, o.CaptureHeight)
	}

	if o.DelayBeforeCapture < 0 {
		return fmt.Errorf("delay must not be negative: %d", o.DelayBeforeCapture)
	}

	return nil
}

// EnsureScheme prefixes http:// to a host[:port] target given without a scheme.
func EnsureScheme(rawURL string) string {
	if rawURL == "" || urlutil.HasScheme(rawURL) || strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "http://" + rawURL
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
