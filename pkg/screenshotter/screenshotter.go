package screenshotter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/root4loot/goutils/fileutil"
	"github.com/root4loot/goutils/log"
)

// Engine drives one browser session: launch, observe page errors, navigate,
// wait for network idle, capture and close.
type Engine interface {
	Name() string
	Capture(ctx context.Context, options Options, errs *ErrorLog) (*Result, error)
}

type Screenshotter struct {
	Options Options
	engine  Engine
}

// Result contains the result of a screenshot capture.
type Result struct {
	TargetURL  string
	LandingURL string
	Image      Image
	PageErrors []string
}

type Image []byte

// New creates a Screenshotter using the engine named in options.
func New(options Options) (*Screenshotter, error) {
	options.URL = EnsureScheme(options.URL)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var engine Engine
	switch options.Engine {
	case EngineRod:
		engine = rodEngine{}
	default:
		engine = chromedpEngine{}
	}

	return NewWithEngine(options, engine), nil
}

// NewWithEngine creates a Screenshotter that captures with the given engine.
func NewWithEngine(options Options, engine Engine) *Screenshotter {
	return &Screenshotter{
		Options: options,
		engine:  engine,
	}
}

// Capture runs one browser session against Options.URL. The browser is closed
// before Capture returns. On failure the returned Result still carries the
// page errors observed up to that point.
func (s *Screenshotter) Capture(ctx context.Context) (*Result, error) {
	if s.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.Options.Timeout)*time.Second)
		defer cancel()
	}

	log.Debugf("Attempting capture on %s using %s", s.Options.URL, s.engine.Name())

	errs := &ErrorLog{}
	result, err := s.engine.Capture(ctx, s.Options, errs)
	if result == nil {
		result = &Result{TargetURL: s.Options.URL}
	}
	result.PageErrors = errs.Entries()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%s timed out after %v: %w", s.Options.URL, time.Duration(s.Options.Timeout)*time.Second, err)
		}
		return result, err
	}

	if len(result.Image) == 0 {
		return result, fmt.Errorf("empty screenshot for %s", s.Options.URL)
	}

	if s.Options.ImprintURL {
		imprint := result.LandingURL
		if imprint == "" {
			imprint = result.TargetURL
		}

		imprinted, err := result.Image.AddTextToImage(imprint)
		if err != nil {
			log.Warnf("Error adding text to image, keeping the original: %v", err)
		} else {
			result.Image = imprinted
		}
	}

	return result, nil
}

// LogPath derives the error log path from a screenshot path by replacing a
// trailing ".png" with ".log". Other paths get ".log" appended so the log
// never overwrites the image.
func LogPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, ".png") + ".log"
}

// SaveImage writes the image to path, creating parent directories.
func (result Result) SaveImage(path string) error {
	if len(result.Image) == 0 {
		return errors.New("no image to save")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(result.Image)
	return err
}

// SaveErrorLog writes the observed page errors, one per line, beside the
// screenshot at imagePath, replacing any earlier log. Nothing is written when
// no errors were observed; the returned filename is then empty.
func (result Result) SaveErrorLog(imagePath string) (string, error) {
	if len(result.PageErrors) == 0 {
		return "", nil
	}

	filename := LogPath(imagePath)

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", err
		}
	}

	if err := fileutil.WriteFile(filename, result.PageErrors); err != nil {
		return "", err
	}

	return filename, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
