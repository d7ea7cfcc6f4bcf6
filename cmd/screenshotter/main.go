package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/root4loot/goutils/log"
	"github.com/root4loot/screenshotter/pkg/screenshotter"
)

const (
	version = "0.1.0"
	usage   = `USAGE:
  screenshotter [options] <output.png>

  Captures a full-page screenshot of a local web server. Console errors and
  uncaught exceptions are written to <output>.log when the page reports any.

CONFIGURATIONS:
  -u,   --url                    page to capture                                         (Default: http://localhost:3000)
  -e,   --engine                 browser driver (chromedp, rod)                          (Default: chromedp)
  -to,  --timeout                capture timeout, 0 disables                             (Default: 30 seconds)
  -cw,  --capture-width          viewport width                                          (Default: 1280)
  -ch,  --capture-height         viewport height                                         (Default: 720)
  -nf,  --no-full                capture the viewport only                               (Default: false)
  -dc,  --delay-capture          delay after network idle (seconds)                      (Default: 0)
  -ua,  --user-agent             specify user agent                                      (Default: browser UA)
  -ice, --ignore-cert-err        ignore certificate errors                               (Default: false)
  -b,   --browser                browser executable                                      (Default: $CHROME_BIN or auto)
        --config                 YAML file with the options above; flags take precedence

OUTPUT:
  -it,  --imprint-text           add the captured URL below the image                    (Default: false)
        --debug                  enable debug mode
        --version                display version
`
)

var ErrMissingOutput = errors.New("missing output path")

type cli struct {
	Options    screenshotter.Options
	OutputPath string
	ConfigFile string
	Debug      bool
	Version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code. Capture failures are logged but still
// exit 0; only usage and configuration errors exit 1.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stdout, usage)
		return 0
	case errors.Is(err, ErrMissingOutput):
		fmt.Fprint(stderr, "Missing output path\n\n")
		fmt.Fprint(stderr, usage)
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "%v\n\n", err)
		fmt.Fprint(stderr, usage)
		return 1
	}

	if cli.Version {
		fmt.Fprintln(stdout, "screenshotter", version)
		return 0
	}

	screenshotter.SetDebug(cli.Debug)

	s, err := screenshotter.New(cli.Options)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid options: %v\n", err)
		return 1
	}

	cli.capture(ctx, s)
	return 0
}

// parseArgs parses flags and the single positional output path. Flags may
// appear before or after the path.
func parseArgs(args []string, stderr io.Writer) (*cli, error) {
	c, err := parseFlags(args, screenshotter.NewOptions(), stderr)
	if err != nil {
		return nil, err
	}

	if c.ConfigFile != "" {
		fileOptions, err := screenshotter.LoadOptions(c.ConfigFile)
		if err != nil {
			return nil, err
		}

		// Reparse with the file as defaults so explicit flags win.
		if c, err = parseFlags(args, fileOptions, stderr); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func parseFlags(args []string, defaults screenshotter.Options, stderr io.Writer) (*cli, error) {
	c := &cli{Options: defaults}
	var noFull bool

	fs := flag.NewFlagSet("screenshotter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}

	// CONFIGURATIONS
	fs.StringVar(&c.Options.URL, "url", defaults.URL, "")
	fs.StringVar(&c.Options.URL, "u", defaults.URL, "")
	fs.StringVar(&c.Options.Engine, "engine", defaults.Engine, "")
	fs.StringVar(&c.Options.Engine, "e", defaults.Engine, "")
	fs.IntVar(&c.Options.Timeout, "timeout", defaults.Timeout, "")
	fs.IntVar(&c.Options.Timeout, "to", defaults.Timeout, "")
	fs.IntVar(&c.Options.CaptureWidth, "capture-width", defaults.CaptureWidth, "")
	fs.IntVar(&c.Options.CaptureWidth, "cw", defaults.CaptureWidth, "")
	fs.IntVar(&c.Options.CaptureHeight, "capture-height", defaults.CaptureHeight, "")
	fs.IntVar(&c.Options.CaptureHeight, "ch", defaults.CaptureHeight, "")
	fs.BoolVar(&noFull, "no-full", !defaults.CaptureFull, "")
	fs.BoolVar(&noFull, "nf", !defaults.CaptureFull, "")
	fs.IntVar(&c.Options.DelayBeforeCapture, "delay-capture", defaults.DelayBeforeCapture, "")
	fs.IntVar(&c.Options.DelayBeforeCapture, "dc", defaults.DelayBeforeCapture, "")
	fs.StringVar(&c.Options.UserAgent, "user-agent", defaults.UserAgent, "")
	fs.StringVar(&c.Options.UserAgent, "ua", defaults.UserAgent, "")
	fs.BoolVar(&c.Options.IgnoreCertificateErrors, "ignore-cert-err", defaults.IgnoreCertificateErrors, "")
	fs.BoolVar(&c.Options.IgnoreCertificateErrors, "ice", defaults.IgnoreCertificateErrors, "")
	fs.StringVar(&c.Options.BrowserPath, "browser", defaults.BrowserPath, "")
	fs.StringVar(&c.Options.BrowserPath, "b", defaults.BrowserPath, "")
	fs.StringVar(&c.ConfigFile, "config", "", "")

	// OUTPUT
	fs.BoolVar(&c.Options.ImprintURL, "imprint-text", defaults.ImprintURL, "")
	fs.BoolVar(&c.Options.ImprintURL, "it", defaults.ImprintURL, "")
	fs.BoolVar(&c.Debug, "debug", false, "")
	fs.BoolVar(&c.Version, "version", false, "")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	c.Options.CaptureFull = !noFull

	if c.Version {
		return c, nil
	}

	switch len(positional) {
	case 0:
		return nil, ErrMissingOutput
	case 1:
		c.OutputPath = positional[0]
	default:
		return nil, fmt.Errorf("expected one output path, got %d: %v", len(positional), positional)
	}

	return c, nil
}

// capture runs the browser session and writes the screenshot and, when the
// page reported errors, the error log beside it.
func (c *cli) capture(ctx context.Context, s *screenshotter.Screenshotter) {
	result, err := s.Capture(ctx)
	if err != nil {
		log.Errorf("Error capturing screenshot: %v", err)
		return
	}

	if err := result.SaveImage(c.OutputPath); err != nil {
		log.Errorf("Error saving screenshot to %s: %v", c.OutputPath, err)
		return
	}

	log.Infof("Screenshot captured successfully at %s", c.OutputPath)

	fn, err := result.SaveErrorLog(c.OutputPath)
	if err != nil {
		log.Errorf("Error writing error log for %s: %v", c.OutputPath, err)
		return
	}

	if fn != "" {
		log.Warnf("%d page error(s) logged to %s", len(result.PageErrors), fn)
	}
}
