package screenshotter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
	"github.com/ysmood/gson"
)

const lifecycleNetworkIdle = "networkIdle"

// chromedpEngine drives Chrome through chromedp.
type chromedpEngine struct{}

func (chromedpEngine) Name() string { return EngineChromedp }

func (chromedpEngine) Capture(ctx context.Context, options Options, errs *ErrorLog) (*Result, error) {
	result := &Result{TargetURL: options.URL}

	// Create custom chromedp options by appending the custom flags to the default options.
	opts := append(chromedp.DefaultExecAllocatorOptions[:], customFlags(options)...)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(log.Debugf),
		chromedp.WithErrorf(log.Debugf),
	)
	defer cancelBrowser()

	// Closes the browser gracefully; cancelAlloc kills it if that fails.
	defer func() {
		log.Debug("Closing browser...")
		if err := chromedp.Cancel(browserCtx); err != nil {
			log.Debugf("Error closing browser: %v", err)
		}
	}()

	idle := newIdleWaiter()

	// Listeners must be attached before the target exists.
	chromedp.ListenTarget(browserCtx, func(ev any) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if ev.Type == runtime.APITypeError {
				errs.addConsoleError(consoleText(cdpRemoteValues(ev.Args)))
			}
		case *runtime.EventExceptionThrown:
			if d := ev.ExceptionDetails; d != nil {
				var exception *remoteValue
				if d.Exception != nil {
					v := cdpRemoteValue(d.Exception)
					exception = &v
				}
				errs.addPageError(exceptionText(d.Text, exception))
			}
		case *page.EventLifecycleEvent:
			if ev.Name == lifecycleNetworkIdle {
				idle.markIdle(string(ev.LoaderID))
			}
		}
	})

	tasks := chromedp.Tasks{}

	if options.CaptureWidth > 0 && options.CaptureHeight > 0 {
		tasks = append(tasks, chromedp.EmulateViewport(int64(options.CaptureWidth), int64(options.CaptureHeight)))
	}

	tasks = append(tasks,
		navigateAndWaitIdle(options.URL, idle),
		chromedp.Location(&result.LandingURL),
	)

	if options.DelayBeforeCapture > 0 {
		tasks = append(tasks, chromedp.Sleep(time.Duration(options.DelayBeforeCapture)*time.Second))
	}

	var image []byte
	if options.CaptureFull {
		tasks = append(tasks, fullPageScreenshot(&image))
	} else {
		tasks = append(tasks, chromedp.CaptureScreenshot(&image))
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return result, fmt.Errorf("error capturing screenshot for %s: %w", options.URL, err)
	}

	result.Image = image
	return result, nil
}

// customFlags returns the allocator options derived from the capture options.
func customFlags(options Options) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
	}

	if options.CaptureWidth > 0 && options.CaptureHeight > 0 {
		flags = append(flags, chromedp.WindowSize(options.CaptureWidth, options.CaptureHeight))
	}

	if options.IgnoreCertificateErrors {
		flags = append(flags, chromedp.Flag("ignore-certificate-errors", true))
	}

	if options.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(options.UserAgent))
	}

	if options.BrowserPath != "" {
		flags = append(flags, chromedp.ExecPath(options.BrowserPath))
	}

	return flags
}

// navigateAndWaitIdle navigates the page and blocks until the document it
// loaded has had no network activity for the browser's idle interval.
func navigateAndWaitIdle(url string, idle *idleWaiter) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		_, loaderID, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return fmt.Errorf("error navigating to %s: %w", url, err)
		}
		if errorText != "" {
			return fmt.Errorf("error navigating to %s: %s", url, errorText)
		}

		// Same-document navigations have no loader of their own.
		if loaderID == "" {
			return nil
		}

		log.Debugf("Waiting for network idle on %s", url)
		return idle.wait(ctx, string(loaderID))
	}
}

// fullPageScreenshot resizes the viewport to the page's content size and
// captures it as PNG.
func fullPageScreenshot(res *[]byte) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		_, _, _, _, _, contentSize, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		if contentSize == nil {
			return errors.New("failed to get css content size")
		}

		width := int64(math.Ceil(contentSize.Width))
		height := int64(math.Ceil(contentSize.Height))
		if err := emulation.SetDeviceMetricsOverride(width, height, 1, false).Do(ctx); err != nil {
			return err
		}

		*res, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithFromSurface(true).
			Do(ctx)
		return err
	}
}

func cdpRemoteValue(obj *runtime.RemoteObject) remoteValue {
	return remoteValue{
		Type:           string(obj.Type),
		Subtype:        string(obj.Subtype),
		Unserializable: string(obj.UnserializableValue),
		Description:    obj.Description,
		Value:          gson.New([]byte(obj.Value)),
	}
}

func cdpRemoteValues(args []*runtime.RemoteObject) []remoteValue {
	values := make([]remoteValue, 0, len(args))
	for _, arg := range args {
		if arg != nil {
			values = append(values, cdpRemoteValue(arg))
		}
	}
	return values
}
