package screenshotter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/root4loot/goutils/log"
)

// rodEngine drives Chrome through go-rod.
type rodEngine struct{}

func (rodEngine) Name() string { return EngineRod }

func (rodEngine) Capture(ctx context.Context, options Options, errs *ErrorLog) (*Result, error) {
	result := &Result{TargetURL: options.URL}

	path := options.BrowserPath
	if path == "" {
		path, _ = launcher.LookPath()
	}

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if path != "" {
		l = l.Bin(path)
	}

	if options.UserAgent != "" {
		l.Set("user-agent", options.UserAgent)
	}

	if options.IgnoreCertificateErrors {
		l.Set("ignore-certificate-errors", "true")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return result, fmt.Errorf("error launching browser: %w", err)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return result, fmt.Errorf("error connecting to browser: %w", err)
	}
	defer func() {
		log.Debug("Closing browser...")
		if err := browser.Close(); err != nil {
			log.Debugf("Error closing browser: %v", err)
		}
	}()

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return result, fmt.Errorf("error opening page: %w", err)
	}

	if options.CaptureWidth > 0 && options.CaptureHeight > 0 {
		err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             options.CaptureWidth,
			Height:            options.CaptureHeight,
			DeviceScaleFactor: 1,
			Mobile:            false,
		})
		if err != nil {
			return result, fmt.Errorf("error setting viewport: %w", err)
		}
	}

	idle := newIdleWaiter()

	listenCtx, stopListening := context.WithCancel(ctx)
	listen := p.Context(listenCtx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			if e.Type == proto.RuntimeConsoleAPICalledTypeError {
				errs.addConsoleError(consoleText(rodRemoteValues(e.Args)))
			}
		},
		func(e *proto.RuntimeExceptionThrown) {
			if d := e.ExceptionDetails; d != nil {
				var exception *remoteValue
				if d.Exception != nil {
					v := rodRemoteValue(d.Exception)
					exception = &v
				}
				errs.addPageError(exceptionText(d.Text, exception))
			}
		},
		func(e *proto.PageLifecycleEvent) {
			if e.Name == proto.PageLifecycleEventNameNetworkIdle {
				idle.markIdle(string(e.LoaderID))
			}
		},
	)
	listening := make(chan struct{})
	go func() {
		defer close(listening)
		listen()
	}()
	defer func() {
		stopListening()
		<-listening
	}()

	if err := (proto.PageSetLifecycleEventsEnabled{Enabled: true}).Call(p.Context(ctx)); err != nil {
		return result, fmt.Errorf("error enabling lifecycle events: %w", err)
	}

	nav, err := proto.PageNavigate{URL: options.URL}.Call(p.Context(ctx))
	if err != nil {
		return result, fmt.Errorf("error navigating to %s: %w", options.URL, err)
	}
	if nav.ErrorText != "" {
		return result, fmt.Errorf("error navigating to %s: %s", options.URL, nav.ErrorText)
	}

	// Same-document navigations have no loader of their own.
	if nav.LoaderID != "" {
		log.Debugf("Waiting for network idle on %s", options.URL)
		if err := idle.wait(ctx, string(nav.LoaderID)); err != nil {
			return result, fmt.Errorf("error waiting for %s: %w", options.URL, err)
		}
	}

	if info, err := p.Info(); err == nil {
		result.LandingURL = info.URL
	}

	if err := sleepContext(ctx, time.Duration(options.DelayBeforeCapture)*time.Second); err != nil {
		return result, err
	}

	result.Image, err = p.Context(ctx).Screenshot(options.CaptureFull, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return result, fmt.Errorf("error capturing screenshot for %s: %w", options.URL, err)
	}

	return result, nil
}

func rodRemoteValue(obj *proto.RuntimeRemoteObject) remoteValue {
	return remoteValue{
		Type:           string(obj.Type),
		Subtype:        string(obj.Subtype),
		Unserializable: string(obj.UnserializableValue),
		Description:    obj.Description,
		Value:          obj.Value,
	}
}

func rodRemoteValues(args []*proto.RuntimeRemoteObject) []remoteValue {
	values := make([]remoteValue, 0, len(args))
	for _, arg := range args {
		if arg != nil {
			values = append(values, rodRemoteValue(arg))
		}
	}
	return values
}
