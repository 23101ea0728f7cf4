package extractor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Thumbnail geometry. The page is rendered at viewport size and scaled down
// by the browser while capturing.
const (
	viewportWidth   = 1280
	viewportHeight  = 800
	thumbnailWidth  = 400
	thumbnailHeight = 250
	thumbnailScale  = float64(thumbnailWidth) / float64(viewportWidth)
	jpegQuality     = 70

	// DefaultNavigationTimeout bounds page load while taking a screenshot.
	DefaultNavigationTimeout = 15 * time.Second

	// browserStartTimeout bounds a browser launch, including a first-run
	// Chromium download. Captures stop waiting when their own context ends.
	browserStartTimeout = 2 * time.Minute
)

var errScreenshotterClosed = errors.New("screenshotter closed")

// Screenshotter renders a page and returns a thumbnail as a data URL.
type Screenshotter interface {
	Capture(ctx context.Context, pageURL string) (string, error)
}

// BrowserConfig selects how the headless browser is obtained. ControlURL wins
// over Bin; with neither set rod finds or downloads a local Chromium.
type BrowserConfig struct {
	ControlURL string
	Bin        string
	NoSandbox  bool
}

// RodScreenshotter captures thumbnails with a lazily started headless Chrome.
// It is safe for concurrent use.
type RodScreenshotter struct {
	cfg        BrowserConfig
	navTimeout time.Duration
	launch     func(context.Context) (*rod.Browser, *launcher.Launcher, error)

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	starting *browserStart
	closed   bool
}

// browserStart is one in-flight launch shared by every capture waiting on it.
type browserStart struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

// NewRodScreenshotter creates a RodScreenshotter. The browser is not started
// until the first capture.
func NewRodScreenshotter(cfg BrowserConfig, navTimeout time.Duration) *RodScreenshotter {
	if navTimeout <= 0 {
		navTimeout = DefaultNavigationTimeout
	}
	s := &RodScreenshotter{cfg: cfg, navTimeout: navTimeout}
	s.launch = s.startBrowser
	return s
}

// Capture navigates to pageURL and returns a JPEG thumbnail data URL.
func (s *RodScreenshotter) Capture(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	browser, err := s.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()
	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return "", fmt.Errorf("set viewport: %w", err)
	}

	nav := page.Timeout(s.navTimeout)
	if err := nav.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	nav.CancelTimeout()

	quality := jpegQuality
	img, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  viewportWidth,
			Height: viewportHeight,
			Scale:  thumbnailScale,
		},
	})
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	if len(img) == 0 {
		return "", errors.New("capture: empty image")
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img), nil
}

// Close shuts the browser down. It is safe to call when nothing was started;
// a launch still in flight is torn down when it completes.
func (s *RodScreenshotter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
	return err
}

// ensureBrowser returns the running browser, starting it in the background
// on first use. The mutex is never held across a launch, so a slow start
// only delays callers until their own ctx ends.
func (s *RodScreenshotter) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errScreenshotterClosed
	}
	if s.browser != nil {
		browser := s.browser
		s.mu.Unlock()
		return browser, nil
	}
	start := s.starting
	if start == nil {
		start = &browserStart{done: make(chan struct{})}
		s.starting = start
		go s.runStart(start)
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-start.done:
		return start.browser, start.err
	}
}

func (s *RodScreenshotter) runStart(start *browserStart) {
	ctx, cancel := context.WithTimeout(context.Background(), browserStartTimeout)
	defer cancel()
	browser, l, err := s.launch(ctx)

	s.mu.Lock()
	s.starting = nil
	switch {
	case err != nil:
		start.err = err
	case s.closed:
		if browser != nil {
			_ = browser.Close()
		}
		if l != nil {
			l.Kill()
		}
		start.err = errScreenshotterClosed
	default:
		s.browser, s.launcher = browser, l
		start.browser = browser
	}
	s.mu.Unlock()
	close(start.done)
}

// startBrowser resolves a remote browser or launches a local one. ctx bounds
// the launch only; the connected browser outlives it.
func (s *RodScreenshotter) startBrowser(ctx context.Context) (*rod.Browser, *launcher.Launcher, error) {
	var (
		controlURL string
		l          *launcher.Launcher
		err        error
	)
	if remote := strings.TrimSpace(s.cfg.ControlURL); remote != "" {
		controlURL, err = launcher.ResolveURL(remote)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve browser url: %w", err)
		}
	} else {
		l = launcher.New().
			Context(ctx).
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Leakless(true).
			Headless(true)
		if s.cfg.NoSandbox {
			l = l.NoSandbox(true)
		}
		if bin := strings.TrimSpace(s.cfg.Bin); bin != "" {
			l = l.Bin(bin)
		}
		controlURL, err = l.Launch()
		if err != nil {
			l.Kill()
			return nil, nil, fmt.Errorf("launching browser: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, l, nil
}

var _ Screenshotter = (*RodScreenshotter)(nil)
