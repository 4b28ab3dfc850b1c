package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodOptions configures a RodSession.
type RodOptions struct {
	// ControlURL connects to a running browser. Empty launches a local one.
	ControlURL string

	// Bin is the browser binary to launch. Empty lets the launcher find or
	// download one.
	Bin string

	// Headless controls whether a launched browser shows a window.
	Headless bool

	// Stealth opens the page with anti-detection patches applied.
	Stealth bool

	// Viewport sets the page's device metrics. Nil keeps the default size.
	Viewport *Viewport

	// Timeout bounds navigation, load waits included. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// RodSession is one rod page in its own browser.
type RodSession struct {
	Browser *rod.Browser
	Page    *rod.Page

	opts    RodOptions
	lnch    *launcher.Launcher
	current string
}

var _ Driver = (*RodSession)(nil)

// StartRod launches or connects to Chromium and opens a blank page.
func StartRod(ctx context.Context, opts RodOptions) (*RodSession, error) {
	if opts.Timeout == 0 {
		opts.Timeout = time.Duration(DefaultTimeout) * time.Millisecond
	}
	s := &RodSession{opts: opts, current: "about:blank"}

	u := opts.ControlURL
	if u == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		var err error
		u, err = l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.lnch = l
	}

	s.Browser = rod.New().ControlURL(u)
	if err := s.Browser.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var err error
	if opts.Stealth {
		s.Page, err = stealth.Page(s.Browser)
	} else {
		s.Page, err = s.Browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if opts.Viewport != nil {
		err := s.Page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Viewport.Width,
			Height:            opts.Viewport.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}
	return s, nil
}

// Navigate loads url and waits for the load event.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	page := s.Page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for load: %w", err)
	}

	s.current = url
	if info, err := s.Page.Info(); err == nil {
		s.current = info.URL
	}
	return nil
}

// URL implements Driver.
func (s *RodSession) URL() string {
	return s.current
}

// Client implements Driver.
func (s *RodSession) Client(ctx context.Context) proto.Client {
	return s.Page.Context(ctx)
}

// Close closes the page and the browser, then stops a launched process.
func (s *RodSession) Close() error {
	var err error
	if s.Page != nil {
		_ = s.Page.Close()
	}
	if s.Browser != nil {
		err = s.Browser.Close()
	}
	s.kill()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (s *RodSession) kill() {
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch = nil
	}
}
