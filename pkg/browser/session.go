package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/playwright-community/playwright-go"
)

var _ Driver = (*Session)(nil)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// URL implements Driver.
func (s *Session) URL() string {
	if s.Page != nil {
		return s.Page.URL()
	}
	return s.CurrentURL
}

// Client implements Driver. Calls go through the session's DevTools session.
func (s *Session) Client(ctx context.Context) proto.Client {
	s.UpdateLastUsed()
	return NewCDPClient(s.CDP)
}

// Info returns the session's metadata.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Name:       s.Name,
		CurrentURL: s.CurrentURL,
		Headless:   s.Headless,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
	}
}

// close releases every handle the session holds, innermost first. Handles
// that were never opened are skipped.
func (s *Session) close() error {
	var errs []error
	if s.CDP != nil {
		if err := s.CDP.Detach(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Page != nil {
		if err := s.Page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Context != nil {
		if err := s.Context.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
