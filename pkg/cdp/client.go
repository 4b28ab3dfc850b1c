// Package cdp connects the page mapper to live Chromium pages over the Chrome
// DevTools Protocol.
//
// Capture takes a DOMSnapshot of a page and imports it into an in-memory
// document, so the tree builder runs against a consistent, frozen copy of the
// page with browser computed geometry. Surface draws highlight markers back
// into the live page.
//
// Everything here talks to a proto.Client, which is implemented by rod pages
// and by the playwright CDP session adapter in the browser package.
package cdp

import (
	"context"

	"github.com/go-rod/rod/lib/proto"
)

// boundClient attaches a context and the session of the wrapped client to
// typed proto calls.
type boundClient struct {
	proto.Client
	ctx     context.Context
	session proto.TargetSessionID
}

func (c boundClient) GetContext() context.Context         { return c.ctx }
func (c boundClient) GetSessionID() proto.TargetSessionID { return c.session }

func bind(ctx context.Context, c proto.Client) boundClient {
	b := boundClient{Client: c, ctx: ctx}
	if s, ok := c.(proto.Sessionable); ok {
		b.session = s.GetSessionID()
	}
	return b
}
