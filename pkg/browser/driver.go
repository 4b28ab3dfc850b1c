package browser

import (
	"context"

	"github.com/go-rod/rod/lib/proto"
)

// Driver is a page the mapper can capture and draw into.
type Driver interface {
	// Client returns a DevTools client for the page. Calls made through it
	// are bound to ctx.
	Client(ctx context.Context) proto.Client

	// URL returns the address of the page's top document.
	URL() string
}
