package cdp

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
)

// Capture snapshots the page behind c and imports it. The viewport comes from
// the CSS layout viewport of the page.
func Capture(ctx context.Context, c proto.Client) (*memdom.Document, error) {
	client := bind(ctx, c)

	vp, err := Viewport(ctx, c)
	if err != nil {
		return nil, err
	}

	snap, err := proto.DOMSnapshotCaptureSnapshot{
		ComputedStyles:    SnapshotStyles,
		IncludePaintOrder: true,
		IncludeDOMRects:   true,
	}.Call(client)
	if err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}

	doc, err := Import(snap, vp)
	if err != nil {
		return nil, fmt.Errorf("failed to import snapshot: %w", err)
	}
	return doc, nil
}

// Viewport returns the size and scroll position of the page's layout
// viewport in CSS pixels.
func Viewport(ctx context.Context, c proto.Client) (dom.Viewport, error) {
	m, err := proto.PageGetLayoutMetrics{}.Call(bind(ctx, c))
	if err != nil {
		return dom.Viewport{}, fmt.Errorf("failed to read layout metrics: %w", err)
	}
	lv := m.CSSLayoutViewport
	if lv == nil {
		lv = m.LayoutViewport
	}
	if lv == nil {
		return dom.Viewport{}, fmt.Errorf("layout metrics have no viewport")
	}
	return dom.Viewport{
		Width:   float64(lv.ClientWidth),
		Height:  float64(lv.ClientHeight),
		ScrollX: float64(lv.PageX),
		ScrollY: float64(lv.PageY),
	}, nil
}
