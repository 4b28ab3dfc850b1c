package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/pagemap/pkg/cdp"
	"github.com/entrhq/pagemap/pkg/domtree"
	"github.com/entrhq/pagemap/pkg/overlay"
)

// MapOptions configures BuildMap.
type MapOptions struct {
	// Tree is passed to domtree.Build. When highlighting is enabled and no
	// Highlighter is set, markers are drawn into the page.
	Tree domtree.Options

	// Domains picks rules by page host when Tree.Rules is nil.
	Domains *DomainRules

	// Palette overrides the marker colors.
	Palette []string
}

// BuildMap captures the page behind d and builds its node map. Markers left
// by a previous highlighting call are removed first.
func BuildMap(ctx context.Context, d Driver, opts MapOptions) (*domtree.Result, error) {
	client := d.Client(ctx)
	tree := opts.Tree

	if tree.DoHighlightElements && tree.Highlighter == nil {
		ov := overlay.New(cdp.NewSurface(ctx, client), overlay.WithPalette(opts.Palette))
		if err := ov.Clear(); err != nil {
			return nil, fmt.Errorf("failed to remove previous highlights: %w", err)
		}
		tree.Highlighter = ov
	}

	doc, err := cdp.Capture(ctx, client)
	if err != nil {
		return nil, err
	}

	if tree.Rules == nil && opts.Domains != nil {
		url := doc.URL
		if url == "" {
			url = d.URL()
		}
		rules, err := opts.Domains.For(url)
		if err != nil {
			return nil, err
		}
		tree.Rules = rules
	}

	if tree.Logger != nil {
		tree.Logger.Debugf("mapping %s", doc.URL)
	}
	return domtree.Build(doc.Page(), tree), nil
}

// ClearHighlights removes every marker drawn into the page behind d.
func ClearHighlights(ctx context.Context, d Driver) error {
	return overlay.New(cdp.NewSurface(ctx, d.Client(ctx))).Clear()
}
