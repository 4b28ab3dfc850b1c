package domtree

import (
	"strconv"
	"strings"

	"github.com/entrhq/pagemap/pkg/dom"
)

// xpathOf returns the positional path of el: tag segments joined by "/",
// where the n-th element among same-tag siblings (n >= 2) carries "[n]".
//
// With stopAtBoundary the ascent ends at the top of el's shadow root or
// iframe document. Without it the path continues through the shadow host or
// the iframe element.
func xpathOf(el dom.Node, stopAtBoundary bool) string {
	var segments []string
	for cur := el; cur != nil && cur.Type() == dom.ElementNode; {
		segments = append(segments, segment(cur))

		parent := cur.Parent()
		if parent == nil {
			break
		}
		boundary := dom.IsShadowRoot(parent) ||
			(parent.Type() == dom.DocumentNode && parent.FrameElement() != nil)
		if boundary && stopAtBoundary {
			break
		}
		switch {
		case dom.IsShadowRoot(parent):
			cur = parent.Host()
		case parent.Type() == dom.DocumentNode:
			cur = parent.FrameElement()
		default:
			cur = parent
		}
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}

func segment(el dom.Node) string {
	tag := el.TagName()
	parent := el.Parent()
	if parent == nil {
		return tag
	}
	pos := 0
	for _, sib := range parent.Children() {
		if sib.Type() != dom.ElementNode || sib.TagName() != tag {
			continue
		}
		pos++
		if sib == el {
			break
		}
	}
	if pos < 2 {
		return tag
	}
	return tag + "[" + strconv.Itoa(pos) + "]"
}
