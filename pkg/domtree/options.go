package domtree

import "github.com/entrhq/pagemap/pkg/dom"

// Options configures one Build call.
type Options struct {
	// DoHighlightElements enables the overlay side effect.
	DoHighlightElements bool `json:"doHighlightElements" yaml:"doHighlightElements"`

	// FocusHighlightIndex restricts highlighting to one index; -1 highlights all.
	FocusHighlightIndex int `json:"focusHighlightIndex" yaml:"focusHighlightIndex"`

	// ViewportExpansion grows the viewport by this many pixels on every side
	// for in-viewport tests. -1 disables every geometric test.
	ViewportExpansion int `json:"viewportExpansion" yaml:"viewportExpansion"`

	// DebugMode collects Metrics into the result.
	DebugMode bool `json:"debugMode" yaml:"debugMode"`

	// Rules are the interactivity rule tables. Nil means DefaultRules.
	Rules *Rules `json:"-" yaml:"-"`

	// Highlighter receives addressed elements when highlighting is enabled.
	Highlighter Highlighter `json:"-" yaml:"-"`

	// Logger receives debug output. Nil disables logging.
	Logger Logger `json:"-" yaml:"-"`
}

// DefaultOptions returns options that highlight nothing and use the plain
// viewport.
func DefaultOptions() Options {
	return Options{FocusHighlightIndex: -1}
}

// Highlighter draws a marker for an addressed element. frame is the iframe
// element enclosing el, nil for the top-level document.
type Highlighter interface {
	Highlight(el dom.Node, index int, frame dom.Node) error
}

// Logger is the subset of a logger the builder writes to.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// unlimited is the ViewportExpansion sentinel disabling geometric tests.
const unlimited = -1

func (o Options) unlimited() bool { return o.ViewportExpansion == unlimited }

func (o Options) shouldHighlight(index int) bool {
	if !o.DoHighlightElements || o.Highlighter == nil {
		return false
	}
	return o.FocusHighlightIndex < 0 || o.FocusHighlightIndex == index
}
