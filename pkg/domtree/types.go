package domtree

import (
	"encoding/json"
)

// Kind classifies a NodeRecord.
type Kind string

const (
	KindElement Kind = "ELEMENT"
	KindText    Kind = "TEXT"
	KindRoot    Kind = "ROOT"
)

// NodeRecord is one retained node of the page map.
type NodeRecord struct {
	ID         string
	Kind       Kind
	TagName    string
	Attributes map[string]string
	XPath      string
	Children   []string

	Text          string
	IsTextVisible bool

	IsVisible     bool
	IsInteractive bool
	IsInViewport  bool
	IsTopElement  bool

	// HighlightIndex is set only for records addressable by an agent.
	HighlightIndex *int

	// ShadowRoot marks an element whose open shadow tree was inlined.
	ShadowRoot bool
}

// IsText reports whether the record is a text record.
func (r *NodeRecord) IsText() bool { return r.Kind == KindText }

// Index returns the highlight index, or -1 when the record has none.
func (r *NodeRecord) Index() int {
	if r.HighlightIndex == nil {
		return -1
	}
	return *r.HighlightIndex
}

type textRecordJSON struct {
	ID            string `json:"id"`
	Kind          Kind   `json:"kind"`
	Text          string `json:"text"`
	IsTextVisible bool   `json:"isTextVisible"`
}

type elementRecordJSON struct {
	ID             string            `json:"id"`
	Kind           Kind              `json:"kind"`
	TagName        string            `json:"tagName"`
	Attributes     map[string]string `json:"attributes"`
	XPath          string            `json:"xpath"`
	Children       []string          `json:"children"`
	IsVisible      bool              `json:"isVisible,omitempty"`
	IsInteractive  bool              `json:"isInteractive,omitempty"`
	IsInViewport   bool              `json:"isInViewport,omitempty"`
	IsTopElement   bool              `json:"isTopElement,omitempty"`
	HighlightIndex *int              `json:"highlightIndex,omitempty"`
	ShadowRoot     bool              `json:"shadowRoot,omitempty"`
}

// MarshalJSON encodes text records without children and element records
// always with a (possibly empty) children array.
func (r *NodeRecord) MarshalJSON() ([]byte, error) {
	if r.Kind == KindText {
		return json.Marshal(textRecordJSON{
			ID:            r.ID,
			Kind:          r.Kind,
			Text:          r.Text,
			IsTextVisible: r.IsTextVisible,
		})
	}
	children := r.Children
	if children == nil {
		children = []string{}
	}
	attrs := r.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return json.Marshal(elementRecordJSON{
		ID:             r.ID,
		Kind:           r.Kind,
		TagName:        r.TagName,
		Attributes:     attrs,
		XPath:          r.XPath,
		Children:       children,
		IsVisible:      r.IsVisible,
		IsInteractive:  r.IsInteractive,
		IsInViewport:   r.IsInViewport,
		IsTopElement:   r.IsTopElement,
		HighlightIndex: r.HighlightIndex,
		ShadowRoot:     r.ShadowRoot,
	})
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (r *NodeRecord) UnmarshalJSON(data []byte) error {
	var raw elementRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == KindText {
		var text textRecordJSON
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*r = NodeRecord{ID: text.ID, Kind: text.Kind, Text: text.Text, IsTextVisible: text.IsTextVisible}
		return nil
	}
	*r = NodeRecord{
		ID:             raw.ID,
		Kind:           raw.Kind,
		TagName:        raw.TagName,
		Attributes:     raw.Attributes,
		XPath:          raw.XPath,
		Children:       raw.Children,
		IsVisible:      raw.IsVisible,
		IsInteractive:  raw.IsInteractive,
		IsInViewport:   raw.IsInViewport,
		IsTopElement:   raw.IsTopElement,
		HighlightIndex: raw.HighlightIndex,
		ShadowRoot:     raw.ShadowRoot,
	}
	return nil
}

// Result is the output of one Build call.
type Result struct {
	RootID      string                 `json:"rootId"`
	Map         map[string]*NodeRecord `json:"map"`
	PerfMetrics *Metrics               `json:"perfMetrics,omitempty"`
}

// Root returns the root record, or nil for an empty result.
func (r *Result) Root() *NodeRecord {
	return r.Map[r.RootID]
}

// SelectorMap maps every highlight index to the id of its record.
func (r *Result) SelectorMap() map[int]string {
	out := make(map[int]string)
	for id, rec := range r.Map {
		if rec.HighlightIndex != nil {
			out[*rec.HighlightIndex] = id
		}
	}
	return out
}

// Highlighted returns the addressable records ordered by highlight index.
func (r *Result) Highlighted() []*NodeRecord {
	sel := r.SelectorMap()
	out := make([]*NodeRecord, 0, len(sel))
	for i := 0; i < len(sel); i++ {
		if id, ok := sel[i]; ok {
			out = append(out, r.Map[id])
		}
	}
	return out
}

// Walk visits records depth-first from the root in document order.
func (r *Result) Walk(fn func(rec *NodeRecord, depth int) bool) {
	var visit func(id string, depth int) bool
	visit = func(id string, depth int) bool {
		rec, ok := r.Map[id]
		if !ok {
			return true
		}
		if !fn(rec, depth) {
			return false
		}
		for _, c := range rec.Children {
			if !visit(c, depth+1) {
				return false
			}
		}
		return true
	}
	if r.RootID != "" {
		visit(r.RootID, 0)
	}
}
