// Package domtree turns a rendered page into a flat, addressable node map.
//
// Build walks the document below body, including open shadow roots and
// same-origin iframes, and emits one NodeRecord per kept element or non-empty
// text node. Records reference their children by id, so the map can be
// serialized as JSON and rebuilt without pointers.
//
// # Classification
//
// Every element is tested in a fixed order:
//
//  1. Visibility: a painted box with positive size
//  2. Interactivity: rule tables plus listener and cursor signals
//  3. Viewport: the box intersects the viewport grown by ViewportExpansion
//  4. Topmost: a hit test at the box center lands on the element
//
// Elements passing all four receive a HighlightIndex. Indices are handed out
// in document order and are contiguous from zero. A hidden checkbox or radio
// also receives one when a visible, uncovered label names it.
//
// # Rules
//
// The interactivity heuristics are data. DefaultRules loads the embedded
// rules.yaml; LoadRules and Extend add site specific tables:
//
//	rules, err := domtree.DefaultRules().Extend(domtree.RuleSet{
//	    InteractiveRoles: []string{"widget"},
//	})
//	res := domtree.Build(page, domtree.Options{
//	    FocusHighlightIndex: -1,
//	    Rules:               rules,
//	})
//
// # Page access
//
// Build reads the page through dom.Page and never mutates it. Highlighting is
// delegated to a Highlighter so the overlay lives outside the walk. Geometry
// and style lookups are memoized for the duration of one call; concurrent
// calls on independent pages are safe.
package domtree
