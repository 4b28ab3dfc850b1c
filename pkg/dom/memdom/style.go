package memdom

import (
	"sort"
	"strings"

	"github.com/entrhq/pagemap/pkg/dom"
)

// inherited lists the properties copied from the parent's computed style.
var inherited = []string{"visibility", "cursor", "pointer-events", "color"}

var uaDisplay = map[string]string{
	"html": "block", "body": "block", "div": "block", "p": "block", "main": "block",
	"article": "block", "section": "block", "nav": "block", "header": "block",
	"footer": "block", "aside": "block", "form": "block", "ul": "block", "ol": "block",
	"li": "list-item", "h1": "block", "h2": "block", "h3": "block", "h4": "block",
	"h5": "block", "h6": "block", "dl": "block", "dt": "block", "dd": "block",
	"pre": "block", "blockquote": "block", "fieldset": "block", "figure": "block",
	"details": "block", "summary": "block", "menu": "block", "hr": "block",
	"address": "block", "table": "block", "tr": "block", "td": "block", "th": "block",
	"tbody": "block", "thead": "block", "tfoot": "block", "frameset": "block",
	"dialog": "none",

	"button": "inline-block", "input": "inline-block", "select": "inline-block",
	"textarea": "inline-block", "img": "inline-block", "iframe": "inline-block",
	"canvas": "inline-block", "video": "inline-block", "embed": "inline-block",
	"object": "inline-block", "svg": "inline-block",

	"head": "none", "script": "none", "style": "none", "link": "none", "meta": "none",
	"title": "none", "template": "none", "noscript": "none", "base": "none",
	"datalist": "none",
}

// computeStyle resolves n's computed style from UA defaults, inheritance and
// its declared inline style.
func computeStyle(n *Node, parent dom.Style) dom.Style {
	s := dom.Style{
		"display":        uaDisplayOf(n),
		"visibility":     "visible",
		"opacity":        "1",
		"position":       "static",
		"overflow-x":     "visible",
		"overflow-y":     "visible",
		"cursor":         "auto",
		"pointer-events": "auto",
		"z-index":        "auto",
		"width":          "auto",
		"height":         "auto",
	}
	for _, prop := range inherited {
		if v, ok := parent[prop]; ok {
			s[prop] = v
		}
	}
	if n.tag == "a" {
		if _, ok := n.Attr("href"); ok {
			s["cursor"] = "pointer"
		}
	}
	for prop, v := range n.declared {
		s[prop] = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
	}
	if _, hidden := n.Attr("hidden"); hidden && n.declared["display"] == "" {
		s["display"] = "none"
	}
	return s
}

func uaDisplayOf(n *Node) string {
	switch n.tag {
	case "input":
		if t, _ := n.Attr("type"); strings.EqualFold(t, "hidden") {
			return "none"
		}
	case "dialog":
		if _, open := n.Attr("open"); open {
			return "block"
		}
	}
	if d, ok := uaDisplay[n.tag]; ok {
		return d
	}
	return "inline"
}

// parseInlineStyle parses a style attribute. Shorthands for overflow are
// expanded to their longhands.
func parseInlineStyle(src string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(src, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		if prop == "overflow" {
			parts := strings.Fields(value)
			if len(parts) == 0 {
				continue
			}
			out["overflow-x"] = parts[0]
			out["overflow-y"] = parts[len(parts)-1]
			continue
		}
		out[prop] = value
	}
	return out
}

func formatInlineStyle(decl map[string]string) string {
	props := make([]string, 0, len(decl))
	for p := range decl {
		props = append(props, p)
	}
	sort.Strings(props)
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p+": "+decl[p])
	}
	return strings.Join(parts, "; ")
}
