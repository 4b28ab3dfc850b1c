package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/entrhq/pagemap/pkg/config"
	"github.com/entrhq/pagemap/pkg/domtree"
)

// maxText bounds text shown per record in tree output
const maxText = 60

var (
	indexStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4682B4"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57"))
	hiddenStyle = lipgloss.NewStyle().Faint(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// render formats res. color selects terminal styling.
func render(res *domtree.Result, format config.Format, color bool) (string, error) {
	switch format {
	case config.FormatTree:
		return renderTree(res, color), nil
	case config.FormatJSON, "":
		return renderJSON(res, color)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func renderJSON(res *domtree.Result, color bool) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode map: %w", err)
	}
	src := string(data) + "\n"
	if !color {
		return src, nil
	}
	var b strings.Builder
	if err := quick.Highlight(&b, src, "json", "terminal256", "monokai"); err != nil {
		return src, nil
	}
	return b.String(), nil
}

// renderTree draws the retained records as a tree. Addressable elements are
// prefixed with their highlight index.
func renderTree(res *domtree.Result, color bool) string {
	root := res.Root()
	if root == nil {
		return "(empty page)\n"
	}

	style := func(s lipgloss.Style, v string) string {
		if !color {
			return v
		}
		return s.Render(v)
	}

	var build func(rec *domtree.NodeRecord) *tree.Tree
	build = func(rec *domtree.NodeRecord) *tree.Tree {
		t := tree.Root(label(rec, style))
		for _, id := range rec.Children {
			child, ok := res.Map[id]
			if !ok {
				continue
			}
			if len(child.Children) == 0 {
				t.Child(label(child, style))
				continue
			}
			t.Child(build(child))
		}
		return t
	}

	t := build(root).Enumerator(tree.RoundedEnumerator)
	if color {
		t = t.EnumeratorStyle(branchStyle)
	}
	return t.String() + "\n"
}

func label(rec *domtree.NodeRecord, style func(lipgloss.Style, string) string) string {
	if rec.IsText() {
		s := style(textStyle, fmt.Sprintf("%q", truncate(rec.Text)))
		if !rec.IsTextVisible {
			s = style(hiddenStyle, "(hidden) ") + s
		}
		return s
	}

	var b strings.Builder
	if i := rec.Index(); i >= 0 {
		b.WriteString(style(indexStyle, fmt.Sprintf("[%d]", i)))
		b.WriteString(" ")
	}
	b.WriteString(style(tagStyle, "<"+tagOf(rec)+attrString(rec.Attributes)+">"))
	if rec.ShadowRoot {
		b.WriteString(" #shadow-root")
	}
	if rec.Kind == domtree.KindElement && !rec.IsVisible {
		b.WriteString(" " + style(hiddenStyle, "(hidden)"))
	}
	return b.String()
}

func tagOf(rec *domtree.NodeRecord) string {
	if rec.TagName != "" {
		return rec.TagName
	}
	return strings.ToLower(string(rec.Kind))
}

// attrString lists attributes sorted by name.
func attrString(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		v := attrs[k]
		if v == "" {
			fmt.Fprintf(&b, " %s", k)
			continue
		}
		fmt.Fprintf(&b, " %s=%q", k, truncate(v))
	}
	return b.String()
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxText {
		return s
	}
	return string(r[:maxText-1]) + "…"
}
