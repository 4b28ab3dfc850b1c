package domtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagemap/pkg/dom"
)

func TestIsTopElement(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "uncovered",
			html: `<button data-t>Go</button>`,
			want: true,
		},
		{
			name: "hit on a descendant",
			html: `<button data-t><span>Go</span></button>`,
			want: true,
		},
		{
			name: "covered by a positioned sibling",
			html: `<button data-t>Go</button>
				<div style="position:absolute;left:0;top:0;width:800px;height:600px"></div>`,
			want: false,
		},
		{
			name: "cover ignores pointer events",
			html: `<button data-t>Go</button>
				<div style="position:absolute;left:0;top:0;width:800px;height:600px;pointer-events:none"></div>`,
			want: true,
		},
		{
			name: "below the fold",
			html: `<div style="height:2000px"></div><button data-t>Go</button>
				<div style="position:fixed;left:0;top:0;width:800px;height:600px"></div>`,
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, tt.html)
			b := newBuilder(d.Page(), d.Node(), DefaultOptions())
			assert.Equal(t, tt.want, b.isTopElement(target(t, d)))
		})
	}
}

func TestIsTopElement_HitTestFailure(t *testing.T) {
	d := parse(t, `<button data-t>Go</button>
		<div style="position:absolute;left:0;top:0;width:800px;height:600px"></div>`)
	b := newBuilder(brokenHitTestPage{d.Page()}, d.Node(), DefaultOptions())
	assert.True(t, b.isTopElement(target(t, d)))
}

func TestIsTopElement_UnknownGeometry(t *testing.T) {
	d := parse(t, `<p>x</p>`)
	b := newBuilder(d.Page(), d.Node(), DefaultOptions())
	assert.True(t, b.isTopElement(d.CreateElement("button")))
}

func TestIsTopElement_ShadowTree(t *testing.T) {
	d := parse(t, `
		<div id="host"><template shadowrootmode="open">
			<button id="inner">Go</button>
			<div id="veil" style="position:absolute;left:0;top:0;width:100px;height:20px"></div>
		</template></div>
		<div id="other" style="position:absolute;left:400px;top:300px"><template shadowrootmode="open"><button id="free">Go</button></template></div>`)
	b := newBuilder(d.Page(), d.Node(), DefaultOptions())

	inner := d.GetElementByID("inner")
	free := d.GetElementByID("free")
	require.NotNil(t, inner)
	require.NotNil(t, free)

	assert.False(t, b.isTopElement(inner), "covered inside its own root")
	assert.True(t, b.isTopElement(free))
}

func TestIsTopElement_IframeContent(t *testing.T) {
	d := parse(t, `<iframe id="f" srcdoc="<button id='b'>Go</button><div style='position:absolute;left:0;top:0;width:300px;height:150px'></div>"></iframe>`)
	b := newBuilder(d.Page(), d.Node(), DefaultOptions())

	btn := d.GetElementByID("f").Frame().GetElementByID("b")
	require.NotNil(t, btn)
	assert.True(t, b.isTopElement(btn), "frame content is not hit-tested")
}

func TestReaches(t *testing.T) {
	d := parse(t, `<div id="outer"><span id="inner"><b id="leaf">x</b></span></div>`)
	outer, inner, leaf := d.GetElementByID("outer"), d.GetElementByID("inner"), d.GetElementByID("leaf")
	stop := dom.DocumentElement(d.Node())

	assert.True(t, reaches(leaf, leaf, stop))
	assert.True(t, reaches(leaf, outer, stop))
	assert.False(t, reaches(outer, inner, stop))
	assert.False(t, reaches(nil, inner, stop))
	assert.False(t, reaches(leaf, outer, inner), "walk ends at stop")
}
