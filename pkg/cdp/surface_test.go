package cdp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagemap/pkg/domtree"
	"github.com/entrhq/pagemap/pkg/overlay"
)

func liveClient() *fakeClient {
	c := newFakeClient()
	c.respond("DOM.resolveNode", `{"object": {"type": "object", "subtype": "node", "objectId": "obj-7"}}`)
	c.respond("Runtime.callFunctionOn", `{"result": {"type": "number", "value": 3}}`)
	c.respond("Runtime.evaluate", `{"result": {"type": "boolean", "value": true}}`)
	return c
}

func TestSurface_Draw(t *testing.T) {
	d := importFixture(t)
	c := liveClient()
	o := overlay.New(NewSurface(context.Background(), c))

	require.NoError(t, o.Highlight(d.GetElementByID("go"), 3, nil))
	assert.Equal(t, []string{"DOM.resolveNode", "Runtime.callFunctionOn", "Runtime.releaseObject"}, c.methods())

	resolve := c.last("DOM.resolveNode")
	assert.Equal(t, float64(103), resolve.params["backendNodeId"])

	call := c.last("Runtime.callFunctionOn")
	assert.Equal(t, "obj-7", call.params["objectId"])
	assert.Equal(t, true, call.params["returnByValue"])
	decl, _ := call.params["functionDeclaration"].(string)
	assert.True(t, strings.HasPrefix(decl, "function (opts)"))

	args, ok := call.params["arguments"].([]interface{})
	require.True(t, ok)
	require.Len(t, args, 1)
	value := args[0].(map[string]interface{})["value"].(map[string]interface{})
	assert.Equal(t, float64(3), value["index"])
	assert.Equal(t, "3", value["label"])
	assert.Equal(t, "#FFA500", value["color"])
	assert.Equal(t, "#FFA5001A", value["background"])
	assert.Equal(t, overlay.ContainerID, value["containerId"])
	assert.Equal(t, float64(overlay.LabelWidth), value["labelWidth"])

	assert.Equal(t, "obj-7", c.last("Runtime.releaseObject").params["objectId"])
}

func TestSurface_DrawErrors(t *testing.T) {
	d := importFixture(t)
	btn := d.GetElementByID("go")

	t.Run("node not captured", func(t *testing.T) {
		s := NewSurface(context.Background(), liveClient())
		err := s.Draw(overlay.Marker{Element: d.CreateElement("div"), Color: "#FF0000"})
		assert.ErrorIs(t, err, ErrNoBackendNode)
	})

	t.Run("resolve fails", func(t *testing.T) {
		c := liveClient()
		c.errs["DOM.resolveNode"] = errors.New("no node with given id")
		err := NewSurface(context.Background(), c).Draw(overlay.Marker{Element: btn})
		assert.ErrorContains(t, err, "failed to resolve node 103")
		assert.Nil(t, c.last("Runtime.callFunctionOn"))
	})

	t.Run("script exception", func(t *testing.T) {
		c := liveClient()
		c.respond("Runtime.callFunctionOn", `{
			"result": {"type": "object"},
			"exceptionDetails": {"exceptionId": 1, "text": "Uncaught", "lineNumber": 0, "columnNumber": 0,
				"exception": {"type": "object", "description": "TypeError: doc.body is null"}}
		}`)
		err := NewSurface(context.Background(), c).Draw(overlay.Marker{Element: btn})
		assert.EqualError(t, err, "page script failed: TypeError: doc.body is null")
		assert.NotNil(t, c.last("Runtime.releaseObject"), "object released after a failed call")
	})
}

func TestSurface_Clear(t *testing.T) {
	c := liveClient()
	s := NewSurface(context.Background(), c)
	require.NoError(t, s.Clear())

	eval := c.last("Runtime.evaluate")
	require.NotNil(t, eval)
	expr, _ := eval.params["expression"].(string)
	assert.True(t, strings.HasSuffix(expr, `)("playwright-highlight-container")`), expr)

	c.respond("Runtime.evaluate", `{"result": {"type": "object"}, "exceptionDetails": {"exceptionId": 1, "text": "denied", "lineNumber": 0, "columnNumber": 0}}`)
	assert.EqualError(t, s.Clear(), "page script failed: denied")
}

func TestSurface_DuringBuild(t *testing.T) {
	d := importFixture(t)
	c := liveClient()

	opts := domtree.DefaultOptions()
	opts.DoHighlightElements = true
	opts.Highlighter = overlay.New(NewSurface(context.Background(), c))
	res := domtree.Build(d.Page(), opts)

	draws := 0
	for _, m := range c.methods() {
		if m == "Runtime.callFunctionOn" {
			draws++
		}
	}
	assert.Equal(t, len(res.Highlighted()), draws)
}
