package browser

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-rod/rod/lib/proto"
)

// pageSnapshot is a captured cart page: a button, and a div that is only
// clickable under shop-specific rules.
const pageSnapshot = `{
	"strings": ["https://shop.example.com/cart", "#document", "", "HTML", "BODY", "BUTTON", "id", "buy",
		"#text", "Buy", "DIV", "data-qa", "cta-checkout", "Checkout", "block", "visible", "1", "auto",
		"static", "inline-block"],
	"documents": [{
		"documentURL": 0,
		"nodes": {
			"parentIndex": [-1, 0, 1, 2, 3, 2, 5],
			"nodeType": [9, 1, 1, 1, 3, 1, 3],
			"nodeName": [1, 3, 4, 5, 8, 10, 8],
			"nodeValue": [2, 2, 2, 2, 9, 2, 13],
			"backendNodeId": [10, 11, 12, 13, 14, 15, 16],
			"attributes": [[], [], [], [6, 7], [], [11, 12], []]
		},
		"layout": {
			"nodeIndex": [1, 2, 3, 4, 5, 6],
			"styles": [
				[14, 15, 16, 15, 15, 17, 17, 18, 17, 2, 2],
				[14, 15, 16, 15, 15, 17, 17, 18, 17, 2, 2],
				[19, 15, 16, 15, 15, 17, 17, 18, 17, 2, 2],
				[],
				[14, 15, 16, 15, 15, 17, 17, 18, 17, 2, 2],
				[]
			],
			"bounds": [[0, 0, 800, 600], [0, 0, 800, 600], [10, 10, 60, 20], [14, 12, 24, 18], [10, 50, 120, 20], [10, 50, 64, 18]],
			"text": [-1, -1, -1, -1, -1, -1],
			"paintOrders": [1, 2, 3, 4, 5, 6],
			"offsetRects": [[0, 0, 800, 600], [0, 0, 800, 600], [0, 0, 60, 20], [0, 0, 0, 0], [0, 0, 120, 20], [0, 0, 0, 0]]
		}
	}]
}`

const layoutMetrics = `{"cssLayoutViewport": {"pageX": 0, "pageY": 0, "clientWidth": 800, "clientHeight": 600}}`

type recordedCall struct {
	method string
	params map[string]interface{}
}

// fakeClient answers DevTools calls with canned JSON per method.
type fakeClient struct {
	mu      sync.Mutex
	calls   []recordedCall
	results map[string]string
	errs    map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		results: map[string]string{
			"Page.getLayoutMetrics":       layoutMetrics,
			"DOMSnapshot.captureSnapshot": pageSnapshot,
			"DOM.resolveNode":             `{"object": {"type": "object", "objectId": "obj-1"}}`,
			"Runtime.callFunctionOn":      `{"result": {"type": "number", "value": 0}}`,
			"Runtime.evaluate":            `{"result": {"type": "boolean", "value": true}}`,
		},
		errs: map[string]error{},
	}
}

func (c *fakeClient) Call(_ context.Context, _, method string, params interface{}) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var decoded map[string]interface{}
	if raw, err := json.Marshal(params); err == nil {
		_ = json.Unmarshal(raw, &decoded)
	}
	c.calls = append(c.calls, recordedCall{method: method, params: decoded})

	if err := c.errs[method]; err != nil {
		return nil, err
	}
	if res, ok := c.results[method]; ok {
		return []byte(res), nil
	}
	return []byte("{}"), nil
}

func (c *fakeClient) methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.calls))
	for _, call := range c.calls {
		out = append(out, call.method)
	}
	return out
}

func (c *fakeClient) count(method string) int {
	n := 0
	for _, m := range c.methods() {
		if m == method {
			n++
		}
	}
	return n
}

// fakeDriver serves one fake client.
type fakeDriver struct {
	client *fakeClient
	url    string
}

func (d *fakeDriver) Client(context.Context) proto.Client { return d.client }
func (d *fakeDriver) URL() string                         { return d.url }
