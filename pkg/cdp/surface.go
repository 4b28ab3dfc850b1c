package cdp

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/entrhq/pagemap/pkg/dom/memdom"
	"github.com/entrhq/pagemap/pkg/overlay"
)

//go:embed overlay.js
var overlayJS string

//go:embed clear.js
var clearJS string

// ErrNoBackendNode is returned for markers on nodes that were not captured
// from the page.
var ErrNoBackendNode = errors.New("element has no backend node id")

// Surface draws overlay markers into a live page. Markers are positioned and
// kept in sync by the page itself.
type Surface struct {
	ctx    context.Context
	client proto.Client
}

var _ overlay.Surface = (*Surface)(nil)

// NewSurface returns a surface for the page behind c. ctx bounds every call
// the surface makes.
func NewSurface(ctx context.Context, c proto.Client) *Surface {
	return &Surface{ctx: ctx, client: c}
}

type drawArgs struct {
	Index       int    `json:"index"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Background  string `json:"background"`
	ContainerID string `json:"containerId"`
	LabelWidth  int    `json:"labelWidth"`
	LabelHeight int    `json:"labelHeight"`
}

// Draw implements overlay.Surface. The element must come from Capture.
func (s *Surface) Draw(m overlay.Marker) error {
	n, ok := m.Element.(*memdom.Node)
	if !ok || n == nil || n.BackendID == 0 {
		return ErrNoBackendNode
	}
	client := bind(s.ctx, s.client)

	res, err := proto.DOMResolveNode{BackendNodeID: proto.DOMBackendNodeID(n.BackendID)}.Call(client)
	if err != nil {
		return fmt.Errorf("failed to resolve node %d: %w", n.BackendID, err)
	}
	if res.Object == nil || res.Object.ObjectID == "" {
		return fmt.Errorf("node %d resolved to no object", n.BackendID)
	}
	defer func() {
		_ = proto.RuntimeReleaseObject{ObjectID: res.Object.ObjectID}.Call(client)
	}()

	out, err := proto.RuntimeCallFunctionOn{
		FunctionDeclaration: overlayJS,
		ObjectID:            res.Object.ObjectID,
		Arguments: []*proto.RuntimeCallArgument{{
			Value: gson.New(drawArgs{
				Index:       m.Index,
				Label:       m.Label(),
				Color:       m.Color,
				Background:  m.Background(),
				ContainerID: overlay.ContainerID,
				LabelWidth:  overlay.LabelWidth,
				LabelHeight: overlay.LabelHeight,
			}),
		}},
		ReturnByValue: true,
	}.Call(client)
	if err != nil {
		return fmt.Errorf("failed to draw marker: %w", err)
	}
	return scriptError(out.ExceptionDetails)
}

// Clear implements overlay.Surface.
func (s *Surface) Clear() error {
	out, err := proto.RuntimeEvaluate{
		Expression:    "(" + clearJS + ")(" + strconv.Quote(overlay.ContainerID) + ")",
		ReturnByValue: true,
	}.Call(bind(s.ctx, s.client))
	if err != nil {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	return scriptError(out.ExceptionDetails)
}

func scriptError(d *proto.RuntimeExceptionDetails) error {
	if d == nil {
		return nil
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return fmt.Errorf("page script failed: %s", d.Exception.Description)
	}
	return fmt.Errorf("page script failed: %s", d.Text)
}
