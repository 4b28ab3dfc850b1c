package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
)

// ErrNoCDPSession is returned by calls on a session that has no DevTools
// session attached.
var ErrNoCDPSession = errors.New("no devtools session")

// Sender sends one raw DevTools command. playwright.CDPSession satisfies it.
type Sender interface {
	Send(method string, params map[string]interface{}) (interface{}, error)
}

// CDPClient adapts a Sender to the typed rod protocol client.
//
// The sender is already bound to one target, so the session id passed to
// Call is ignored. A Sender cannot be interrupted; a cancelled ctx returns
// early and the pending reply is dropped.
type CDPClient struct {
	sender Sender
}

var _ proto.Client = (*CDPClient)(nil)

// NewCDPClient returns a client sending through s.
func NewCDPClient(s Sender) *CDPClient {
	return &CDPClient{sender: s}
}

type reply struct {
	data []byte
	err  error
}

// Call implements proto.Client.
func (c *CDPClient) Call(ctx context.Context, _, method string, params interface{}) ([]byte, error) {
	if c.sender == nil {
		return nil, ErrNoCDPSession
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args, err := toParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", method, err)
	}

	done := make(chan reply, 1)
	go func() {
		res, err := c.sender.Send(method, args)
		if err != nil {
			done <- reply{err: fmt.Errorf("%s: %w", method, err)}
			return
		}
		if res == nil {
			done <- reply{data: []byte("{}")}
			return
		}
		data, err := json.Marshal(res)
		if err != nil {
			err = fmt.Errorf("failed to encode %s result: %w", method, err)
		}
		done <- reply{data: data, err: err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// toParams turns a typed request into the loose map a Sender takes.
func toParams(params interface{}) (map[string]interface{}, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
