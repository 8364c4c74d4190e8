// Package local runs protocol commands in process. The CLI uses it to
// issue the same commands a websocket client would.
package local

import (
	"context"
	"encoding/json"

	"github.com/leapstack-labs/dbbridge/pkg/protocol"
)

// Conn is an in-process protocol connection.
type Conn struct {
	router *protocol.Router
}

// Connect attaches plugin to a new connection, rebuilding its registry.
func Connect(ctx context.Context, plugin *protocol.Plugin) *Conn {
	c := &Conn{router: protocol.NewRouter()}
	plugin.OnConnect(ctx, c.router)
	return c
}

// Call runs one command and returns its JSON payload. A taxonomy error is
// returned as *protocol.Error; any other error is a fault.
func (c *Conn) Call(ctx context.Context, method string, params protocol.Params) (json.RawMessage, error) {
	res, err := c.router.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Payload, nil
}

// CallInto runs one command and decodes its payload into out.
func (c *Conn) CallInto(ctx context.Context, method string, params protocol.Params, out any) error {
	payload, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}
