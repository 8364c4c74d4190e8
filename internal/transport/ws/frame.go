package ws

import (
	"encoding/json"

	"github.com/leapstack-labs/dbbridge/pkg/protocol"
)

// Request is one command frame sent by a client.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params protocol.Params `json:"params,omitempty"`
}

// Response answers one Request. Exactly one of Success, Error and Fault is
// set. ID echoes the request id verbatim.
type Response struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Success json.RawMessage `json:"success,omitempty"`
	Error   *protocol.Error `json:"error,omitempty"`
	Fault   string          `json:"fault,omitempty"`
}

// newResponse frames the outcome of Router.Call.
func newResponse(id json.RawMessage, res *protocol.Result, err error) Response {
	switch {
	case err != nil:
		return Response{ID: id, Fault: err.Error()}
	case res.Err != nil:
		return Response{ID: id, Error: res.Err}
	default:
		return Response{ID: id, Success: res.Payload}
	}
}
