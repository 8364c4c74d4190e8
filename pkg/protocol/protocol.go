// Package protocol binds the database browse commands to a Manager over an
// abstract connection that can receive named commands and respond with a
// success payload or a coded error.
package protocol

import (
	"context"
	"sync"
)

// Command names on the wire.
const (
	CommandDatabaseList      = "databaseList"
	CommandGetTableStructure = "getTableStructure"
	CommandGetTableData      = "getTableData"
	CommandGetTableInfo      = "getTableInfo"
	CommandExecute           = "execute"
)

// Params is the untyped parameter object of a command.
type Params map[string]any

// Responder answers one command exactly once.
type Responder interface {
	Success(payload any) error
	Error(err *Error) error
}

// ReceiverFunc handles one command. A returned error means the command
// failed outside the error taxonomy and no response was sent.
type ReceiverFunc func(ctx context.Context, params Params, r Responder) error

// Connection registers command receivers.
type Connection interface {
	Receive(method string, fn ReceiverFunc)
}

// Router is a Connection that dispatches commands to registered receivers
// one at a time.
type Router struct {
	mu        sync.Mutex
	receivers map[string]ReceiverFunc
}

var _ Connection = (*Router)(nil)

// NewRouter creates a router with no receivers.
func NewRouter() *Router {
	return &Router{receivers: make(map[string]ReceiverFunc)}
}

// Receive registers fn for method, replacing any previous receiver.
func (r *Router) Receive(method string, fn ReceiverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[method] = fn
}

// Dispatch runs the receiver of method. Unknown methods are answered with
// the unsupported command error. Commands are serialized per router.
func (r *Router) Dispatch(ctx context.Context, method string, params Params, resp Responder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.receivers[method]
	if !ok {
		return resp.Error(NewUnsupportedCommandError(method))
	}
	if params == nil {
		params = Params{}
	}
	return fn(ctx, params, resp)
}
