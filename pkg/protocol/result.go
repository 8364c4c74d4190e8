package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var errAlreadyAnswered = errors.New("command already answered")

// Result is a Responder that keeps the answer to one command in its
// wire form. Transports use it to frame responses.
type Result struct {
	// Payload is the JSON encoded success payload.
	Payload json.RawMessage
	// Err is set when the command was answered with a taxonomy error.
	Err *Error

	answered bool
}

var _ Responder = (*Result)(nil)

// Success encodes payload. An encoding failure leaves the result
// unanswered and is returned to the receiver.
func (r *Result) Success(payload any) error {
	if r.answered {
		return errAlreadyAnswered
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	r.Payload = b
	r.answered = true
	return nil
}

// Error records a taxonomy error.
func (r *Result) Error(err *Error) error {
	if r.answered {
		return errAlreadyAnswered
	}
	r.Err = err
	r.answered = true
	return nil
}

// Answered reports whether Success or Error completed.
func (r *Result) Answered() bool { return r.answered }

// Call dispatches one command and captures its answer. A non-nil error
// means the command faulted and the result carries no answer.
func (r *Router) Call(ctx context.Context, method string, params Params) (*Result, error) {
	res := &Result{}
	if err := r.Dispatch(ctx, method, params, res); err != nil {
		return nil, err
	}
	if !res.answered {
		return nil, fmt.Errorf("%s: receiver returned without answering", method)
	}
	return res, nil
}
