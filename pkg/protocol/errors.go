package protocol

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
)

// Error codes sent to clients.
const (
	CodeInvalidRequest     = 1
	CodeInvalidDatabase    = 2
	CodeSQLExecution       = 3
	CodeUnsupportedCommand = 4
)

// Error is a client-visible failure with a taxonomy code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// NewInvalidRequestError reports malformed or missing parameters.
func NewInvalidRequestError() *Error {
	return &Error{Code: CodeInvalidRequest, Message: "The request received was invalid"}
}

// NewInvalidDatabaseError reports an identifier absent from the registry.
func NewInvalidDatabaseError() *Error {
	return &Error{Code: CodeInvalidDatabase, Message: "Could not access database"}
}

// NewSQLExecutionError carries the engine failure text verbatim.
func NewSQLExecutionError(err error) *Error {
	return &Error{Code: CodeSQLExecution, Message: err.Error()}
}

// NewUnsupportedCommandError reports a command the addressed engine or the
// server does not implement.
func NewUnsupportedCommandError(command string) *Error {
	return &Error{Code: CodeUnsupportedCommand, Message: fmt.Sprintf("Command '%s' is NOT supported", command)}
}

// readError maps a failure of a read command to a taxonomy error, or nil
// when the failure is not client-facing.
func readError(err error) *Error {
	switch {
	case errors.Is(err, manager.ErrDatabaseNotFound):
		return NewInvalidDatabaseError()
	case errors.Is(err, driver.ErrTableNotFound), errors.Is(err, driver.ErrColumnNotFound):
		return NewInvalidRequestError()
	default:
		return nil
	}
}

// executeError maps any execute failure to a taxonomy error.
func executeError(command string, err error) *Error {
	switch {
	case errors.Is(err, manager.ErrDatabaseNotFound):
		return NewInvalidDatabaseError()
	case errors.Is(err, driver.ErrUnsupported):
		return NewUnsupportedCommandError(command)
	default:
		return NewSQLExecutionError(err)
	}
}
