package domain

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrDetectionFailure is returned when the detector could not finish a file.
	ErrDetectionFailure = errors.New("detection failure")
	// ErrCodegenFailure is returned when rewritten text could not be produced or re-parsed.
	ErrCodegenFailure = errors.New("codegen failure")
	// ErrFixerConstruction is reported when the fixer could not be built.
	ErrFixerConstruction = errors.New("fixer construction failure")
	// ErrFixerCall is reported when one repair call failed.
	ErrFixerCall = errors.New("fixer call failure")
)

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// recovered converts a recover() value into an error.
func recovered(r any) error {
	return &PanicError{Value: r, Stack: string(debug.Stack())}
}

// traceOf returns the panic stack carried by err, if any.
func traceOf(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Stack
	}

	return ""
}
