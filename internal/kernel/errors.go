package kernel

import (
	"errors"
	"fmt"
)

// OpError reports a concrete evaluation failure inside a kernel
// primitive: an operand of the wrong scalar kind, mismatched operand
// kinds, or an undefined operation such as division by zero.
type OpError struct {
	// Op names the primitive.
	Op string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsOpError reports whether err is a kernel operation failure.
func IsOpError(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}

func newOpError(op, format string, args ...any) *OpError {
	return &OpError{Op: op, Message: fmt.Sprintf(format, args...)}
}
