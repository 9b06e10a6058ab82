package trace

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes trace-machinery errors.
//
// All of these are defect signals, not transient conditions: none are
// retried or recovered locally, and no partial results accompany them.
type ErrorCode string

const (
	// ErrCodeInvalidOperand indicates an operand that is neither a
	// tracer nor an instance of a registered concrete value type.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeForeignTracer indicates a tracer minted under a different
	// State than the one dispatching. Tracers must never cross
	// execution contexts.
	ErrCodeForeignTracer ErrorCode = "FOREIGN_TRACER"

	// ErrCodeIncompatibleJoin indicates a lattice join of abstract
	// values with incompatible dynamic types.
	ErrCodeIncompatibleJoin ErrorCode = "INCOMPATIBLE_JOIN"

	// ErrCodeUnimplementedRule indicates a primitive invoked without a
	// registered concrete or abstract evaluation rule.
	ErrCodeUnimplementedRule ErrorCode = "UNIMPLEMENTED_RULE"

	// ErrCodeLiftIncompatible indicates an attempt to reconcile a tracer
	// onto a trace at a lower level, or onto a different trace at the
	// same level. Either way a tracer escaped its valid scope.
	ErrCodeLiftIncompatible ErrorCode = "LIFT_INCOMPATIBLE"

	// ErrCodeSublevelOrder indicates a tracer from a newer sublevel
	// surfacing at an older one: a value from an inner nested
	// sub-transformation leaked outward without being processed.
	ErrCodeSublevelOrder ErrorCode = "SUBLEVEL_ORDER"

	// ErrCodeTraceLeak indicates a popped activation or sublevel with
	// tracers still registered against it (debug leak check only).
	ErrCodeTraceLeak ErrorCode = "TRACE_LEAK"
)

// Error is the structured error type for dispatch, lifting,
// unimplemented-rule, and leak-detection failures. Callers match on
// Code (or the Is* helpers) rather than parsing messages.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Primitive names the primitive involved, when there is one.
	Primitive string

	// Tracer describes the offending tracer's owning trace.
	Tracer string

	// Target describes the trace a value was being reconciled onto.
	Target string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Tracer != "" && e.Target != "":
		return fmt.Sprintf("%s: %s (tracer=%s, target=%s)", e.Code, e.Message, e.Tracer, e.Target)
	case e.Primitive != "":
		return fmt.Sprintf("%s: %s (primitive=%s)", e.Code, e.Message, e.Primitive)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsDispatchError reports whether err is an operand-validity or
// context-crossing dispatch failure.
func IsDispatchError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		switch te.Code {
		case ErrCodeInvalidOperand, ErrCodeForeignTracer, ErrCodeIncompatibleJoin:
			return true
		}
	}
	return false
}

// IsLiftError reports whether err is a level or sublevel reconciliation
// failure.
func IsLiftError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == ErrCodeLiftIncompatible || te.Code == ErrCodeSublevelOrder
	}
	return false
}

// IsUnimplementedError reports whether err names a primitive with a
// missing evaluation rule.
func IsUnimplementedError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == ErrCodeUnimplementedRule
	}
	return false
}

// IsLeakError reports whether err is a debug leak-check failure.
func IsLeakError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == ErrCodeTraceLeak
	}
	return false
}

func newInvalidOperandError(prim string, v Value) *Error {
	return &Error{
		Code:      ErrCodeInvalidOperand,
		Message:   fmt.Sprintf("%T is not a valid tapir value", v),
		Primitive: prim,
	}
}

func newForeignTracerError(t Tracer) *Error {
	return &Error{
		Code:    ErrCodeForeignTracer,
		Message: "tracer belongs to a different execution context",
		Tracer:  describeTrace(t.Trace()),
	}
}

func newUnimplementedError(prim, rule string) *Error {
	return &Error{
		Code:      ErrCodeUnimplementedRule,
		Message:   fmt.Sprintf("%s rule not implemented", rule),
		Primitive: prim,
	}
}

func newLiftError(t Tracer, target Trace) *Error {
	return &Error{
		Code:    ErrCodeLiftIncompatible,
		Message: "cannot reconcile tracer onto target trace",
		Tracer:  describeTrace(t.Trace()),
		Target:  describeTrace(target),
	}
}

func newSublevelError(t Tracer, target Trace) *Error {
	return &Error{
		Code:    ErrCodeSublevelOrder,
		Message: "tracer sublevel is newer than target sublevel",
		Tracer:  describeTrace(t.Trace()),
		Target:  describeTrace(target),
	}
}

func newLeakError(scope string, count int) *Error {
	return &Error{
		Code:    ErrCodeTraceLeak,
		Message: fmt.Sprintf("%d tracer(s) escaped %s", count, scope),
	}
}

func newJoinError(x, y AbstractValue) *Error {
	return &Error{
		Code:    ErrCodeIncompatibleJoin,
		Message: fmt.Sprintf("cannot join %s with %s", x, y),
	}
}

// NewJoinError reports a lattice join of incompatible abstract values.
// AbstractValue implementations outside this package return it from
// their Join methods.
func NewJoinError(x, y AbstractValue) error {
	return newJoinError(x, y)
}

func describeTrace(tr Trace) string {
	if tr == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(level=%d/%d)", tr.Master().KindName(), tr.Master().Level(), tr.Sublevel().Depth())
}
