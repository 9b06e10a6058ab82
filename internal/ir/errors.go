package ir

import (
	"errors"
	"fmt"
)

// MalformedCode categorizes malformed-program errors.
type MalformedCode string

const (
	// CodeUndefinedVar indicates a read of a variable with no prior
	// binding in its scope.
	CodeUndefinedVar MalformedCode = "UNDEFINED_VAR"

	// CodeReboundVar indicates a second write to an already-bound
	// variable (SSA violation).
	CodeReboundVar MalformedCode = "REBOUND_VAR"

	// CodeUnresolvedClosure indicates a bound sub-program whose declared
	// constant or free-variable bindings cannot be resolved in the
	// enclosing scope.
	CodeUnresolvedClosure MalformedCode = "UNRESOLVED_CLOSURE"

	// CodeArityMismatch indicates a count mismatch between a variable
	// group and the values or descriptions supplied for it.
	CodeArityMismatch MalformedCode = "ARITY_MISMATCH"

	// CodeNotClosed indicates a typed graph built over a program that
	// still has free variables.
	CodeNotClosed MalformedCode = "NOT_CLOSED"

	// CodeUnsupportedEqn indicates an equation shape the interpreter
	// cannot execute (more than one bound sub-program).
	CodeUnsupportedEqn MalformedCode = "UNSUPPORTED_EQN"
)

// MalformedError reports a structural defect in a program graph. These
// are always fatal to the current graph execution and carry the
// offending variable plus a rendering of the enclosing graph for
// precise failure localization.
type MalformedError struct {
	// Code identifies the defect category.
	Code MalformedCode

	// Message is a human-readable description.
	Message string

	// Var names the offending variable, when there is one.
	Var string

	// Prog is the rendered enclosing graph.
	Prog string
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Var != "" {
		msg += fmt.Sprintf(" (var=%s)", e.Var)
	}
	if e.Prog != "" {
		msg += "\nprogram:\n" + e.Prog
	}
	return msg
}

// IsMalformedError reports whether err is a malformed-program error.
func IsMalformedError(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// MalformedCodeOf extracts the defect category, or "" when err is not a
// malformed-program error.
func MalformedCodeOf(err error) MalformedCode {
	var me *MalformedError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

func newUndefinedVarError(v *Var, p *Prog) *MalformedError {
	return &MalformedError{
		Code:    CodeUndefinedVar,
		Message: "variable read before definition",
		Var:     v.String(),
		Prog:    Render(p),
	}
}

func newReboundVarError(v *Var, p *Prog) *MalformedError {
	return &MalformedError{
		Code:    CodeReboundVar,
		Message: "variable already bound",
		Var:     v.String(),
		Prog:    Render(p),
	}
}

func newArityError(p *Prog, format string, args ...any) *MalformedError {
	return &MalformedError{
		Code:    CodeArityMismatch,
		Message: fmt.Sprintf(format, args...),
		Prog:    Render(p),
	}
}
