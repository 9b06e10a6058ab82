package ir

import (
	"github.com/tapirlang/tapir/internal/trace"
)

// Eqn is one graph node: a primitive applied to ordered inputs,
// writing ordered fresh output variables. Equations may close over
// bound sub-programs (see SubProg) and carry static parameters.
type Eqn struct {
	// ID is the arena-allocated equation identity.
	ID int

	// In references the operands, in order.
	In []Atom

	// Out lists the variables written, in order. Single-result
	// primitives write exactly one.
	Out []*Var

	// Prim is the operation applied.
	Prim *trace.Primitive

	// Subs holds bound sub-programs, each paired with the bindings it
	// closes over.
	Subs []SubProg

	// Params holds the primitive's static parameters.
	Params trace.Params
}

// SubProg pairs a nested program with the enclosing-scope bindings for
// its constant and free variable groups.
type SubProg struct {
	Prog   *Prog
	Consts []Atom
	Free   []Atom
}

// Prog is a program graph: an ordered equation list plus four disjoint
// variable groups. ConstVars bind construction-time constants, FreeVars
// bind values captured from an enclosing scope, InVars bind call-time
// arguments, and OutVars are the references read after all equations
// execute.
type Prog struct {
	ConstVars []*Var
	FreeVars  []*Var
	InVars    []*Var
	OutVars   []Atom
	Eqns      []Eqn
}

func (p *Prog) String() string { return Render(p) }

// TypedProg pairs a closed program with its constant values and one
// abstract description per input and output.
type TypedProg struct {
	Prog     *Prog
	Consts   []trace.Value
	InAvals  []trace.AbstractValue
	OutAvals []trace.AbstractValue
}

// NewTypedProg validates the closedness and count invariants: the
// program must have no free variables, and the constants and abstract
// descriptions must match their variable groups one to one.
func NewTypedProg(p *Prog, consts []trace.Value, inAvals, outAvals []trace.AbstractValue) (*TypedProg, error) {
	if len(p.FreeVars) != 0 {
		return nil, &MalformedError{
			Code:    CodeNotClosed,
			Message: "typed program must have no free variables",
			Prog:    Render(p),
		}
	}
	if len(consts) != len(p.ConstVars) {
		return nil, newArityError(p, "%d constants for %d constant variables", len(consts), len(p.ConstVars))
	}
	if len(inAvals) != len(p.InVars) {
		return nil, newArityError(p, "%d input avals for %d inputs", len(inAvals), len(p.InVars))
	}
	if len(outAvals) != len(p.OutVars) {
		return nil, newArityError(p, "%d output avals for %d outputs", len(outAvals), len(p.OutVars))
	}
	return &TypedProg{Prog: p, Consts: consts, InAvals: inAvals, OutAvals: outAvals}, nil
}

// Call evaluates the typed program as a plain function of args.
func (tp *TypedProg) Call(st *trace.State, args []trace.Value) ([]trace.Value, error) {
	return Eval(st, tp.Prog, tp.Consts, nil, args)
}

// AsCallable defers the typed program as a call operand.
func (tp *TypedProg) AsCallable(name string) *trace.Callable {
	return &trace.Callable{
		Name: name,
		F: func(st *trace.State, args []trace.Value) ([]trace.Value, error) {
			return tp.Call(st, args)
		},
	}
}
