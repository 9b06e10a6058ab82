package ir

import (
	"fmt"

	"github.com/tapirlang/tapir/internal/trace"
)

// Atom is a sealed reference usable as an equation input or a graph
// output: a variable or an embedded literal.
type Atom interface {
	isAtom()
	String() string
}

// Var is an opaque graph node reference. Identity is the integer id
// allocated by an Arena; pointer equality and id equality coincide for
// vars of one graph.
type Var struct {
	id int
}

func (*Var) isAtom() {}

// ID returns the arena-allocated identifier.
func (v *Var) ID() int { return v.id }

func (v *Var) String() string {
	if v == UnitVar {
		return "*"
	}
	return fmt.Sprintf("v%d", v.id)
}

// UnitVar is the implicit unit variable, pre-bound to the unit value in
// every evaluation and every validation scope. Equations with no
// meaningful output write it.
var UnitVar = &Var{id: -1}

// Arena allocates variable and equation identifiers for one graph
// construction: monotonically increasing integers, no object-identity
// bookkeeping.
type Arena struct {
	nextVar int
	nextEqn int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// NewVar allocates a fresh variable.
func (a *Arena) NewVar() *Var {
	v := &Var{id: a.nextVar}
	a.nextVar++
	return v
}

// NewVars allocates n fresh variables.
func (a *Arena) NewVars(n int) []*Var {
	vs := make([]*Var, n)
	for i := range vs {
		vs[i] = a.NewVar()
	}
	return vs
}

// NewEqn builds an equation with the next equation id.
func (a *Arena) NewEqn(in []Atom, out []*Var, prim *trace.Primitive, subs []SubProg, params trace.Params) Eqn {
	eqn := Eqn{
		ID:     a.nextEqn,
		In:     in,
		Out:    out,
		Prim:   prim,
		Subs:   subs,
		Params: params,
	}
	a.nextEqn++
	return eqn
}
