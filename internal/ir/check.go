package ir

import (
	"fmt"
)

// Check validates the structural invariants of a program graph: every
// variable is written exactly once, every read is dominated by its
// write, and every bound sub-program both resolves its closure bindings
// in the enclosing scope and is itself well formed.
//
// Validation never executes primitives, so it is safe on graphs whose
// operations would fail at run time.
func Check(p *Prog) error {
	scope := map[*Var]struct{}{UnitVar: {}}

	define := func(v *Var) error {
		if v == UnitVar {
			return nil
		}
		if _, ok := scope[v]; ok {
			return newReboundVarError(v, p)
		}
		scope[v] = struct{}{}
		return nil
	}
	resolve := func(a Atom) (*Var, bool) {
		v, ok := a.(*Var)
		if !ok {
			return nil, true
		}
		_, ok = scope[v]
		return v, ok
	}

	for _, group := range [][]*Var{p.ConstVars, p.FreeVars, p.InVars} {
		for _, v := range group {
			if err := define(v); err != nil {
				return err
			}
		}
	}

	for i := range p.Eqns {
		eqn := &p.Eqns[i]
		for _, a := range eqn.In {
			if v, ok := resolve(a); !ok {
				return newUndefinedVarError(v, p)
			}
		}
		for si, sub := range eqn.Subs {
			for _, a := range sub.Consts {
				if v, ok := resolve(a); !ok {
					return &MalformedError{
						Code:    CodeUnresolvedClosure,
						Message: fmt.Sprintf("constant binding of sub-program %d in eqn %d is not in scope", si, eqn.ID),
						Var:     v.String(),
						Prog:    Render(p),
					}
				}
			}
			for _, a := range sub.Free {
				if v, ok := resolve(a); !ok {
					return &MalformedError{
						Code:    CodeUnresolvedClosure,
						Message: fmt.Sprintf("free binding of sub-program %d in eqn %d is not in scope", si, eqn.ID),
						Var:     v.String(),
						Prog:    Render(p),
					}
				}
			}
			if len(sub.Consts) != len(sub.Prog.ConstVars) {
				return newArityError(p, "sub-program %d in eqn %d: %d constant bindings for %d constant variables",
					si, eqn.ID, len(sub.Consts), len(sub.Prog.ConstVars))
			}
			if len(sub.Free) != len(sub.Prog.FreeVars) {
				return newArityError(p, "sub-program %d in eqn %d: %d free bindings for %d free variables",
					si, eqn.ID, len(sub.Free), len(sub.Prog.FreeVars))
			}
			if err := Check(sub.Prog); err != nil {
				return fmt.Errorf("sub-program %d in eqn %d: %w", si, eqn.ID, err)
			}
		}
		for _, v := range eqn.Out {
			if err := define(v); err != nil {
				return err
			}
		}
	}

	for _, a := range p.OutVars {
		if v, ok := resolve(a); !ok {
			return newUndefinedVarError(v, p)
		}
	}
	return nil
}
