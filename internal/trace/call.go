package trace

// Callable is a deferred sub-computation: a suspended function together
// with a name for diagnostics. Call primitives take one as their
// leading operand instead of a plain value, which is how control
// constructs and closures become traceable.
type Callable struct {
	Name string
	F    func(st *State, args []Value) ([]Value, error)
}

// Call forces the sub-computation.
func (c *Callable) Call(st *State, args []Value) ([]Value, error) {
	return c.F(st, args)
}

// Todo is a deferred finalizer produced by PostProcessCall. Finalizers
// collected during a call are applied after it returns, last-collected
// first, each followed by a full lowering of every output.
type Todo func(outs []Value) ([]Value, error)

// CallBind dispatches a call primitive. The sub-computation is wrapped
// so that, when forced, any outputs owned by activations above the
// level active when the call began are reconciled through those
// activations' PostProcessCall rules. This after-the-fact recheck is
// necessary because a primitive cannot syntactically see values
// materializing inside the computation it delegates to.
func CallBind(st *State, p *Primitive, f *Callable, args []Value, params Params) ([]Value, error) {
	if err := checkOperands(p.name, args); err != nil {
		return nil, err
	}
	top, err := findTopTrace(st, args)
	if err != nil {
		return nil, err
	}
	level := st.stack.NextLevel(true)
	if top != nil {
		level = top.Master().Level()
	}

	var todos []Todo
	wrapped := &Callable{
		Name: f.Name,
		F: func(ist *State, xs []Value) ([]Value, error) {
			outs, err := f.Call(ist, xs)
			if err != nil {
				return nil, err
			}
			outs, extra, err := reconcileEnvTraces(ist, p, level, params, outs)
			if err != nil {
				return nil, err
			}
			todos = append(todos, extra...)
			return outs, nil
		},
	}

	var outs []Value
	if top == nil {
		if p.callImpl == nil {
			return nil, newUnimplementedError(p.name, "call evaluation")
		}
		err = st.WithSublevel(func() error {
			var ierr error
			outs, ierr = p.callImpl(st, wrapped, args, params)
			return ierr
		})
		if err != nil {
			return nil, err
		}
	} else {
		in := make([]Tracer, len(args))
		for i, a := range args {
			if in[i], err = FullRaise(top, a); err != nil {
				return nil, err
			}
		}
		out, err := top.ProcessCall(p, wrapped, in, params)
		if err != nil {
			return nil, err
		}
		retireRaised(in, args)
		outs = lowerAll(out)
	}
	return applyTodos(todos, outs)
}

// reconcileEnvTraces repeatedly raises the call outputs onto the
// highest activation above level still represented among them, invoking
// that activation's PostProcessCall and collecting its finalizer, until
// every output is at or below the call's own level. Finalizers come out
// innermost first.
func reconcileEnvTraces(st *State, p *Primitive, level int, params Params, outs []Value) ([]Value, []Todo, error) {
	var todos []Todo
	for {
		var top Tracer
		for _, o := range outs {
			t, ok := o.(Tracer)
			if !ok || t.Trace().Master().Level() <= level {
				continue
			}
			if top == nil || t.Trace().Master().Level() > top.Trace().Master().Level() {
				top = t
			}
		}
		if top == nil {
			return outs, todos, nil
		}

		tr := top.Trace().Master().At(st.CurSublevel())
		in := make([]Tracer, len(outs))
		for i, o := range outs {
			var err error
			if in[i], err = FullRaise(tr, o); err != nil {
				return nil, nil, err
			}
		}
		processed, todo, err := tr.PostProcessCall(p, in, params)
		if err != nil {
			return nil, nil, err
		}
		retireRaised(in, outs)
		outs = processed
		if todo != nil {
			todos = append(todos, todo)
		}
	}
}

// applyTodos applies collected finalizers in reverse collection order,
// fully lowering every output after each one.
func applyTodos(todos []Todo, outs []Value) ([]Value, error) {
	for i := len(todos) - 1; i >= 0; i-- {
		next, err := todos[i](outs)
		if err != nil {
			return nil, err
		}
		outs = make([]Value, len(next))
		for j, o := range next {
			outs[j] = FullLower(o)
		}
	}
	return outs, nil
}

// Call is the plain call primitive: forcing the sub-computation on the
// pending arguments is its entire concrete semantics.
var Call = NewPrimitive("call").DefCallImpl(
	func(st *State, f *Callable, args []Value, _ Params) ([]Value, error) {
		return f.Call(st, args)
	},
)
