package trace

// ImplRule is a primitive's concrete evaluation rule: a pure function
// of concrete operands. Single-result primitives return a one-element
// slice.
type ImplRule func(args []Value, params Params) ([]Value, error)

// AbstractRule is a primitive's abstract evaluation rule, used when
// only static properties of the operands are available.
type AbstractRule func(in []AbstractValue, params Params) ([]AbstractValue, error)

// BindRule overrides a primitive's dispatch entry point entirely.
type BindRule func(st *State, args []Value, params Params) ([]Value, error)

// CallRule is the concrete rule for call primitives, whose leading
// operand is a deferred sub-computation rather than a plain value.
type CallRule func(st *State, f *Callable, args []Value, params Params) ([]Value, error)

// Primitive is a named operation with pluggable evaluation rules.
// Primitives are created once at startup and are immutable after their
// registration phase; the Def* methods are not safe for concurrent use
// and are not meant to be called at runtime.
type Primitive struct {
	name            string
	multipleResults bool
	impl            ImplRule
	abstractEval    AbstractRule
	customBind      BindRule
	callImpl        CallRule
}

// NewPrimitive creates a primitive with no rules registered.
func NewPrimitive(name string) *Primitive {
	return &Primitive{name: name}
}

// Name returns the primitive's name.
func (p *Primitive) Name() string { return p.name }

// MultipleResults reports whether the primitive returns an ordered
// sequence of values instead of a single one.
func (p *Primitive) MultipleResults() bool { return p.multipleResults }

func (p *Primitive) String() string { return p.name }

// DefImpl registers the concrete evaluation rule.
func (p *Primitive) DefImpl(rule ImplRule) *Primitive {
	p.impl = rule
	return p
}

// DefAbstractEval registers the abstract evaluation rule.
func (p *Primitive) DefAbstractEval(rule AbstractRule) *Primitive {
	p.abstractEval = rule
	return p
}

// DefCustomBind overrides the dispatch entry point.
func (p *Primitive) DefCustomBind(rule BindRule) *Primitive {
	p.customBind = rule
	return p
}

// DefCallImpl registers the concrete rule for a call primitive.
func (p *Primitive) DefCallImpl(rule CallRule) *Primitive {
	p.callImpl = rule
	return p
}

// DefMultipleResults marks the primitive as multi-result.
func (p *Primitive) DefMultipleResults() *Primitive {
	p.multipleResults = true
	return p
}

// Impl runs the concrete evaluation rule.
func (p *Primitive) Impl(args []Value, params Params) ([]Value, error) {
	if p.impl == nil {
		return nil, newUnimplementedError(p.name, "evaluation")
	}
	return p.impl(args, params)
}

// AbstractEval runs the abstract evaluation rule.
func (p *Primitive) AbstractEval(in []AbstractValue, params Params) ([]AbstractValue, error) {
	if p.abstractEval == nil {
		return nil, newUnimplementedError(p.name, "abstract evaluation")
	}
	return p.abstractEval(in, params)
}

// Bind dispatches the primitive through the currently active
// interpreter, if any:
//
//  1. operands are checked for validity (tracer or registered type);
//  2. with no tracer operands there is no active interpreter and the
//     concrete rule runs directly;
//  3. otherwise every operand is raised to the topmost trace among the
//     operands, that trace's ProcessPrimitive runs, and every output is
//     fully lowered independently.
func (p *Primitive) Bind(st *State, args []Value, params Params) ([]Value, error) {
	if p.customBind != nil {
		return p.customBind(st, args, params)
	}
	if err := checkOperands(p.name, args); err != nil {
		return nil, err
	}

	top, err := findTopTrace(st, args)
	if err != nil {
		return nil, err
	}
	if top == nil {
		return p.Impl(args, params)
	}

	in := make([]Tracer, len(args))
	for i, a := range args {
		if in[i], err = FullRaise(top, a); err != nil {
			return nil, err
		}
	}
	out, err := top.ProcessPrimitive(p, in, params)
	if err != nil {
		return nil, err
	}
	retireRaised(in, args)
	return lowerAll(out), nil
}

// Bind1 dispatches a single-result primitive.
func (p *Primitive) Bind1(st *State, args []Value, params Params) (Value, error) {
	out, err := p.Bind(st, args, params)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// checkOperands rejects operands that are neither tracers nor
// registered concrete values, before any interpreter is consulted.
func checkOperands(prim string, args []Value) error {
	for _, a := range args {
		if _, ok := a.(Tracer); ok {
			continue
		}
		if !ValidValue(a) {
			return newInvalidOperandError(prim, a)
		}
	}
	return nil
}

// findTopTrace returns a fresh Trace for the topmost level represented
// among the tracer operands, or nil when no operand is traced. The
// instance is built fresh from the winning master at the state's
// current sublevel; the activation identity is the master, never the
// instance.
func findTopTrace(st *State, args []Value) (Trace, error) {
	var top Tracer
	for _, a := range args {
		t, ok := a.(Tracer)
		if !ok {
			continue
		}
		if t.Trace().Master().state != st {
			return nil, newForeignTracerError(t)
		}
		if top == nil || t.Trace().Master().Level() > top.Trace().Master().Level() {
			top = t
		}
	}
	if top == nil {
		return nil, nil
	}
	return top.Trace().Master().At(st.CurSublevel()), nil
}

func lowerAll(out []Tracer) []Value {
	vals := make([]Value, len(out))
	for i, t := range out {
		observeTracer(t)
		vals[i] = FullLower(t)
	}
	return vals
}

// retireRaised releases the intermediate tracers minted while raising
// operands. Operands that were already owned by the processing trace
// pass through FullRaise unchanged and stay accounted to their creator.
func retireRaised(in []Tracer, args []Value) {
	for i, t := range in {
		if Value(t) != args[i] {
			Retire(t)
		}
	}
}

// Identity passes its operand through untouched; its custom bind
// bypasses interpreters entirely.
var Identity = NewPrimitive("id").
	DefImpl(func(args []Value, _ Params) ([]Value, error) { return args, nil }).
	DefCustomBind(func(_ *State, args []Value, _ Params) ([]Value, error) { return args, nil })
