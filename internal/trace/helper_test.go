package trace

import (
	"fmt"
)

// numAval is the abstract description of the test operand type.
type numAval struct{}

func (numAval) Join(other AbstractValue) (AbstractValue, error) {
	switch other.(type) {
	case nil, Bot, numAval:
		return numAval{}, nil
	}
	return nil, NewJoinError(numAval{}, other)
}

func (numAval) String() string { return "num" }

func init() {
	RegisterValueType(int64(0), func(Value) AbstractValue { return numAval{} })
}

// testKind builds interpreters for the tests. A transparent kind adds
// no information: its tracers lower away and results come out concrete.
// An opaque kind keeps its wrappers, standing in for a transformation
// whose tracers carry state of their own.
type testKind struct {
	name   string
	st     *State
	log    *[]string
	opaque bool
}

func (k *testKind) kind() TraceKind {
	return TraceKind{
		Name: k.name,
		New: func(m *MasterTrace, sub *Sublevel) Trace {
			return &testTrace{TraceCore: NewTraceCore(m, sub), k: k}
		},
	}
}

func (k *testKind) logf(format string, args ...any) {
	if k.log != nil {
		*k.log = append(*k.log, fmt.Sprintf(format, args...))
	}
}

type testTrace struct {
	TraceCore
	k *testKind
}

type testTracer struct {
	tr  *testTrace
	val Value
}

func (t *testTracer) Trace() Trace { return t.tr }

func (t *testTracer) Aval() AbstractValue {
	aval, err := AvalOf(t.val)
	if err != nil {
		return Bot{}
	}
	return aval
}

func (t *testTracer) FullLower() Value {
	if t.tr.k.opaque {
		return t
	}
	return t.val
}

func (t *testTrace) Pure(v Value) (Tracer, error) {
	return &testTracer{tr: t, val: v}, nil
}

func (t *testTrace) Lift(l Tracer) (Tracer, error) {
	return &testTracer{tr: t, val: l}, nil
}

func (t *testTrace) Sublift(l Tracer) (Tracer, error) {
	return &testTracer{tr: t, val: l.(*testTracer).val}, nil
}

func (t *testTrace) ProcessPrimitive(p *Primitive, in []Tracer, params Params) ([]Tracer, error) {
	t.k.logf("%s@%d", p.Name(), t.Level())
	args := payloads(in)
	outs, err := p.Bind(t.k.st, args, params)
	if err != nil {
		return nil, err
	}
	return t.wrap(outs), nil
}

func (t *testTrace) ProcessCall(p *Primitive, f *Callable, in []Tracer, params Params) ([]Tracer, error) {
	t.k.logf("%s@%d", p.Name(), t.Level())
	outs, err := f.Call(t.k.st, payloads(in))
	if err != nil {
		return nil, err
	}
	return t.wrap(outs), nil
}

func (t *testTrace) PostProcessCall(p *Primitive, out []Tracer, params Params) ([]Value, Todo, error) {
	t.k.logf("post-%s@%d", p.Name(), t.Level())
	vals := make([]Value, len(out))
	for i, o := range out {
		vals[i] = o.(*testTracer).val
		Retire(o)
	}
	m := t.Master()
	k := t.k
	todo := func(outs []Value) ([]Value, error) {
		tr := m.At(k.st.CurSublevel())
		wrapped := make([]Value, len(outs))
		for i, o := range outs {
			raised, err := FullRaise(tr, o)
			if err != nil {
				return nil, err
			}
			wrapped[i] = raised
		}
		return wrapped, nil
	}
	return vals, todo, nil
}

func (t *testTrace) wrap(vals []Value) []Tracer {
	out := make([]Tracer, len(vals))
	for i, v := range vals {
		out[i] = &testTracer{tr: t, val: v}
	}
	return out
}

func payloads(in []Tracer) []Value {
	args := make([]Value, len(in))
	for i, t := range in {
		args[i] = t.(*testTracer).val
	}
	return args
}

// addPrim is a plain single-result test primitive over int64.
func addPrim() *Primitive {
	return NewPrimitive("add").
		DefImpl(func(args []Value, _ Params) ([]Value, error) {
			return []Value{args[0].(int64) + args[1].(int64)}, nil
		}).
		DefAbstractEval(func(in []AbstractValue, _ Params) ([]AbstractValue, error) {
			joined, err := LatticeJoin(in[0], in[1])
			if err != nil {
				return nil, err
			}
			return []AbstractValue{joined}, nil
		})
}
