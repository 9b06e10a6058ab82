package trace

// Trace is the transformation interface: one instance interprets
// primitives under a particular activation (master) at a particular
// sublevel. Implementations embed TraceCore for the Master/Sublevel
// accessors and define how to adopt values (Pure, Lift, Sublift) and
// how to execute operations under their own semantics.
//
// Instances are cheap and short-lived: dispatch builds a fresh one from
// the winning master at the current sublevel for every operation.
type Trace interface {
	Master() *MasterTrace
	Sublevel() *Sublevel

	// Pure wraps a fully concrete value in this trace's tracer.
	Pure(v Value) (Tracer, error)

	// Lift adopts a tracer owned by a strictly lower-level activation.
	Lift(t Tracer) (Tracer, error)

	// Sublift adopts a tracer from an older sublevel of this trace's
	// own activation.
	Sublift(t Tracer) (Tracer, error)

	// ProcessPrimitive executes a primitive under this trace's
	// semantics. Operands have already been raised to this trace.
	ProcessPrimitive(p *Primitive, in []Tracer, params Params) ([]Tracer, error)

	// ProcessCall executes a call primitive whose leading operand is a
	// deferred sub-computation.
	ProcessCall(p *Primitive, f *Callable, in []Tracer, params Params) ([]Tracer, error)

	// PostProcessCall reconciles call outputs that surfaced at this
	// trace's level after the call itself began at a lower one. It
	// unwraps its own tracers into plain values; the returned Todo is
	// applied after the call returns to restore the outputs to the
	// caller's level, and may be nil.
	PostProcessCall(p *Primitive, out []Tracer, params Params) ([]Value, Todo, error)
}

// TraceCore carries the (master, sublevel) pair common to every Trace
// implementation.
type TraceCore struct {
	master *MasterTrace
	sub    *Sublevel
}

// NewTraceCore builds the core embedded by Trace implementations.
func NewTraceCore(m *MasterTrace, sub *Sublevel) TraceCore {
	return TraceCore{master: m, sub: sub}
}

// Master returns the owning activation.
func (c TraceCore) Master() *MasterTrace { return c.master }

// Sublevel returns the sublevel this instance is bound to.
func (c TraceCore) Sublevel() *Sublevel { return c.sub }

// Level returns the owning activation's level.
func (c TraceCore) Level() int { return c.master.Level() }

// Tracer wraps a value on behalf of exactly one trace. All numeric and
// structural introspection defers to the tracer's abstract description.
// Implementations must be pointer types: dispatch compares and keys
// tracers by identity.
type Tracer interface {
	// Trace returns the owning trace.
	Trace() Trace

	// Aval returns the abstract description of the wrapped value.
	Aval() AbstractValue

	// FullLower strips the wrapper when it carries no
	// transformation-specific information, returning the underlying
	// value; otherwise it returns the tracer itself.
	FullLower() Value
}

// FullLower recursively strips tracer wrappers that carry no
// information. Concrete values pass through untouched; the result of a
// second FullLower is always the first's result (idempotence).
func FullLower(v Value) Value {
	for {
		t, ok := v.(Tracer)
		if !ok {
			return v
		}
		lowered := t.FullLower()
		if lowered == Value(t) {
			return v
		}
		Retire(t)
		v = lowered
	}
}

// FullRaise reconciles an arbitrary value onto the target trace so the
// trace's processing rules see only its own tracers:
//
//   - a concrete value is wrapped via Pure;
//   - a tracer of the same activation is returned as-is at the same
//     sublevel, sublifted from an older one, and rejected from a newer
//     one (a value leaked out of an inner sub-transformation);
//   - a tracer of a strictly lower level is lifted, provided its
//     sublevel does not exceed the target's;
//   - a tracer of a higher level, or of a different activation at the
//     same level, cannot be reconciled.
//
// The total order over (level, sublevel) enforced here is what makes
// stacked transformations compose in any nesting order.
func FullRaise(target Trace, v Value) (Tracer, error) {
	t, ok := v.(Tracer)
	if !ok {
		if !ValidValue(v) {
			return nil, newInvalidOperandError("", v)
		}
		out, err := target.Pure(v)
		if err != nil {
			return nil, err
		}
		observeTracer(out)
		return out, nil
	}

	cur := t.Trace()
	if cur.Master().state != target.Master().state {
		return nil, newForeignTracerError(t)
	}

	if cur.Master() == target.Master() {
		switch {
		case cur.Sublevel().Depth() == target.Sublevel().Depth():
			return t, nil
		case cur.Sublevel().Depth() < target.Sublevel().Depth():
			out, err := target.Sublift(t)
			if err != nil {
				return nil, err
			}
			observeTracer(out)
			return out, nil
		default:
			return nil, newSublevelError(t, target)
		}
	}

	if cur.Master().Level() < target.Master().Level() {
		if cur.Sublevel().Depth() > target.Sublevel().Depth() {
			return nil, newSublevelError(t, target)
		}
		out, err := target.Lift(t)
		if err != nil {
			return nil, err
		}
		observeTracer(out)
		return out, nil
	}

	// Higher level, or same level under a different activation.
	return nil, newLiftError(t, target)
}
