package kernel

import (
	"github.com/tapirlang/tapir/internal/trace"
)

// Kind identifies a scalar value type.
type Kind string

const (
	Int64   Kind = "i64"
	Float64 Kind = "f64"
	Uint32  Kind = "u32"
	Bool    Kind = "bool"
)

// ScalarAval is the abstract description of a scalar: its kind only,
// never its value. Two scalars of the same kind are indistinguishable
// at this level.
type ScalarAval struct {
	Kind Kind
}

// Join implements trace.AbstractValue. Scalars of the same kind join to
// themselves; everything else is incompatible.
func (a ScalarAval) Join(other trace.AbstractValue) (trace.AbstractValue, error) {
	switch o := other.(type) {
	case nil, trace.Bot:
		return a, nil
	case ScalarAval:
		if o.Kind == a.Kind {
			return a, nil
		}
	}
	return nil, trace.NewJoinError(a, other)
}

func (a ScalarAval) String() string { return string(a.Kind) }

// KindOf reports the scalar kind of a concrete value.
func KindOf(v trace.Value) (Kind, bool) {
	switch v.(type) {
	case int64:
		return Int64, true
	case float64:
		return Float64, true
	case uint32:
		return Uint32, true
	case bool:
		return Bool, true
	}
	return "", false
}

func init() {
	trace.RegisterValueType(int64(0), func(trace.Value) trace.AbstractValue { return ScalarAval{Kind: Int64} })
	trace.RegisterValueType(float64(0), func(trace.Value) trace.AbstractValue { return ScalarAval{Kind: Float64} })
	trace.RegisterValueType(uint32(0), func(trace.Value) trace.AbstractValue { return ScalarAval{Kind: Uint32} })
	trace.RegisterValueType(false, func(trace.Value) trace.AbstractValue { return ScalarAval{Kind: Bool} })
}
