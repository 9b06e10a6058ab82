package trace

import (
	"reflect"
)

// Value is any operand accepted by dispatch: an instance of a registered
// concrete type, or a Tracer. Validity is checked at dispatch time
// against the value-type registry, not by the type system.
type Value = any

// Params carries a primitive's static parameters.
type Params map[string]any

// AbstractValue describes a value's static properties. Implementations
// form a join-semilattice: Join must be commutative per-pair and return
// the least upper bound of two descriptions of compatible dynamic type.
type AbstractValue interface {
	Join(other AbstractValue) (AbstractValue, error)
	String() string
}

// Bot is the bottom element of the lattice. Joining Bot with anything
// yields the other side.
type Bot struct{}

// Join implements AbstractValue.
func (Bot) Join(other AbstractValue) (AbstractValue, error) {
	if other == nil {
		return Bot{}, nil
	}
	return other, nil
}

func (Bot) String() string { return "bot" }

// UnitAval is the abstract description of the unit value.
type UnitAval struct{}

// Join implements AbstractValue.
func (UnitAval) Join(other AbstractValue) (AbstractValue, error) {
	switch other.(type) {
	case UnitAval, Bot, nil:
		return UnitAval{}, nil
	}
	return nil, newJoinError(UnitAval{}, other)
}

func (UnitAval) String() string { return "unit" }

// Unit is the fixed unit value, used for equations with no meaningful
// output. The IR layer pre-binds it to the implicit unit variable.
type Unit struct{}

func (Unit) String() string { return "*" }

// UnitValue is the single unit instance.
var UnitValue = Unit{}

// LatticeJoin joins two abstract values, tolerating nil on either side.
// When x.Join rejects y as incompatible, the join is retried the other
// way around before failing, so implementations only need to recognize
// their own type and Bot.
func LatticeJoin(x, y AbstractValue) (AbstractValue, error) {
	if x == nil {
		return y, nil
	}
	if y == nil {
		return x, nil
	}
	joined, err := x.Join(y)
	if err == nil {
		return joined, nil
	}
	if joined, err2 := y.Join(x); err2 == nil {
		return joined, nil
	}
	return nil, err
}

// avalRegistry maps concrete value types to their abstraction
// functions. Types absent from the registry are not valid operands
// anywhere in the system. Registration happens once at startup; the
// map is never mutated afterward.
var avalRegistry = map[reflect.Type]func(Value) AbstractValue{}

// RegisterValueType registers the abstraction function for the dynamic
// type of sample. Kernel providers call this during their init phase.
func RegisterValueType(sample Value, fn func(Value) AbstractValue) {
	avalRegistry[reflect.TypeOf(sample)] = fn
}

// ConcreteAval abstracts a concrete (non-tracer) value, failing with a
// dispatch error for unregistered types.
func ConcreteAval(v Value) (AbstractValue, error) {
	if fn, ok := avalRegistry[reflect.TypeOf(v)]; ok {
		return fn(v), nil
	}
	return nil, newInvalidOperandError("", v)
}

// AvalOf abstracts any value: tracers defer to their own abstract
// description, concrete values go through the registry.
func AvalOf(v Value) (AbstractValue, error) {
	if t, ok := v.(Tracer); ok {
		return t.Aval(), nil
	}
	return ConcreteAval(v)
}

// ValidValue reports whether v is a registered concrete value.
// Tracers are not concrete values; dispatch checks for them separately.
func ValidValue(v Value) bool {
	_, ok := avalRegistry[reflect.TypeOf(v)]
	return ok
}

func init() {
	RegisterValueType(Unit{}, func(Value) AbstractValue { return UnitAval{} })
}
