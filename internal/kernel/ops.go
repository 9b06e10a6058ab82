package kernel

import (
	"math/bits"
	"sort"

	"github.com/tapirlang/tapir/internal/trace"
)

// Arithmetic over the numeric kinds. Unsigned words wrap; signed and
// floating-point follow Go semantics.
var (
	Add = binop("add",
		func(a, b int64) (int64, error) { return a + b, nil },
		func(a, b float64) (float64, error) { return a + b, nil },
		func(a, b uint32) (uint32, error) { return a + b, nil })

	Sub = binop("sub",
		func(a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) (float64, error) { return a - b, nil },
		func(a, b uint32) (uint32, error) { return a - b, nil })

	Mul = binop("mul",
		func(a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) (float64, error) { return a * b, nil },
		func(a, b uint32) (uint32, error) { return a * b, nil })

	Div = binop("div",
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, newOpError("div", "integer division by zero")
			}
			return a / b, nil
		},
		func(a, b float64) (float64, error) { return a / b, nil },
		func(a, b uint32) (uint32, error) {
			if b == 0 {
				return 0, newOpError("div", "integer division by zero")
			}
			return a / b, nil
		})

	Xor = binop("xor",
		func(a, b int64) (int64, error) { return a ^ b, nil },
		func(a, b float64) (float64, error) {
			return 0, newOpError("xor", "not defined on %s", Float64)
		},
		func(a, b uint32) (uint32, error) { return a ^ b, nil })
)

// Neg negates a numeric scalar.
var Neg = trace.NewPrimitive("neg").
	DefImpl(func(args []trace.Value, _ trace.Params) ([]trace.Value, error) {
		if err := arity("neg", args, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case int64:
			return []trace.Value{-x}, nil
		case float64:
			return []trace.Value{-x}, nil
		case uint32:
			return []trace.Value{-x}, nil
		}
		return nil, newOpError("neg", "not defined on %T", args[0])
	}).
	DefAbstractEval(unaryAbstract("neg"))

// Greater compares two numeric scalars of the same kind.
var Greater = trace.NewPrimitive("greater").
	DefImpl(func(args []trace.Value, _ trace.Params) ([]trace.Value, error) {
		if err := arity("greater", args, 2); err != nil {
			return nil, err
		}
		switch a := args[0].(type) {
		case int64:
			if b, ok := args[1].(int64); ok {
				return []trace.Value{a > b}, nil
			}
		case float64:
			if b, ok := args[1].(float64); ok {
				return []trace.Value{a > b}, nil
			}
		case uint32:
			if b, ok := args[1].(uint32); ok {
				return []trace.Value{a > b}, nil
			}
		}
		return nil, newOpError("greater", "mismatched operands %T and %T", args[0], args[1])
	}).
	DefAbstractEval(func(in []trace.AbstractValue, _ trace.Params) ([]trace.AbstractValue, error) {
		if len(in) != 2 {
			return nil, newOpError("greater", "expected 2 operands, got %d", len(in))
		}
		if _, err := trace.LatticeJoin(in[0], in[1]); err != nil {
			return nil, err
		}
		return []trace.AbstractValue{ScalarAval{Kind: Bool}}, nil
	})

// RotL rotates an unsigned word left by the static "count" parameter.
var RotL = trace.NewPrimitive("rotl").
	DefImpl(func(args []trace.Value, params trace.Params) ([]trace.Value, error) {
		if err := arity("rotl", args, 1); err != nil {
			return nil, err
		}
		x, ok := args[0].(uint32)
		if !ok {
			return nil, newOpError("rotl", "not defined on %T", args[0])
		}
		count, ok := params["count"].(int64)
		if !ok {
			return nil, newOpError("rotl", "missing int64 parameter count")
		}
		return []trace.Value{bits.RotateLeft32(x, int(count))}, nil
	}).
	DefAbstractEval(unaryAbstract("rotl"))

// DivMod divides two signed integers, producing quotient and remainder.
var DivMod = trace.NewPrimitive("divmod").
	DefMultipleResults().
	DefImpl(func(args []trace.Value, _ trace.Params) ([]trace.Value, error) {
		if err := arity("divmod", args, 2); err != nil {
			return nil, err
		}
		a, aok := args[0].(int64)
		b, bok := args[1].(int64)
		if !aok || !bok {
			return nil, newOpError("divmod", "operands must be %s, got %T and %T", Int64, args[0], args[1])
		}
		if b == 0 {
			return nil, newOpError("divmod", "integer division by zero")
		}
		return []trace.Value{a / b, a % b}, nil
	}).
	DefAbstractEval(func(in []trace.AbstractValue, _ trace.Params) ([]trace.AbstractValue, error) {
		if len(in) != 2 {
			return nil, newOpError("divmod", "expected 2 operands, got %d", len(in))
		}
		if _, err := trace.LatticeJoin(in[0], in[1]); err != nil {
			return nil, err
		}
		return []trace.AbstractValue{ScalarAval{Kind: Int64}, ScalarAval{Kind: Int64}}, nil
	})

func binop(name string, fi func(int64, int64) (int64, error), ff func(float64, float64) (float64, error), fu func(uint32, uint32) (uint32, error)) *trace.Primitive {
	return trace.NewPrimitive(name).
		DefImpl(func(args []trace.Value, _ trace.Params) ([]trace.Value, error) {
			if err := arity(name, args, 2); err != nil {
				return nil, err
			}
			switch a := args[0].(type) {
			case int64:
				if b, ok := args[1].(int64); ok {
					out, err := fi(a, b)
					if err != nil {
						return nil, err
					}
					return []trace.Value{out}, nil
				}
			case float64:
				if b, ok := args[1].(float64); ok {
					out, err := ff(a, b)
					if err != nil {
						return nil, err
					}
					return []trace.Value{out}, nil
				}
			case uint32:
				if b, ok := args[1].(uint32); ok {
					out, err := fu(a, b)
					if err != nil {
						return nil, err
					}
					return []trace.Value{out}, nil
				}
			}
			return nil, newOpError(name, "mismatched operands %T and %T", args[0], args[1])
		}).
		DefAbstractEval(func(in []trace.AbstractValue, _ trace.Params) ([]trace.AbstractValue, error) {
			if len(in) != 2 {
				return nil, newOpError(name, "expected 2 operands, got %d", len(in))
			}
			joined, err := trace.LatticeJoin(in[0], in[1])
			if err != nil {
				return nil, err
			}
			return []trace.AbstractValue{joined}, nil
		})
}

func unaryAbstract(name string) trace.AbstractRule {
	return func(in []trace.AbstractValue, _ trace.Params) ([]trace.AbstractValue, error) {
		if len(in) != 1 {
			return nil, newOpError(name, "expected 1 operand, got %d", len(in))
		}
		return []trace.AbstractValue{in[0]}, nil
	}
}

func arity(name string, args []trace.Value, want int) error {
	if len(args) != want {
		return newOpError(name, "expected %d operands, got %d", want, len(args))
	}
	return nil
}

var registry = map[string]*trace.Primitive{}

// Register adds a primitive to the name registry, replacing any
// previous entry with the same name.
func Register(p *trace.Primitive) {
	registry[p.Name()] = p
}

// Lookup resolves a primitive by name.
func Lookup(name string) (*trace.Primitive, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names lists the registered primitive names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, p := range []*trace.Primitive{
		Add, Sub, Mul, Div, Xor, Neg, Greater, RotL, DivMod, trace.Identity,
	} {
		Register(p)
	}
}
