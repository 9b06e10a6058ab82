package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapirlang/tapir/internal/trace"
)

func bind1(t *testing.T, p *trace.Primitive, params trace.Params, args ...trace.Value) trace.Value {
	t.Helper()
	out, err := p.Bind1(trace.NewState(), args, params)
	require.NoError(t, err)
	return out
}

func TestBinopsInt64(t *testing.T) {
	assert.Equal(t, int64(5), bind1(t, Add, nil, int64(2), int64(3)))
	assert.Equal(t, int64(-1), bind1(t, Sub, nil, int64(2), int64(3)))
	assert.Equal(t, int64(6), bind1(t, Mul, nil, int64(2), int64(3)))
	assert.Equal(t, int64(3), bind1(t, Div, nil, int64(7), int64(2)))
	assert.Equal(t, int64(6), bind1(t, Xor, nil, int64(5), int64(3)))
}

func TestBinopsFloat64(t *testing.T) {
	assert.Equal(t, 5.5, bind1(t, Add, nil, 2.5, 3.0))
	assert.Equal(t, 7.5, bind1(t, Mul, nil, 2.5, 3.0))
	assert.Equal(t, 3.5, bind1(t, Div, nil, 7.0, 2.0))
}

func TestBinopsUint32Wrap(t *testing.T) {
	assert.Equal(t, uint32(0), bind1(t, Add, nil, uint32(math.MaxUint32), uint32(1)))
	assert.Equal(t, uint32(math.MaxUint32), bind1(t, Sub, nil, uint32(0), uint32(1)))
}

func TestBinopMismatchedOperands(t *testing.T) {
	_, err := Add.Bind1(trace.NewState(), []trace.Value{int64(1), 2.0}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))
	assert.Contains(t, err.Error(), "mismatched operands")
}

func TestDivByZero(t *testing.T) {
	_, err := Div.Bind1(trace.NewState(), []trace.Value{int64(1), int64(0)}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))

	_, err = Div.Bind1(trace.NewState(), []trace.Value{uint32(1), uint32(0)}, nil)
	require.Error(t, err)

	// Floats follow IEEE semantics instead of failing.
	assert.True(t, math.IsInf(bind1(t, Div, nil, 1.0, 0.0).(float64), 1))
}

func TestXorFloatRejected(t *testing.T) {
	_, err := Xor.Bind1(trace.NewState(), []trace.Value{1.0, 2.0}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))
}

func TestNeg(t *testing.T) {
	assert.Equal(t, int64(-2), bind1(t, Neg, nil, int64(2)))
	assert.Equal(t, -2.5, bind1(t, Neg, nil, 2.5))

	_, err := Neg.Bind1(trace.NewState(), []trace.Value{true}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))
}

func TestGreater(t *testing.T) {
	assert.Equal(t, true, bind1(t, Greater, nil, int64(3), int64(2)))
	assert.Equal(t, false, bind1(t, Greater, nil, 2.0, 3.0))
	assert.Equal(t, false, bind1(t, Greater, nil, uint32(2), uint32(2)))
}

func TestRotL(t *testing.T) {
	assert.Equal(t, uint32(0xAB00), bind1(t, RotL, trace.Params{"count": int64(8)}, uint32(0xAB)))
	assert.Equal(t, uint32(1), bind1(t, RotL, trace.Params{"count": int64(32)}, uint32(1)))
}

func TestRotLMissingCount(t *testing.T) {
	_, err := RotL.Bind1(trace.NewState(), []trace.Value{uint32(1)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}

func TestRotLRejectsNonWord(t *testing.T) {
	_, err := RotL.Bind1(trace.NewState(), []trace.Value{int64(1)}, trace.Params{"count": int64(1)})
	require.Error(t, err)
	assert.True(t, IsOpError(err))
}

func TestDivMod(t *testing.T) {
	out, err := DivMod.Bind(trace.NewState(), []trace.Value{int64(7), int64(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(3), int64(1)}, out)

	out, err = DivMod.Bind(trace.NewState(), []trace.Value{int64(-7), int64(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(-3), int64(-1)}, out)
}

func TestDivModErrors(t *testing.T) {
	_, err := DivMod.Bind(trace.NewState(), []trace.Value{int64(1), int64(0)}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))

	_, err = DivMod.Bind(trace.NewState(), []trace.Value{uint32(1), uint32(2)}, nil)
	require.Error(t, err)
	assert.True(t, IsOpError(err))
}

func TestRegistry(t *testing.T) {
	p, ok := Lookup("add")
	require.True(t, ok)
	assert.Same(t, Add, p)

	_, ok = Lookup("no-such-op")
	assert.False(t, ok)

	names := Names()
	assert.Contains(t, names, "divmod")
	assert.Contains(t, names, "id")
	assert.IsIncreasing(t, names)
}

func TestBinopAbstractEval(t *testing.T) {
	out, err := Add.AbstractEval([]trace.AbstractValue{ScalarAval{Kind: Int64}, ScalarAval{Kind: Int64}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []trace.AbstractValue{ScalarAval{Kind: Int64}}, out)

	_, err = Add.AbstractEval([]trace.AbstractValue{ScalarAval{Kind: Int64}, ScalarAval{Kind: Float64}}, nil)
	require.Error(t, err)
	assert.True(t, trace.IsDispatchError(err))
}

func TestGreaterAbstractEvalYieldsBool(t *testing.T) {
	out, err := Greater.AbstractEval([]trace.AbstractValue{ScalarAval{Kind: Uint32}, ScalarAval{Kind: Uint32}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []trace.AbstractValue{ScalarAval{Kind: Bool}}, out)
}
