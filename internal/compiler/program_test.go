package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapirlang/tapir/internal/ir"
	"github.com/tapirlang/tapir/internal/trace"
)

const addSrc = `
program: {
	name: "add"
	inputs: ["x", "y"]
	equations: [
		{op: "add", in: ["x", "y"], out: "sum"},
	]
	outputs: ["sum"]
}
`

func compile(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := CompileString(src, "test.cue")
	require.NoError(t, err)
	return prog
}

func compileErr(t *testing.T, src string) *CompileError {
	t.Helper()
	_, err := CompileString(src, "test.cue")
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "want *CompileError, got %T: %v", err, err)
	return ce
}

func TestCompileAdd(t *testing.T) {
	prog := compile(t, addSrc)

	assert.Equal(t, "add", prog.Name)
	assert.Equal(t, []string{"x", "y"}, prog.Inputs)
	assert.Empty(t, prog.Consts)

	require.NoError(t, ir.Check(prog.Prog))
	assert.Len(t, prog.Prog.InVars, 2)
	assert.Len(t, prog.Prog.Eqns, 1)
	assert.Equal(t, "add", prog.Prog.Eqns[0].Prim.Name())

	out, err := ir.Eval(trace.NewState(), prog.Prog, nil, nil,
		[]trace.Value{int64(2), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(5)}, out)
}

func TestCompileConstants(t *testing.T) {
	prog := compile(t, `
program: {
	constants: {scale: 10, offset: 1.5}
	inputs: ["x"]
	equations: [
		{op: "mul", in: ["x", "scale"], out: "y"},
	]
	outputs: ["y"]
}
`)

	assert.Equal(t, []trace.Value{int64(10), 1.5}, prog.Consts)
	assert.Len(t, prog.Prog.ConstVars, 2)

	out, err := ir.Eval(trace.NewState(), prog.Prog, prog.Consts, nil,
		[]trace.Value{int64(4)})
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(40)}, out)
}

func TestCompileLiteralOperands(t *testing.T) {
	prog := compile(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "add", in: ["x", 5], out: "y"},
	]
	outputs: ["y"]
}
`)

	lit, ok := prog.Prog.Eqns[0].In[1].(*ir.Literal)
	require.True(t, ok)
	assert.Equal(t, int64(5), lit.Value())
}

func TestCompileParams(t *testing.T) {
	prog := compile(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "rotl", in: ["x"], out: "y", params: {count: 8}},
	]
	outputs: ["y"]
}
`)

	assert.Equal(t, trace.Params{"count": int64(8)}, prog.Prog.Eqns[0].Params)

	out, err := ir.Eval(trace.NewState(), prog.Prog, nil, nil,
		[]trace.Value{uint32(0xAB)})
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{uint32(0xAB00)}, out)
}

func TestCompileStringParams(t *testing.T) {
	prog := compile(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"], out: "y", params: {label: "copy"}},
	]
	outputs: ["y"]
}
`)

	assert.Equal(t, "copy", prog.Prog.Eqns[0].Params["label"])
}

func TestCompileMultipleOutputs(t *testing.T) {
	prog := compile(t, `
program: {
	inputs: ["a", "b"]
	equations: [
		{op: "divmod", in: ["a", "b"], out: ["q", "r"]},
	]
	outputs: ["q", "r"]
}
`)

	out, err := ir.Eval(trace.NewState(), prog.Prog, nil, nil,
		[]trace.Value{int64(7), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(3), int64(1)}, out)
}

func TestCompileDiscardedOutput(t *testing.T) {
	prog := compile(t, `
program: {
	inputs: ["a", "b"]
	equations: [
		{op: "divmod", in: ["a", "b"], out: ["q", "_"]},
	]
	outputs: ["q"]
}
`)

	assert.Same(t, ir.UnitVar, prog.Prog.Eqns[0].Out[1])
	require.NoError(t, ir.Check(prog.Prog))
}

func TestCompileRejectsExtraOutNames(t *testing.T) {
	ce := compileErr(t, `
program: {
	inputs: ["a", "b"]
	equations: [
		{op: "add", in: ["a", "b"], out: ["q", "r"]},
	]
	outputs: ["q"]
}
`)

	assert.Equal(t, "out", ce.Field)
	assert.Contains(t, ce.Message, "single result")
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileUnknownOperation(t *testing.T) {
	ce := compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "frobnicate", in: ["x"], out: "y"},
	]
	outputs: ["y"]
}
`)

	assert.Equal(t, "op", ce.Field)
	assert.Contains(t, ce.Message, "frobnicate")
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileUndefinedName(t *testing.T) {
	ce := compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "add", in: ["x", "nope"], out: "y"},
	]
	outputs: ["y"]
}
`)

	assert.Equal(t, "in", ce.Field)
	assert.Contains(t, ce.Message, `"nope"`)
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileDuplicateDefinitions(t *testing.T) {
	ce := compileErr(t, `
program: {
	inputs: ["x", "x"]
	equations: [
		{op: "id", in: ["x"], out: "y"},
	]
	outputs: ["y"]
}
`)
	assert.Equal(t, "inputs", ce.Field)

	ce = compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"], out: "x"},
	]
	outputs: ["x"]
}
`)
	assert.Equal(t, "out", ce.Field)
	assert.Contains(t, ce.Message, "duplicate")
}

func TestCompileMissingSections(t *testing.T) {
	ce := compileErr(t, `other: 1`)
	assert.Equal(t, "program", ce.Field)

	ce = compileErr(t, `
program: {
	inputs: ["x"]
	outputs: ["x"]
}
`)
	assert.Equal(t, "equations", ce.Field)

	ce = compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"], out: "y"},
	]
}
`)
	assert.Equal(t, "outputs", ce.Field)
}

func TestCompileMissingEqnFields(t *testing.T) {
	ce := compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{in: ["x"], out: "y"},
	]
	outputs: ["y"]
}
`)
	assert.Contains(t, ce.Message, "op is required")

	ce = compileErr(t, `
program: {
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"]},
	]
	outputs: ["x"]
}
`)
	assert.Contains(t, ce.Message, "out is required")
}

func TestCompileRejectsNonScalarValue(t *testing.T) {
	ce := compileErr(t, `
program: {
	constants: {bad: [1, 2]}
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"], out: "y"},
	]
	outputs: ["y"]
}
`)
	assert.Contains(t, ce.Message, "unsupported value kind")
}

func TestCompileBadCUESyntax(t *testing.T) {
	_, err := CompileString(`program: {`, "broken.cue")
	require.Error(t, err)
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile("testdata/no-such-file.cue")
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "program", ce.Field)
}

func TestScalarValueBool(t *testing.T) {
	prog := compile(t, `
program: {
	constants: {flag: true}
	inputs: ["x"]
	equations: [
		{op: "id", in: ["x"], out: "y"},
	]
	outputs: ["y"]
}
`)
	assert.Equal(t, []trace.Value{true}, prog.Consts)
}
