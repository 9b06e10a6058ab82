package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapirlang/tapir/internal/trace"
)

func TestParseScalar(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want trace.Value
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1.5", 1.5},
		{"true", true},
		{"false", false},
		{"u32:7", uint32(7)},
		{"u32:0xAB", uint32(0xAB)},
	} {
		got, err := parseScalar(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestParseScalarInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "u32:-1", "u32:zzz", "1.5.5"} {
		_, err := parseScalar(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestBindInputsOrder(t *testing.T) {
	args, err := bindInputs([]string{"x", "y"}, []string{"y=3", "x=2"})
	require.NoError(t, err)
	assert.Equal(t, []trace.Value{int64(2), int64(3)}, args)
}

func TestBindInputsErrors(t *testing.T) {
	_, err := bindInputs([]string{"x"}, []string{"x"})
	assert.ErrorContains(t, err, "name=value")

	_, err = bindInputs([]string{"x"}, nil)
	assert.ErrorContains(t, err, `no value for input "x"`)

	_, err = bindInputs([]string{"x"}, []string{"x=1", "z=2"})
	assert.ErrorContains(t, err, `unknown input "z"`)

	_, err = bindInputs([]string{"x"}, []string{"x=wat"})
	assert.ErrorContains(t, err, "invalid scalar")
}
