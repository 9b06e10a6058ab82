package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullLowerConcretePassthrough(t *testing.T) {
	assert.Equal(t, int64(4), FullLower(int64(4)))
}

func TestFullLowerStripsTransparentWrappers(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		tr := m.At(st.CurSublevel())
		x, err := tr.Pure(int64(9))
		require.NoError(t, err)
		y, err := tr.Pure(x)
		require.NoError(t, err)

		assert.Equal(t, int64(9), FullLower(y))
		return nil
	})
	require.NoError(t, err)
}

func TestFullLowerKeepsOpaqueWrapper(t *testing.T) {
	st := NewState()
	k := &testKind{name: "opaque", st: st, opaque: true}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		tr := m.At(st.CurSublevel())
		x, err := tr.Pure(int64(9))
		require.NoError(t, err)

		lowered := FullLower(x)
		assert.Same(t, x, lowered)
		// Idempotence: lowering the result again changes nothing.
		assert.Same(t, lowered, FullLower(lowered))
		return nil
	})
	require.NoError(t, err)
}

func TestFullRaiseWrapsConcrete(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		tr := m.At(st.CurSublevel())
		out, err := FullRaise(tr, int64(3))
		require.NoError(t, err)
		assert.Same(t, tr, out.Trace())
		assert.Equal(t, int64(3), FullLower(out))
		return nil
	})
	require.NoError(t, err)
}

func TestFullRaiseRejectsUnregisteredConcrete(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		tr := m.At(st.CurSublevel())
		_, err := FullRaise(tr, struct{ x int }{1})
		require.Error(t, err)
		assert.True(t, IsDispatchError(err))
		return nil
	})
	require.NoError(t, err)
}

func TestFullRaiseSameActivationSameSublevel(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		tr := m.At(st.CurSublevel())
		x, err := tr.Pure(int64(1))
		require.NoError(t, err)

		out, err := FullRaise(tr, x)
		require.NoError(t, err)
		assert.Same(t, x, out)
		return nil
	})
	require.NoError(t, err)
}

func TestFullRaiseSubliftsOlderSublevel(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		outerTr := m.At(st.CurSublevel())
		x, err := outerTr.Pure(int64(5))
		require.NoError(t, err)

		return st.WithSublevel(func() error {
			innerTr := m.At(st.CurSublevel())
			out, err := FullRaise(innerTr, x)
			require.NoError(t, err)
			assert.NotSame(t, x, out)
			assert.Equal(t, 1, out.Trace().Sublevel().Depth())
			assert.Equal(t, int64(5), FullLower(out))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestFullRaiseRejectsNewerSublevel(t *testing.T) {
	st := NewState()
	k := &testKind{name: "echo", st: st}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		outerTr := m.At(st.CurSublevel())

		var escaped Tracer
		err := st.WithSublevel(func() error {
			innerTr := m.At(st.CurSublevel())
			x, err := innerTr.Pure(int64(5))
			require.NoError(t, err)
			escaped = x
			return nil
		})
		require.NoError(t, err)

		_, err = FullRaise(outerTr, escaped)
		require.Error(t, err)
		assert.True(t, IsLiftError(err))
		var te *Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, ErrCodeSublevelOrder, te.Code)
		return nil
	})
	require.NoError(t, err)
}

func TestFullRaiseLiftsLowerLevel(t *testing.T) {
	st := NewState()
	lo := &testKind{name: "lo", st: st}
	hi := &testKind{name: "hi", st: st}

	err := st.WithMaster(lo.kind(), false, func(ml *MasterTrace) error {
		return st.WithMaster(hi.kind(), false, func(mh *MasterTrace) error {
			loTr := ml.At(st.CurSublevel())
			hiTr := mh.At(st.CurSublevel())
			x, err := loTr.Pure(int64(2))
			require.NoError(t, err)

			out, err := FullRaise(hiTr, x)
			require.NoError(t, err)
			assert.Same(t, mh, out.Trace().Master())
			return nil
		})
	})
	require.NoError(t, err)
}

func TestFullRaiseRejectsHigherLevelTracer(t *testing.T) {
	st := NewState()
	lo := &testKind{name: "lo", st: st}
	hi := &testKind{name: "hi", st: st}

	err := st.WithMaster(lo.kind(), false, func(ml *MasterTrace) error {
		return st.WithMaster(hi.kind(), false, func(mh *MasterTrace) error {
			loTr := ml.At(st.CurSublevel())
			hiTr := mh.At(st.CurSublevel())
			x, err := hiTr.Pure(int64(2))
			require.NoError(t, err)

			_, err = FullRaise(loTr, x)
			require.Error(t, err)
			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, ErrCodeLiftIncompatible, te.Code)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestFullRaiseRejectsForeignState(t *testing.T) {
	st := NewState()
	other := NewState()
	k := &testKind{name: "echo", st: st}
	ko := &testKind{name: "echo", st: other}

	err := st.WithMaster(k.kind(), false, func(m *MasterTrace) error {
		return other.WithMaster(ko.kind(), false, func(mo *MasterTrace) error {
			foreign, err := mo.At(other.CurSublevel()).Pure(int64(1))
			require.NoError(t, err)

			_, err = FullRaise(m.At(st.CurSublevel()), foreign)
			require.Error(t, err)
			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, ErrCodeForeignTracer, te.Code)
			return nil
		})
	})
	require.NoError(t, err)
}
