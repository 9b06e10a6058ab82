package kernel

import (
	"github.com/tapirlang/tapir/internal/trace"
)

// Threefry-2x32 (Random123), 20 rounds. The block function is written
// entirely in terms of primitive dispatch, so key derivation under an
// active trace stages the hash instead of computing it.

var threefryRotations = [2][4]int64{
	{13, 15, 26, 6},
	{17, 29, 16, 24},
}

const threefryParity = uint32(0x1BD11BDA)

// binder applies primitives with a sticky error, keeping the round
// schedule readable.
type binder struct {
	st  *trace.State
	err error
}

func (b *binder) apply(p *trace.Primitive, params trace.Params, args ...trace.Value) trace.Value {
	if b.err != nil {
		return uint32(0)
	}
	out, err := p.Bind1(b.st, args, params)
	if err != nil {
		b.err = err
		return uint32(0)
	}
	return out
}

func (b *binder) add(x, y trace.Value) trace.Value { return b.apply(Add, nil, x, y) }
func (b *binder) xor(x, y trace.Value) trace.Value { return b.apply(Xor, nil, x, y) }

func (b *binder) rotl(x trace.Value, c int64) trace.Value {
	return b.apply(RotL, trace.Params{"count": c}, x)
}

// Threefry2x32 hashes the counter words (x0, x1) under the key words
// (k0, k1). All four operands may be concrete unsigned words or
// tracers.
func Threefry2x32(st *trace.State, k0, k1, x0, x1 trace.Value) (trace.Value, trace.Value, error) {
	b := &binder{st: st}

	ks := [3]trace.Value{k0, k1, b.xor(b.xor(k0, k1), threefryParity)}
	x0 = b.add(x0, ks[0])
	x1 = b.add(x1, ks[1])

	for i := 0; i < 5; i++ {
		for _, r := range threefryRotations[i%2] {
			x0 = b.add(x0, x1)
			x1 = b.rotl(x1, r)
			x1 = b.xor(x1, x0)
		}
		x0 = b.add(x0, ks[(i+1)%3])
		x1 = b.add(b.add(x1, ks[(i+2)%3]), uint32(i+1))
	}
	if b.err != nil {
		return nil, nil, b.err
	}
	return x0, x1, nil
}

// Key is a 64-bit pseudo-random key: two unsigned words fed to the
// block function as the key pair.
type Key struct {
	Hi uint32
	Lo uint32
}

// NewKey derives a key from a seed.
func NewKey(seed uint64) Key {
	return Key{Hi: uint32(seed >> 32), Lo: uint32(seed)}
}

// Split derives n statistically independent keys from key. The parent
// key is consumed: reusing it alongside the children correlates
// streams.
func Split(st *trace.State, key Key, n int) ([]Key, error) {
	keys := make([]Key, n)
	for i := range keys {
		hi, lo, err := block(st, key, uint32(2*i), uint32(2*i+1))
		if err != nil {
			return nil, err
		}
		keys[i] = Key{Hi: hi, Lo: lo}
	}
	return keys, nil
}

// FoldIn derives a new key from key and a static datum, for weaving
// loop indices or identifiers into a stream without splitting.
func FoldIn(st *trace.State, key Key, data uint64) (Key, error) {
	hi, lo, err := block(st, key, uint32(data>>32), uint32(data))
	if err != nil {
		return Key{}, err
	}
	return Key{Hi: hi, Lo: lo}, nil
}

// RandomBits32 produces the counter-th pair of uniform words in the
// key's stream.
func RandomBits32(st *trace.State, key Key, counter uint32) (uint32, uint32, error) {
	return block(st, key, 0, counter)
}

// Uniform produces a float64 uniform on [0, 1): 53 mantissa bits taken
// from one block output.
func Uniform(st *trace.State, key Key, counter uint32) (float64, error) {
	hi, lo, err := block(st, key, 0, counter)
	if err != nil {
		return 0, err
	}
	bits64 := uint64(hi)<<32 | uint64(lo)
	return float64(bits64>>11) * (1.0 / (1 << 53)), nil
}

func block(st *trace.State, key Key, x0, x1 uint32) (uint32, uint32, error) {
	o0, o1, err := Threefry2x32(st, key.Hi, key.Lo, x0, x1)
	if err != nil {
		return 0, 0, err
	}
	h, hok := o0.(uint32)
	l, lok := o1.(uint32)
	if !hok || !lok {
		return 0, 0, newOpError("random", "key derivation under an active trace yields tracers, not words")
	}
	return h, l, nil
}
