package ir

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"sync/atomic"

	"github.com/tapirlang/tapir/internal/trace"
)

// Surrogate produces a stable hashing/equality key for a value whose
// type is not comparable. The second result reports whether a key could
// be derived for this particular value.
type Surrogate func(v any) (string, bool)

// surrogates maps value types that are "literal-able" despite not being
// comparable to their key derivation. Registration happens once at
// startup.
var surrogates = map[reflect.Type]Surrogate{}

// RegisterLiteralable registers a surrogate for the dynamic type of
// sample, allowing values of that type to be embedded as literals with
// by-value equality.
func RegisterLiteralable(sample any, fn Surrogate) {
	surrogates[reflect.TypeOf(sample)] = fn
}

var literalIdentSeq atomic.Uint64

// Literal wraps a constant for embedding directly in a graph instead of
// through a variable.
//
// Equality and hashing follow the wrapped value's natural equality when
// its type is comparable; for registered literal-able types a key is
// derived from the surrogate; otherwise both fall back to identity, so
// two distinct by-identity literals are never spuriously equal.
type Literal struct {
	val    any
	hash   uint64
	hashed bool
	key    string
	ident  uint64
}

func (*Literal) isAtom() {}

// NewLiteral wraps v as a literal.
func NewLiteral(v any) *Literal {
	l := &Literal{val: v}
	t := reflect.TypeOf(v)
	switch {
	case t != nil && t.Comparable():
		l.key = fmt.Sprintf("%v", v)
		l.hash = hashKey(t.String(), l.key)
		l.hashed = true
	case t != nil && surrogates[t] != nil:
		if key, ok := surrogates[t](v); ok {
			l.key = key
			l.hash = hashKey(t.String(), key)
			l.hashed = true
		}
	}
	if !l.hashed {
		l.ident = identityOf(v)
	}
	return l
}

// Value returns the wrapped constant.
func (l *Literal) Value() any { return l.val }

// Hash returns the literal's hash. Identity-hashed literals hash by a
// per-value token.
func (l *Literal) Hash() uint64 {
	if l.hashed {
		return l.hash
	}
	return l.ident
}

// Equal reports literal equality per the hashing discipline above.
func (l *Literal) Equal(o *Literal) bool {
	if l.hashed != o.hashed {
		return false
	}
	if !l.hashed {
		return l.ident == o.ident
	}
	if reflect.TypeOf(l.val) != reflect.TypeOf(o.val) {
		return false
	}
	if reflect.TypeOf(l.val).Comparable() {
		return l.val == o.val
	}
	return l.key == o.key
}

func (l *Literal) String() string {
	if t, ok := l.val.(trace.Unit); ok {
		return t.String()
	}
	return fmt.Sprintf("%v", l.val)
}

func hashKey(typeName, key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(typeName))
	h.Write([]byte{'|'})
	h.Write([]byte(key))
	return h.Sum64()
}

// identityOf derives an identity token: the underlying pointer for
// reference kinds, or a fresh unique token otherwise. Distinct values
// never share a token.
func identityOf(v any) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		// A reslice shares the backing-array pointer, so the token
		// must cover (pointer, length) or s and s[:1] would conflate.
		if p := rv.Pointer(); p != 0 {
			var buf [16]byte
			binary.LittleEndian.PutUint64(buf[:8], uint64(p))
			binary.LittleEndian.PutUint64(buf[8:], uint64(rv.Len()))
			h := fnv.New64a()
			h.Write(buf[:])
			return h.Sum64()
		}
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		if p := rv.Pointer(); p != 0 {
			return uint64(p)
		}
	}
	return literalIdentSeq.Add(1)
}
