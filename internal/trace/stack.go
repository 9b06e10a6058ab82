package trace

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sublevel distinguishes multiple independent traces of the same
// transformation type within one level. Sublevels are compared by
// depth; the pointer identity exists so the debug leak check can
// account tracers against the exact sublevel activation that made them.
type Sublevel struct {
	depth int
	leak  *leakSet
}

// Depth returns the sublevel's position in the sublevel stack.
func (s *Sublevel) Depth() int { return s.depth }

func (s *Sublevel) String() string { return fmt.Sprintf("sublevel %d", s.depth) }

// TraceKind identifies a transformation type and knows how to build a
// fresh Trace instance bound to a master activation and a sublevel.
type TraceKind struct {
	Name string
	New  func(*MasterTrace, *Sublevel) Trace
}

// MasterTrace is one interpreter activation: a fixed level assigned at
// push time plus the transformation kind active there. Trace instances
// at different sublevels of the same activation all share one master;
// "same activation" throughout the lifting protocol means pointer
// equality of masters.
type MasterTrace struct {
	level int
	kind  TraceKind
	id    string
	state *State
	leak  *leakSet
}

// Level returns the activation's stack level.
func (m *MasterTrace) Level() int { return m.level }

// KindName returns the transformation kind's name.
func (m *MasterTrace) KindName() string { return m.kind.Name }

// ID returns a short unique identifier for diagnostics.
func (m *MasterTrace) ID() string { return m.id }

// At builds a fresh Trace instance for this activation at the given
// sublevel. Dispatch always processes through a fresh instance rather
// than a cached one; master identity, not instance identity, defines
// the activation.
func (m *MasterTrace) At(sub *Sublevel) Trace {
	return m.kind.New(m, sub)
}

func (m *MasterTrace) String() string {
	return fmt.Sprintf("MasterTrace(level=%d, kind=%s, id=%s)", m.level, m.kind.Name, m.id)
}

// TraceStack holds the active master activations. Two sub-stacks allow
// insertion both above (upward) and below (downward) existing
// activations; downward levels are negative.
type TraceStack struct {
	upward   []*MasterTrace
	downward []*MasterTrace
}

// NextLevel returns the level the next pushed activation would get.
func (ts *TraceStack) NextLevel(bottom bool) int {
	if bottom {
		return -(len(ts.downward) + 1)
	}
	return len(ts.upward)
}

func (ts *TraceStack) push(m *MasterTrace, bottom bool) {
	if bottom {
		ts.downward = append(ts.downward, m)
	} else {
		ts.upward = append(ts.upward, m)
	}
}

func (ts *TraceStack) pop(bottom bool) {
	if bottom {
		ts.downward = ts.downward[:len(ts.downward)-1]
	} else {
		ts.upward = ts.upward[:len(ts.upward)-1]
	}
}

func (ts *TraceStack) String() string {
	var b strings.Builder
	b.WriteString("trace stack\n")
	for i := len(ts.upward) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "  %s\n", ts.upward[i])
	}
	b.WriteString("  ---\n")
	for _, m := range ts.downward {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	return b.String()
}

// State is the per-execution-context trace state: the activation stack
// and the sublevel stack. A State is owned by exactly one goroutine
// and threaded explicitly through every dispatching call; it is never
// shared, and tracers must not cross between States.
type State struct {
	stack     TraceStack
	substack  []*Sublevel
	leakCheck bool
}

// NewState creates an empty trace state with the base sublevel active.
func NewState() *State {
	return &State{substack: []*Sublevel{{depth: 0}}}
}

// CurSublevel returns the innermost active sublevel.
func (s *State) CurSublevel() *Sublevel {
	return s.substack[len(s.substack)-1]
}

// SetLeakCheck enables or disables the debug leak check for
// activations and sublevels pushed after the call. Intended for tests
// and debugging only; the check is diagnostic, not a production
// invariant.
func (s *State) SetLeakCheck(on bool) { s.leakCheck = on }

// NextLevel returns the level the next activation would receive.
func (s *State) NextLevel(bottom bool) int { return s.stack.NextLevel(bottom) }

// WithMaster pushes a fresh activation of kind for the duration of fn,
// popping it on every exit path. When bottom is true the activation is
// inserted below all existing ones (negative level). With the leak
// check enabled, a tracer still registered against the activation at
// pop time turns into a TRACE_LEAK error unless fn already failed.
func (s *State) WithMaster(kind TraceKind, bottom bool, fn func(*MasterTrace) error) (err error) {
	m := &MasterTrace{
		level: s.stack.NextLevel(bottom),
		kind:  kind,
		id:    uuid.NewString()[:8],
		state: s,
	}
	if s.leakCheck {
		m.leak = newLeakSet()
	}
	s.stack.push(m, bottom)
	defer func() {
		s.stack.pop(bottom)
		if m.leak != nil && err == nil {
			err = m.leak.check(m.String())
		}
	}()
	return fn(m)
}

// WithSublevel pushes a fresh sublevel for the duration of fn, popping
// it on every exit path. The leak check treats sublevels like
// activations: a tracer registered against a popped sublevel is a
// defect.
func (s *State) WithSublevel(fn func() error) (err error) {
	sub := &Sublevel{depth: len(s.substack)}
	if s.leakCheck {
		sub.leak = newLeakSet()
	}
	s.substack = append(s.substack, sub)
	defer func() {
		s.substack = s.substack[:len(s.substack)-1]
		if sub.leak != nil && err == nil {
			err = sub.leak.check(sub.String())
		}
	}()
	return fn()
}

// leakSet is the debug-only tracer accounting for one activation or
// sublevel: tracers are registered as they flow through dispatch and
// released when retired (lowered away or explicitly consumed). Anything
// still registered when the scope pops has escaped.
type leakSet struct {
	live map[Tracer]struct{}
}

func newLeakSet() *leakSet {
	return &leakSet{live: map[Tracer]struct{}{}}
}

func (l *leakSet) retain(t Tracer) { l.live[t] = struct{}{} }

func (l *leakSet) release(t Tracer) { delete(l.live, t) }

func (l *leakSet) check(scope string) error {
	if len(l.live) == 0 {
		return nil
	}
	return newLeakError(scope, len(l.live))
}

// observeTracer registers t for leak accounting when its owning
// activation or sublevel has the check enabled.
func observeTracer(t Tracer) {
	tr := t.Trace()
	if m := tr.Master(); m.leak != nil {
		m.leak.retain(t)
	}
	if sub := tr.Sublevel(); sub.leak != nil {
		sub.leak.retain(t)
	}
}

// Retire marks a tracer as consumed for leak accounting. FullLower
// retires the wrappers it strips; transformations that unpack their
// tracers directly (reading a final result out of a wrapper) call this
// themselves. A no-op when the leak check is off.
func Retire(t Tracer) {
	tr := t.Trace()
	if m := tr.Master(); m.leak != nil {
		m.leak.release(t)
	}
	if sub := tr.Sublevel(); sub.leak != nil {
		sub.leak.release(t)
	}
}
