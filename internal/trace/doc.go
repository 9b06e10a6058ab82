// Package trace implements the nested-interpreter machinery at the heart
// of tapir: primitive dispatch, the abstract value lattice, and the
// trace/tracer/level system that lets program transformations stack
// without knowing about each other.
//
// This package is the foundational layer. It imports nothing internal;
// internal/ir builds the equation-graph representation on top of it.
//
// ARCHITECTURE:
//
// Explicit Trace State:
// All trace-stack state lives in a State value owned by the caller and
// threaded explicitly through every dispatching call. There are no
// globals and no thread-local stacks. One State belongs to exactly one
// goroutine; tracers minted under one State are rejected if they show
// up in a dispatch under another.
//
// Dispatch Flow:
//  1. Primitive.Bind receives a mix of concrete values and tracers.
//  2. The topmost interpreter level among the tracer operands wins.
//     No tracers means no active interpreter: the concrete rule runs.
//  3. Every operand is raised to the winning trace (FullRaise), the
//     trace's ProcessPrimitive rule runs, and each result is lowered
//     again (FullLower) so wrappers that carry no information vanish.
//
// Level Discipline:
// Every trace activation has a fixed level assigned at push time and a
// current sublevel. FullRaise enforces a total order over
// (level, sublevel): values always move upward, never down, and a value
// surfacing from a deeper nesting than its target is a defect, not a
// recoverable condition.
//
// Activations and sublevels are scoped resources: State.WithMaster and
// State.WithSublevel pop on every exit path. An optional debug leak
// check verifies that no tracer minted under an activation is still
// registered when the activation pops.
package trace
