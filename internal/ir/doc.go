// Package ir provides the equation-graph representation of a traced
// program: single static assignment (SSA) form, one equation per
// primitive application.
//
// The package builds directly on internal/trace and contains the graph
// types (Var, Literal, Eqn, Prog, TypedProg), the arena-based id
// allocator, the reference interpreter (Eval), the structural validator
// (Check), and the diagnostic renderer (Render).
//
// Key design constraints:
//   - SSA: no variable is written twice anywhere in a graph.
//   - Variable and equation identities are monotonically increasing
//     integers allocated by an Arena per graph construction, never
//     object identity.
//   - Four disjoint variable groups bind a graph's environment:
//     constants, free variables, inputs, and the implicit unit
//     variable. Outputs are references read after all equations run.
//   - Render output is for diagnostics only; it is not a stable or
//     machine-parsable format.
package ir
