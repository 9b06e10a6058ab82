// Package compiler turns a CUE program description into an ir.Prog.
//
// A program description is a CUE struct of this shape:
//
//	program: {
//		name: "doubler"
//		inputs: ["x"]
//		constants: { two: 2 }
//		equations: [
//			{ out: "y", op: "mul", in: ["x", "two"] },
//		]
//		outputs: ["y"]
//	}
//
// Equation operands reference earlier definitions by name or embed
// scalar literals directly. Operation names resolve through the kernel
// registry. The output variable name "_" discards a result.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess). Errors
// carry the CUE source position where available.
package compiler
