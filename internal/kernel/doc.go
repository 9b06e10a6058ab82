// Package kernel provides the built-in scalar operation set: the
// concrete value types (signed and floating-point numbers, unsigned
// words, booleans), their abstract descriptions, the arithmetic and
// bitwise primitives over them, and a counter-based pseudo-random
// layer built from those primitives.
//
// ARCHITECTURE
//
// The package sits directly above trace and below ir. It registers its
// value types with the trace registry at init time and exposes its
// primitives both as package variables and through a name registry so
// frontends can resolve operations from source text.
//
// Every operation is defined by a concrete rule plus an abstract rule,
// so the same primitive serves plain evaluation and staged
// interpretation. The random layer composes primitives through Bind,
// which means key derivation is itself traceable.
package kernel
