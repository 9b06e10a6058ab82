// Package harness runs YAML-defined evaluation scenarios: compile a
// CUE program description, validate the graph, evaluate it on the
// scenario's inputs, and check the expected outputs or expected
// failure. Golden snapshots pin the rendered graph and the results.
package harness
