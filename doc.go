// Package policyvm hosts a compiled Rego-to-wasm policy module and
// evaluates it against host-supplied input and data documents.
//
// The public entry point is package policy. Supporting packages:
//
//	value    - the dynamically-typed tagged value model (null/bool/number/string/array/object/set)
//	internal/heap - the binary layout of value nodes inside guest linear memory
//	wasmvm   - instantiates the compiled module and exposes its ABI as typed Go calls
//	codec    - translates between arbitrary Go values and heap nodes
//	builtin  - the built-in function registry invoked by the guest during evaluation
//	errs     - the structured error taxonomy returned by every exported operation
package policyvm
