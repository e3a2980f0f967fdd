// Package builtin holds the static table of host-resident functions a
// compiled policy can call by name and arity. Each
// function takes its decoded value.Value arguments and returns a
// value.Value result or a structured error; the dispatcher in the
// policy package owns the address/id plumbing around these calls.
package builtin

import "github.com/wippyai/policyvm/value"

// Fn0..Fn4 are the five arities a built-in can be registered under.
type (
	Fn0 func() (value.Value, error)
	Fn1 func(value.Value) (value.Value, error)
	Fn2 func(value.Value, value.Value) (value.Value, error)
	Fn3 func(value.Value, value.Value, value.Value) (value.Value, error)
	Fn4 func(value.Value, value.Value, value.Value, value.Value) (value.Value, error)
)

// Arity0..Arity4 are the known-set tables, keyed by built-in name. They
// are populated by init() functions across this package's files, one
// family per file.
var (
	Arity0 = map[string]Fn0{}
	Arity1 = map[string]Fn1{}
	Arity2 = map[string]Fn2{}
	Arity3 = map[string]Fn3{}
	Arity4 = map[string]Fn4{}
)

func register0(name string, fn Fn0) { Arity0[name] = fn }
func register1(name string, fn Fn1) { Arity1[name] = fn }
func register2(name string, fn Fn2) { Arity2[name] = fn }
func register3(name string, fn Fn3) { Arity3[name] = fn }
func register4(name string, fn Fn4) { Arity4[name] = fn }

// Known reports whether name is registered under any arity, the test
// the dispatcher runs against the guest's builtins() table at init.
func Known(name string) bool {
	if _, ok := Arity0[name]; ok {
		return true
	}
	if _, ok := Arity1[name]; ok {
		return true
	}
	if _, ok := Arity2[name]; ok {
		return true
	}
	if _, ok := Arity3[name]; ok {
		return true
	}
	if _, ok := Arity4[name]; ok {
		return true
	}
	return false
}
