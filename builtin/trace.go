package builtin

import (
	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/internal/log"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register1("trace", builtinTrace)
}

func builtinTrace(a value.Value) (value.Value, error) {
	s, ok := a.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", a.Kind().String())
	}
	log.Default().Debug(string(s))
	return value.Bool(true), nil
}
