package builtin

import (
	"strings"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register1("upper", builtinUpper)
}

func builtinUpper(a value.Value) (value.Value, error) {
	s, ok := a.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", a.Kind().String())
	}
	return value.String(strings.ToUpper(string(s))), nil
}
