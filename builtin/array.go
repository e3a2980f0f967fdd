package builtin

import (
	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register2("array.concat", builtinArrayConcat)
	register3("array.slice", builtinArraySlice)
}

func builtinArrayConcat(a, b value.Value) (value.Value, error) {
	arrA, ok := a.(value.Array)
	if !ok {
		return nil, errs.InvalidType("array", a.Kind().String())
	}
	arrB, ok := b.(value.Array)
	if !ok {
		return nil, errs.InvalidType("array", b.Kind().String())
	}
	out := make(value.Array, 0, len(arrA)+len(arrB))
	out = append(out, arrA...)
	out = append(out, arrB...)
	return out, nil
}

// builtinArraySlice clamps start/end into [0, len]: if start >= end or
// both are negative, the result is empty.
func builtinArraySlice(a, startV, endV value.Value) (value.Value, error) {
	arr, ok := a.(value.Array)
	if !ok {
		return nil, errs.InvalidType("array", a.Kind().String())
	}
	startN, ok := startV.(value.Number)
	if !ok {
		return nil, errs.InvalidType("number", startV.Kind().String())
	}
	endN, ok := endV.(value.Number)
	if !ok {
		return nil, errs.InvalidType("number", endV.Kind().String())
	}
	start, err := startN.Int64()
	if err != nil {
		return nil, err
	}
	end, err := endN.Int64()
	if err != nil {
		return nil, err
	}

	n := int64(len(arr))
	if start >= end || (start < 0 && end < 0) {
		return value.Array{}, nil
	}
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if start >= end {
		return value.Array{}, nil
	}
	out := make(value.Array, end-start)
	copy(out, arr[start:end])
	return out, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
