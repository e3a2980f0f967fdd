package builtin

import (
	"testing"

	"github.com/wippyai/policyvm/value"
)

// TestArraySliceClamping checks out-of-range start/end indices clamp
// instead of panicking or erroring.
func TestArraySliceClamping(t *testing.T) {
	abc := value.Array{value.String("a"), value.String("b"), value.String("c")}

	cases := []struct {
		name        string
		start, end  int64
		wantStrings []string
	}{
		{"negative-start-clamps", -1, 2, []string{"a", "b"}},
		{"start-equals-end", 2, 2, nil},
		{"both-negative", -2, -1, nil},
		{"end-beyond-length-clamps", 1, 100, []string{"b", "c"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := builtinArraySlice(abc, value.Int(c.start), value.Int(c.end))
			if err != nil {
				t.Fatal(err)
			}
			arr, ok := r.(value.Array)
			if !ok {
				t.Fatalf("expected Array, got %T", r)
			}
			if len(arr) != len(c.wantStrings) {
				t.Fatalf("slice(%d,%d) = %v, want len %d", c.start, c.end, arr, len(c.wantStrings))
			}
			for i, want := range c.wantStrings {
				if string(arr[i].(value.String)) != want {
					t.Fatalf("slice(%d,%d)[%d] = %v, want %s", c.start, c.end, i, arr[i], want)
				}
			}
		})
	}
}

func TestArrayConcat(t *testing.T) {
	a := value.Array{value.Int(1), value.Int(2)}
	b := value.Array{value.Int(3)}
	r, err := builtinArrayConcat(a, b)
	if err != nil {
		t.Fatal(err)
	}
	arr := r.(value.Array)
	if len(arr) != 3 {
		t.Fatalf("concat length = %d, want 3", len(arr))
	}
}
