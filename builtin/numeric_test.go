package builtin

import (
	"testing"

	"github.com/wippyai/policyvm/value"
)

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	n, ok := v.(value.Number)
	if !ok {
		t.Fatalf("expected number, got %T", v)
	}
	i, err := n.Int64()
	if err != nil {
		t.Fatalf("Int64: %v", err)
	}
	return i
}

func mustFloatT(t *testing.T, v value.Value) float64 {
	t.Helper()
	n, ok := v.(value.Number)
	if !ok {
		t.Fatalf("expected number, got %T", v)
	}
	f, err := n.Float64()
	if err != nil {
		t.Fatalf("Float64: %v", err)
	}
	return f
}

// TestArithmeticLattice checks the result-kind lattice: (int,int) ->
// int, (int,float)/(float,float) -> float, (set,set) only for minus.
func TestArithmeticLattice(t *testing.T) {
	r, err := builtinPlus(value.Int(2), value.Int(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(value.Number); !ok || !r.(value.Number).IsIntRepr() {
		t.Fatalf("int+int should stay int repr, got %#v", r)
	}
	if got := mustInt(t, r); got != 5 {
		t.Fatalf("2+3 = %d, want 5", got)
	}

	f3, _ := value.Float(3.0)
	r2, err := builtinPlus(value.Int(2), f3)
	if err != nil {
		t.Fatal(err)
	}
	if r2.(value.Number).IsIntRepr() {
		t.Fatalf("int+float should convert to float")
	}
	if got := mustFloatT(t, r2); got != 5.0 {
		t.Fatalf("2+3.0 = %v, want 5.0", got)
	}

	sa := value.NewSet()
	sa.Add(value.Int(1))
	sb := value.NewSet()
	r3, err := builtinMinus(sa, sb)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r3.(*value.Set); !ok {
		t.Fatalf("set minus set should yield a set, got %T", r3)
	}

	if _, err := builtinPlus(sa, value.Int(1)); err == nil {
		t.Fatal("expected InvalidType mixing a set into plus")
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := builtinDiv(value.Int(1), value.Int(0)); err == nil {
		t.Fatal("expected error dividing by zero")
	}
	f0, _ := value.Float(0)
	if _, err := builtinDiv(value.Int(1), f0); err == nil {
		t.Fatal("expected error for float division by zero")
	}
}

func TestSetDifferenceMinus(t *testing.T) {
	a := value.NewSet()
	a.Add(value.Int(1))
	a.Add(value.Int(2))
	a.Add(value.Int(3))
	b := value.NewSet()
	b.Add(value.Int(2))
	b.Add(value.Int(3))

	r, err := builtinMinus(a, b)
	if err != nil {
		t.Fatal(err)
	}
	diff := r.(*value.Set)
	if diff.Len() != 1 || !diff.Contains(value.Int(1)) {
		t.Fatalf("expected {1}, got %#v", diff.Items())
	}
}
