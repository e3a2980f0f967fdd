package builtin

import (
	"testing"

	"github.com/wippyai/policyvm/value"
)

func TestCountOverCollections(t *testing.T) {
	arr := value.Array{value.Int(10), value.Int(20), value.Int(30)}
	if got := mustInt(t, mustCall1(t, builtinCount, arr)); got != 3 {
		t.Fatalf("count(array) = %d, want 3", got)
	}

	s := value.NewSet()
	s.Add(value.Int(1))
	s.Add(value.Int(2))
	if got := mustInt(t, mustCall1(t, builtinCount, s)); got != 2 {
		t.Fatalf("count(set) = %d, want 2", got)
	}

	if got := mustInt(t, mustCall1(t, builtinCount, value.String("héllo"))); got != 5 {
		t.Fatalf("count(string) = %d, want 5 runes", got)
	}
}

func TestSumAndProductLattice(t *testing.T) {
	ints := value.Array{value.Int(1), value.Int(2), value.Int(3)}
	r := mustCall1(t, builtinSum, ints)
	if !r.(value.Number).IsIntRepr() {
		t.Fatal("sum over integers should stay integer")
	}
	if got := mustInt(t, r); got != 6 {
		t.Fatalf("sum = %d, want 6", got)
	}

	half, _ := value.Float(0.5)
	mixed := value.Array{value.Int(1), half}
	r2 := mustCall1(t, builtinSum, mixed)
	if r2.(value.Number).IsIntRepr() {
		t.Fatal("sum over mixed int/float should convert to float")
	}
	if got := mustFloatT(t, r2); got != 1.5 {
		t.Fatalf("sum = %v, want 1.5", got)
	}

	if got := mustInt(t, mustCall1(t, builtinProduct, ints)); got != 6 {
		t.Fatalf("product = %d, want 6", got)
	}
}

func TestMinMaxAndSort(t *testing.T) {
	arr := value.Array{value.Int(3), value.Int(1), value.Int(2)}
	if got := mustInt(t, mustCall1(t, builtinMin, arr)); got != 1 {
		t.Fatalf("min = %d, want 1", got)
	}
	if got := mustInt(t, mustCall1(t, builtinMax, arr)); got != 3 {
		t.Fatalf("max = %d, want 3", got)
	}

	sorted := mustCall1(t, builtinSort, arr).(value.Array)
	for i, want := range []int64{1, 2, 3} {
		if got := mustInt(t, sorted[i]); got != want {
			t.Fatalf("sort[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestMinEmptyCollection(t *testing.T) {
	r := mustCall1(t, builtinMin, value.Array{})
	if _, ok := r.(value.Null); !ok {
		t.Fatalf("min of empty collection = %#v, want null", r)
	}
}

func TestAllAny(t *testing.T) {
	allTrue := value.Array{value.Bool(true), value.Bool(true)}
	someFalse := value.Array{value.Bool(true), value.Bool(false)}

	if !bool(mustCall1(t, builtinAll, allTrue).(value.Bool)) {
		t.Fatal("all([true, true]) should be true")
	}
	if bool(mustCall1(t, builtinAll, someFalse).(value.Bool)) {
		t.Fatal("all([true, false]) should be false")
	}
	if !bool(mustCall1(t, builtinAny, someFalse).(value.Bool)) {
		t.Fatal("any([true, false]) should be true")
	}
	if bool(mustCall1(t, builtinAny, value.Array{}).(value.Bool)) {
		t.Fatal("any([]) should be false")
	}
}

func TestAggregateRejectsScalars(t *testing.T) {
	if _, err := builtinSum(value.Int(1)); err == nil {
		t.Fatal("expected InvalidType for sum over a scalar")
	}
}

func mustCall1(t *testing.T, fn Fn1, arg value.Value) value.Value {
	t.Helper()
	r, err := fn(arg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}
