package value

import (
	"strconv"
	"strings"
)

// rank gives the fixed per-kind ordering used before within-kind
// comparison, matching the conventional Rego value ordering: null < bool <
// number < string < array < object < set.
func rank(v Value) int {
	switch v.(type) {
	case Null:
		return 0
	case Bool:
		return 1
	case Number:
		return 2
	case String:
		return 3
	case Array:
		return 4
	case *Object:
		return 5
	case *Set:
		return 6
	default:
		return 7
	}
}

// Compare gives a total order over values. +0.0 and -0.0 compare equal;
// NaN cannot arise by construction (Float rejects it) but is ordered
// deterministically (greater than every other number) so the order stays
// total if one is ever present from outside construction.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case Null:
		return 0
	case Bool:
		bv := b.(Bool)
		if av == bv {
			return 0
		}
		if !bool(av) {
			return -1
		}
		return 1
	case Number:
		return compareNumber(av, b.(Number))
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case Array:
		return compareArray(av, b.(Array))
	case *Object:
		return compareObject(av, b.(*Object))
	case *Set:
		return compareSet(av, b.(*Set))
	default:
		return 0
	}
}

func compareNumber(a, b Number) int {
	af, aok := numFloatForCompare(a)
	bf, bok := numFloatForCompare(b)
	if aok && bok {
		return compareFloat(af, bf)
	}
	// One side failed to parse as a float (malformed ref): fall back to
	// comparing the best textual representation so the order stays total.
	return strings.Compare(numDebugString(a), numDebugString(b))
}

func numFloatForCompare(n Number) (float64, bool) {
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func numDebugString(n Number) string {
	if n.IsRef() {
		return n.ref
	}
	f, _ := n.Float64()
	return formatFloat(f)
}

func compareFloat(a, b float64) int {
	// Treat +0.0/-0.0 as equal and order NaN deterministically (after all
	// other values) rather than relying on IEEE comparisons, which would
	// make NaN incomparable and break totality.
	aNaN, bNaN := a != a, b != b
	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareArray(a, b Array) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareObject(a, b *Object) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.entries[i].key, b.entries[i].key); c != 0 {
			return c
		}
		if c := Compare(a.entries[i].val, b.entries[i].val); c != 0 {
			return c
		}
	}
	return a.Len() - b.Len()
}

func compareSet(a, b *Set) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.items[i], b.items[i]); c != 0 {
			return c
		}
	}
	return a.Len() - b.Len()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
