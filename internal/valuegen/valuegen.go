// Package valuegen produces pseudo-random value.Value trees for
// round-trip tests.
package valuegen

import (
	"math/rand"

	"github.com/wippyai/policyvm/value"
)

// Generate produces a pseudo-random Value tree, capped in depth and total
// node count: composites (array, object, set) are grown up to 9
// children, recursion stops at 8 levels or 256 total nodes.
func Generate(r *rand.Rand) value.Value {
	budget := 256
	return generate(r, 8, &budget)
}

func generate(r *rand.Rand, depth int, budget *int) value.Value {
	*budget--
	if depth <= 0 || *budget <= 0 {
		return generateLeaf(r)
	}
	switch r.Intn(7) {
	case 0:
		return generateLeaf(r)
	case 1:
		return value.Null{}
	case 2:
		return value.Bool(r.Intn(2) == 0)
	case 3:
		n := r.Intn(10)
		arr := make(value.Array, n)
		for i := range arr {
			arr[i] = generate(r, depth-1, budget)
		}
		return arr
	case 4:
		n := r.Intn(10)
		obj := value.NewObject()
		for i := 0; i < n; i++ {
			obj.Set(value.String(randKey(r, i)), generate(r, depth-1, budget))
		}
		return obj
	case 5:
		n := r.Intn(10)
		s := value.NewSet()
		for i := 0; i < n; i++ {
			s.Add(generate(r, depth-1, budget))
		}
		return s
	default:
		return generateLeaf(r)
	}
}

func generateLeaf(r *rand.Rand) value.Value {
	switch r.Intn(4) {
	case 0:
		return value.Null{}
	case 1:
		return value.Bool(r.Intn(2) == 0)
	case 2:
		if r.Intn(2) == 0 {
			return value.Int(r.Int63() - r.Int63())
		}
		f, _ := value.Float(r.NormFloat64())
		return f
	default:
		return value.String(randKey(r, r.Intn(1<<20)))
	}
}

func randKey(r *rand.Rand, salt int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"
	n := r.Intn(8) + 1
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b) + string(rune('a'+salt%26))
}
