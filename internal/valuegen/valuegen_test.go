package valuegen

import (
	"math/rand"
	"testing"

	"github.com/wippyai/policyvm/value"
)

func TestGenerateProducesStableValues(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		v := Generate(r)
		if v == nil {
			t.Fatal("Generate returned nil")
		}
		// Every generated value must compare equal to itself under the
		// total order, exercising Compare across all kinds it can produce.
		if value.Compare(v, v) != 0 {
			t.Fatalf("Compare(v, v) != 0 for %#v", v)
		}
	}
}
