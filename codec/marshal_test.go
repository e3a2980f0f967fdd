package codec

import (
	"testing"

	"github.com/wippyai/policyvm/value"
)

type inner struct {
	Flag bool `policy:"flag"`
}

type sample struct {
	ID      int64             `policy:"id"`
	Name    string            `policy:"name"`
	Tags    Set               `policy:"tags"`
	Extra   map[string]string `policy:"extra"`
	Nested  inner             `policy:"nested"`
	Missing *string           `policy:"missing,omitempty"`
}

func TestMarshalStructWithSetMarker(t *testing.T) {
	s := sample{
		ID:     7,
		Name:   "alice",
		Tags:   AsSet("admin", "ops"),
		Extra:  map[string]string{"k": "v"},
		Nested: inner{Flag: true},
	}
	v, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := v.(*value.Object)
	if !ok {
		t.Fatalf("expected Object, got %T", v)
	}
	tagsV, ok := obj.Get(value.String("tags"))
	if !ok {
		t.Fatal("missing tags field")
	}
	setV, ok := tagsV.(*value.Set)
	if !ok {
		t.Fatalf("expected tags to encode as a Set, got %T", tagsV)
	}
	if !setV.Contains(value.String("admin")) || !setV.Contains(value.String("ops")) {
		t.Fatalf("set missing expected members: %#v", setV.Items())
	}
	if _, present := obj.Get(value.String("missing")); present {
		t.Fatal("omitempty nil pointer field should be dropped")
	}
}

func TestUnmarshalRoundTripStruct(t *testing.T) {
	s := sample{ID: 1, Name: "bob", Tags: AsSet("x"), Extra: map[string]string{"a": "b"}, Nested: inner{Flag: false}}
	v, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var out sample
	if err := Unmarshal(v, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != s.ID || out.Name != s.Name || out.Nested.Flag != s.Nested.Flag {
		t.Fatalf("round-trip mismatch: %#v vs %#v", out, s)
	}
	if len(out.Tags) != 1 {
		t.Fatalf("expected one tag, got %v", out.Tags)
	}
}

func TestNumberRefMarker(t *testing.T) {
	v, err := Marshal(AsNumberRef("99999999999999999999"))
	if err != nil {
		t.Fatal(err)
	}
	n, ok := v.(value.Number)
	if !ok || !n.IsRef() {
		t.Fatalf("expected a lexical-reference number, got %#v", v)
	}

	var out NumberRef
	if err := Unmarshal(v, &out); err != nil {
		t.Fatal(err)
	}
	if string(out) != "99999999999999999999" {
		t.Fatalf("round-trip mismatch: got %q", out)
	}
}

func TestVariantEncodesAsSingleKeyObject(t *testing.T) {
	v, err := Marshal(Variant{Name: "Active", Payload: 3})
	if err != nil {
		t.Fatal(err)
	}
	obj := v.(*value.Object)
	if obj.Len() != 1 {
		t.Fatalf("expected single-key object, got %d keys", obj.Len())
	}
	payload, ok := obj.Get(value.String("Active"))
	if !ok {
		t.Fatal("missing variant key")
	}
	if mustInt(t, payload) != 3 {
		t.Fatalf("payload = %v, want 3", payload)
	}
}

func TestUnmarshalRoundTripVariant(t *testing.T) {
	in := Variant{Name: "Active", Payload: 3}
	v, err := Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	name, ok := VariantName(v)
	if !ok || name != "Active" {
		t.Fatalf("VariantName = %q, %v, want \"Active\", true", name, ok)
	}

	var out Variant
	if err := Unmarshal(v, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "Active" {
		t.Fatalf("Name = %q, want \"Active\"", out.Name)
	}
	p, ok := out.Payload.(int64)
	if !ok || p != 3 {
		t.Fatalf("Payload = %#v, want int64(3)", out.Payload)
	}

	if err := Unmarshal(value.String("not a variant"), &out); err == nil {
		t.Fatal("expected an error decoding a non-object into a Variant")
	}
}

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
