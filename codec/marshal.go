// Package codec translates between arbitrary Go values and the canonical
// value.Value tree (Marshal/Unmarshal), and between that tree and wasm
// linear-memory heap nodes (EncodeToHeap/DecodeFromHeap).
package codec

import (
	"fmt"
	"reflect"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

// Marshaler lets a Go type bypass reflection and produce its own
// value.Value.
type Marshaler interface {
	MarshalPolicy() (value.Value, error)
}

// Marshal walks v (via reflection, unless v implements Marshaler) and
// produces the canonical value.Value tree.
func Marshal(v any) (value.Value, error) {
	if v == nil {
		return value.Null{}, nil
	}
	if m, ok := v.(Marshaler); ok {
		return m.MarshalPolicy()
	}
	switch tv := v.(type) {
	case Set:
		return marshalSet(tv)
	case NumberRef:
		return value.Ref(string(tv)), nil
	case Variant:
		payload, err := Marshal(tv.Payload)
		if err != nil {
			return nil, err
		}
		obj := value.NewObject()
		obj.Set(value.String(tv.Name), payload)
		return obj, nil
	case value.Value:
		return tv, nil
	}
	return marshalReflect(reflect.ValueOf(v))
}

func marshalSet(items Set) (value.Value, error) {
	s := value.NewSet()
	for _, item := range items {
		v, err := Marshal(item)
		if err != nil {
			return nil, err
		}
		s.Add(v)
	}
	return s, nil
}

func marshalReflect(rv reflect.Value) (value.Value, error) {
	if !rv.IsValid() {
		return value.Null{}, nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		// u64 values beyond i64::MAX wrap: the heap number slot has no
		// unsigned 64-bit representation.
		return value.Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		n, err := value.Float(rv.Float())
		if err != nil {
			return nil, err
		}
		return n, nil
	case reflect.String:
		return value.String(rv.String()), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return value.Null{}, nil
		}
		return marshalElem(rv.Elem())
	case reflect.Interface:
		if rv.IsNil() {
			return value.Null{}, nil
		}
		return Marshal(rv.Interface())
	case reflect.Slice, reflect.Array:
		return marshalSeq(rv)
	case reflect.Map:
		return marshalMap(rv)
	case reflect.Struct:
		return marshalStruct(rv)
	default:
		return nil, errs.New(errs.PhaseEncode, errs.KindSerialize).
			Detail("unsupported Go kind %s", rv.Kind()).Build()
	}
}

func marshalSeq(rv reflect.Value) (value.Value, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// byte sequence ⇒ array of number(int).
		b := rv.Bytes()
		arr := make(value.Array, len(b))
		for i, c := range b {
			arr[i] = value.Int(int64(c))
		}
		return arr, nil
	}
	n := rv.Len()
	arr := make(value.Array, n)
	for i := 0; i < n; i++ {
		v, err := marshalElem(rv.Index(i))
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return arr, nil
}

func marshalMap(rv reflect.Value) (value.Value, error) {
	obj := value.NewObject()
	iter := rv.MapRange()
	for iter.Next() {
		k, err := marshalElem(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := marshalElem(iter.Value())
		if err != nil {
			return nil, err
		}
		obj.Set(k, v)
	}
	return obj, nil
}

// marshalElem re-enters Marshal for a reflected element (struct field, map
// key/value, slice element) rather than calling marshalReflect directly,
// so a nested value statically typed as Set/NumberRef/Variant still goes
// through the marker protocol instead of being flattened by its Go kind
// (reflect.Slice for Set, reflect.String for NumberRef).
func marshalElem(rv reflect.Value) (value.Value, error) {
	if rv.CanInterface() {
		return Marshal(rv.Interface())
	}
	return marshalReflect(rv)
}

func marshalStruct(rv reflect.Value) (value.Value, error) {
	t := rv.Type()
	obj := value.NewObject()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name, omitempty := fieldName(f)
		fv := rv.Field(i)
		if omitempty && isEmptyValue(fv) {
			continue
		}
		mv, err := marshalElem(fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		obj.Set(value.String(name), mv)
	}
	return obj, nil
}

func fieldName(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("policy")
	if tag == "" {
		tag = f.Tag.Get("json")
	}
	if tag == "" {
		return f.Name, false
	}
	parts := splitComma(tag)
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return v.Len() == 0
	}
	return false
}
