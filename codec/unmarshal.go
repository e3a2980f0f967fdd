package codec

import (
	"math"
	"reflect"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

// Unmarshaler lets a Go type bypass reflection and consume a value.Value
// itself.
type Unmarshaler interface {
	UnmarshalPolicy(value.Value) error
}

var (
	setType       = reflect.TypeOf(Set(nil))
	numberRefType = reflect.TypeOf(NumberRef(""))
	variantType   = reflect.TypeOf(Variant{})
)

// Unmarshal decodes v into target, which must be a non-nil pointer.
func Unmarshal(v value.Value, target any) error {
	if u, ok := target.(Unmarshaler); ok {
		return u.UnmarshalPolicy(v)
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errs.New(errs.PhaseDecode, errs.KindDeserialize).
			Detail("Unmarshal target must be a non-nil pointer").Build()
	}
	return unmarshalInto(v, rv.Elem())
}

func unmarshalInto(v value.Value, rv reflect.Value) error {
	if rv.Type() == setType {
		return unmarshalSet(v, rv)
	}
	if rv.Type() == numberRefType {
		return unmarshalNumberRef(v, rv)
	}
	if rv.Type() == variantType {
		return unmarshalVariant(v, rv)
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.NumMethod() == 0 {
			rv.Set(reflect.ValueOf(decodeAny(v)))
			return nil
		}
		return errs.New(errs.PhaseDecode, errs.KindDeserialize).
			Detail("cannot decode into non-empty interface %s", rv.Type()).Build()

	case reflect.Bool:
		b, ok := v.(value.Bool)
		if !ok {
			return expectedKind(errs.KindExpectedBoolean, v)
		}
		rv.SetBool(bool(b))
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(value.Number)
		if !ok {
			return expectedKind(errs.KindExpectedNumber, v)
		}
		i, err := n.Int64()
		if err != nil {
			return err
		}
		if rv.OverflowInt(i) {
			return errs.IntegerConversion(i, rv.Type().String())
		}
		rv.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := v.(value.Number)
		if !ok {
			return expectedKind(errs.KindExpectedNumber, v)
		}
		u, err := n.Uint64()
		if err != nil {
			return err
		}
		if rv.OverflowUint(u) {
			return errs.IntegerConversion(u, rv.Type().String())
		}
		rv.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		n, ok := v.(value.Number)
		if !ok {
			return expectedKind(errs.KindExpectedNumber, v)
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		if rv.Kind() == reflect.Float32 && (f > math.MaxFloat32 || f < -math.MaxFloat32) {
			return errs.IntegerConversion(f, "f32")
		}
		rv.SetFloat(f)
		return nil

	case reflect.String:
		s, ok := v.(value.String)
		if !ok {
			return expectedKind(errs.KindExpectedString, v)
		}
		rv.SetString(string(s))
		return nil

	case reflect.Ptr:
		if _, isNull := v.(value.Null); isNull {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return unmarshalInto(v, rv.Elem())

	case reflect.Slice:
		return unmarshalSlice(v, rv)

	case reflect.Array:
		return unmarshalArray(v, rv)

	case reflect.Map:
		return unmarshalMap(v, rv)

	case reflect.Struct:
		return unmarshalStruct(v, rv)

	default:
		return errs.New(errs.PhaseDecode, errs.KindDeserialize).
			Detail("unsupported Go kind %s", rv.Kind()).Build()
	}
}

func expectedKind(kind errs.Kind, observed value.Value) error {
	return errs.New(errs.PhaseDecode, kind).Observed(observed.Kind().String()).Build()
}

func unmarshalSet(v value.Value, rv reflect.Value) error {
	var items []value.Value
	switch tv := v.(type) {
	case *value.Set:
		items = tv.Items()
	case value.Array:
		items = tv
	default:
		return errs.New(errs.PhaseDecode, errs.KindMarkerMisuse).
			Detail("Set marker target requires a set or array node").Build()
	}
	out := make(Set, len(items))
	for i, it := range items {
		out[i] = decodeAny(it)
	}
	rv.Set(reflect.ValueOf(out))
	return nil
}

func unmarshalNumberRef(v value.Value, rv reflect.Value) error {
	n, ok := v.(value.Number)
	if !ok || !n.IsRef() {
		return errs.New(errs.PhaseDecode, errs.KindMarkerMisuse).
			Detail("NumberRef target requires a lexical-reference number node").Build()
	}
	rv.SetString(n.RefString())
	return nil
}

// unmarshalVariant reverses the single-key-object encoding a Variant
// produces: the sole key becomes Name, its value becomes Payload.
func unmarshalVariant(v value.Value, rv reflect.Value) error {
	name, ok := VariantName(v)
	if !ok {
		return errs.New(errs.PhaseDecode, errs.KindExpectedEnum).
			Detail("Variant target requires a single-key object node").Build()
	}
	var payload value.Value
	v.(*value.Object).Range(func(_, val value.Value) bool {
		payload = val
		return false
	})
	rv.Set(reflect.ValueOf(Variant{Name: name, Payload: decodeAny(payload)}))
	return nil
}

func unmarshalSlice(v value.Value, rv reflect.Value) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		arr, ok := v.(value.Array)
		if !ok {
			return expectedKind(errs.KindExpectedArray, v)
		}
		b := make([]byte, len(arr))
		for i, e := range arr {
			n, ok := e.(value.Number)
			if !ok {
				return expectedKind(errs.KindExpectedNumber, e)
			}
			iv, err := n.Int64()
			if err != nil {
				return err
			}
			b[i] = byte(iv)
		}
		rv.SetBytes(b)
		return nil
	}
	var items []value.Value
	switch tv := v.(type) {
	case value.Array:
		items = tv
	case *value.Set:
		// Sets decode as plain sequences unless the target is the Set
		// marker type handled above.
		items = tv.Items()
	default:
		return expectedKind(errs.KindExpectedArray, v)
	}
	out := reflect.MakeSlice(rv.Type(), len(items), len(items))
	for i, e := range items {
		if err := unmarshalInto(e, out.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func unmarshalArray(v value.Value, rv reflect.Value) error {
	arr, ok := v.(value.Array)
	if !ok {
		return expectedKind(errs.KindExpectedArray, v)
	}
	if len(arr) != rv.Len() {
		return errs.New(errs.PhaseDecode, errs.KindInvalidSeqLen).
			Detail("expected length %d, got %d", rv.Len(), len(arr)).Build()
	}
	for i := 0; i < rv.Len(); i++ {
		if err := unmarshalInto(arr[i], rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalMap(v value.Value, rv reflect.Value) error {
	obj, ok := v.(*value.Object)
	if !ok {
		return expectedKind(errs.KindExpectedObject, v)
	}
	out := reflect.MakeMapWithSize(rv.Type(), obj.Len())
	var outerErr error
	obj.Range(func(k, val value.Value) bool {
		kv := reflect.New(rv.Type().Key()).Elem()
		if err := unmarshalInto(k, kv); err != nil {
			outerErr = err
			return false
		}
		vv := reflect.New(rv.Type().Elem()).Elem()
		if err := unmarshalInto(val, vv); err != nil {
			outerErr = err
			return false
		}
		out.SetMapIndex(kv, vv)
		return true
	})
	if outerErr != nil {
		return outerErr
	}
	rv.Set(out)
	return nil
}

func unmarshalStruct(v value.Value, rv reflect.Value) error {
	obj, ok := v.(*value.Object)
	if !ok {
		return expectedKind(errs.KindExpectedObject, v)
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, _ := fieldName(f)
		fval, present := obj.Get(value.String(name))
		fv := rv.Field(i)
		if !present {
			switch fv.Kind() {
			case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
				continue
			default:
				return errs.ExpectedField(name)
			}
		}
		if err := unmarshalInto(fval, fv); err != nil {
			return err
		}
	}
	return nil
}

func decodeAny(v value.Value) any {
	switch tv := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return bool(tv)
	case value.Number:
		if tv.IsI64() {
			i, _ := tv.Int64()
			return i
		}
		f, _ := tv.Float64()
		return f
	case value.String:
		return string(tv)
	case value.Array:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = decodeAny(e)
		}
		return out
	case *value.Object:
		out := make(map[string]any, tv.Len())
		tv.Range(func(k, val value.Value) bool {
			if ks, ok := k.(value.String); ok {
				out[string(ks)] = decodeAny(val)
			}
			return true
		})
		return out
	case *value.Set:
		items := tv.Items()
		out := make(Set, len(items))
		for i, e := range items {
			out[i] = decodeAny(e)
		}
		return out
	default:
		return nil
	}
}
