package codec

import (
	"unicode/utf8"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/internal/heap"
	"github.com/wippyai/policyvm/value"
)

// DecodeFromHeap walks heap nodes starting at addr and reconstructs a
// value.Value, the inverse of EncodeToHeap.
func DecodeFromHeap(mem Memory, addr uint32) (value.Value, error) {
	if addr == 0 {
		return nil, errs.NullPointer(errs.PhaseDecode, nil)
	}
	tagByte, err := mem.ReadU8(addr)
	if err != nil {
		return nil, err
	}
	switch heap.Tag(tagByte) {
	case heap.TagNull:
		return value.Null{}, nil
	case heap.TagBool:
		return decodeBool(mem, addr)
	case heap.TagNumber:
		return decodeNumber(mem, addr)
	case heap.TagString:
		return decodeString(mem, addr)
	case heap.TagArray:
		return decodeArray(mem, addr)
	case heap.TagObject:
		return decodeObject(mem, addr)
	case heap.TagSet:
		return decodeSet(mem, addr)
	default:
		return nil, errs.New(errs.PhaseDecode, errs.KindDeserialize).
			Detail("unknown tag byte %d at address %#x", tagByte, addr).Build()
	}
}

func decodeBool(mem Memory, addr uint32) (value.Value, error) {
	v, err := mem.ReadU32(addr + heap.BoolValueOffset)
	if err != nil {
		return nil, err
	}
	return value.Bool(v != 0), nil
}

func decodeNumber(mem Memory, addr uint32) (value.Value, error) {
	repr, err := mem.ReadU8(addr + heap.NumberReprOffset)
	if err != nil {
		return nil, err
	}
	switch heap.NumberRepr(repr) {
	case heap.NumberInt:
		bits, err := mem.ReadU64(addr + heap.NumberUnionOffset)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(bits)), nil
	case heap.NumberFloat:
		f, err := mem.ReadF64(addr + heap.NumberUnionOffset)
		if err != nil {
			return nil, err
		}
		n, ferr := value.Float(f)
		if ferr != nil {
			return nil, errs.New(errs.PhaseDecode, errs.KindInvalidNumberRepr).
				Detail("float number node holds NaN/Inf").Build()
		}
		return n, nil
	case heap.NumberRef:
		ptr, err := mem.ReadU32(addr + heap.NumberUnionOffset)
		if err != nil {
			return nil, err
		}
		length, err := mem.ReadU32(addr + heap.NumberUnionOffset + 4)
		if err != nil {
			return nil, err
		}
		text, err := readUTF8(mem, ptr, length, errs.PhaseDecode)
		if err != nil {
			return nil, err
		}
		return value.Ref(text), nil
	default:
		return nil, errs.New(errs.PhaseDecode, errs.KindInvalidNumberRepr).
			Detail("unknown number repr byte %d", repr).Build()
	}
}

func decodeString(mem Memory, addr uint32) (value.Value, error) {
	length, err := mem.ReadU32(addr + heap.StringLenOffset)
	if err != nil {
		return nil, err
	}
	ptr, err := mem.ReadU32(addr + heap.StringPtrOffset)
	if err != nil {
		return nil, err
	}
	s, err := readUTF8(mem, ptr, length, errs.PhaseDecode)
	if err != nil {
		return nil, err
	}
	return value.String(s), nil
}

func readUTF8(mem Memory, ptr, length uint32, phase errs.Phase) (string, error) {
	if length == 0 {
		return "", nil
	}
	b, err := mem.Read(ptr, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errs.InvalidUTF8(phase, nil)
	}
	return string(b), nil
}

func decodeArray(mem Memory, addr uint32) (value.Value, error) {
	elemsAddr, err := mem.ReadU32(addr + heap.ArrayElemsOffset)
	if err != nil {
		return nil, err
	}
	length, err := mem.ReadU32(addr + heap.ArrayLenOffset)
	if err != nil {
		return nil, err
	}
	out := make(value.Array, length)
	for i := uint32(0); i < length; i++ {
		elemAddr := elemsAddr + i*heap.ArrayElemSize
		valPtr, err := mem.ReadU32(elemAddr + heap.ArrayElemValueOffset)
		if err != nil {
			return nil, err
		}
		v, err := DecodeFromHeap(mem, valPtr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeObject(mem Memory, addr uint32) (value.Value, error) {
	head, err := mem.ReadU32(addr + heap.ObjectHeadOffset)
	if err != nil {
		return nil, err
	}
	obj := value.NewObject()
	for cur := head; cur != 0; {
		keyPtr, err := mem.ReadU32(cur + heap.ObjectElemKeyOffset)
		if err != nil {
			return nil, err
		}
		valPtr, err := mem.ReadU32(cur + heap.ObjectElemValueOffset)
		if err != nil {
			return nil, err
		}
		k, err := DecodeFromHeap(mem, keyPtr)
		if err != nil {
			return nil, err
		}
		v, err := DecodeFromHeap(mem, valPtr)
		if err != nil {
			return nil, err
		}
		obj.Set(k, v)
		next, err := mem.ReadU32(cur + heap.ObjectElemNextOffset)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return obj, nil
}

func decodeSet(mem Memory, addr uint32) (value.Value, error) {
	head, err := mem.ReadU32(addr + heap.SetHeadOffset)
	if err != nil {
		return nil, err
	}
	s := value.NewSet()
	for cur := head; cur != 0; {
		valPtr, err := mem.ReadU32(cur + heap.SetElemValueOffset)
		if err != nil {
			return nil, err
		}
		v, err := DecodeFromHeap(mem, valPtr)
		if err != nil {
			return nil, err
		}
		s.Add(v)
		next, err := mem.ReadU32(cur + heap.SetElemNextOffset)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return s, nil
}
