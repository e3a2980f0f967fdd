package codec

import (
	"context"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/internal/heap"
	"github.com/wippyai/policyvm/value"
)

// EncodeToHeap walks v and materializes it as heap nodes in the guest's
// linear memory, returning the root address. The allocation pattern
// follows the node layout rule: composite headers are allocated before
// their children so the header address is stable, arrays pre-allocate a
// contiguous element table, and objects/sets build singly-linked chains
// whose next/head pointers are patched as each element is appended.
func EncodeToHeap(ctx context.Context, mem Memory, alloc Allocator, v value.Value) (uint32, error) {
	switch tv := v.(type) {
	case value.Null, nil:
		return encodeNull(ctx, mem, alloc)
	case value.Bool:
		return encodeBool(ctx, mem, alloc, bool(tv))
	case value.Number:
		return encodeNumber(ctx, mem, alloc, tv)
	case value.String:
		return encodeString(ctx, mem, alloc, string(tv))
	case value.Array:
		return encodeArray(ctx, mem, alloc, tv)
	case *value.Object:
		return encodeObject(ctx, mem, alloc, tv)
	case *value.Set:
		return encodeSet(ctx, mem, alloc, tv)
	default:
		return 0, errs.New(errs.PhaseEncode, errs.KindSerialize).
			Detail("unrecognized value.Value implementation %T", v).Build()
	}
}

func encodeNull(ctx context.Context, mem Memory, alloc Allocator) (uint32, error) {
	addr, err := alloc.Malloc(ctx, heap.NullSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(addr, byte(heap.TagNull)); err != nil {
		return 0, err
	}
	return addr, nil
}

func encodeBool(ctx context.Context, mem Memory, alloc Allocator, b bool) (uint32, error) {
	addr, err := alloc.Malloc(ctx, heap.BoolSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(addr, byte(heap.TagBool)); err != nil {
		return 0, err
	}
	var iv uint32
	if b {
		iv = 1
	}
	if err := mem.WriteU32(addr+heap.BoolValueOffset, iv); err != nil {
		return 0, err
	}
	return addr, nil
}

func encodeNumber(ctx context.Context, mem Memory, alloc Allocator, n value.Number) (uint32, error) {
	addr, err := alloc.Malloc(ctx, heap.NumberSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(addr, byte(heap.TagNumber)); err != nil {
		return 0, err
	}

	switch {
	case n.IsRef():
		if err := mem.WriteU8(addr+heap.NumberReprOffset, byte(heap.NumberRef)); err != nil {
			return 0, err
		}
		text := []byte(n.RefString())
		ptr, err := allocRawBytes(ctx, mem, alloc, text)
		if err != nil {
			return 0, err
		}
		if err := mem.WriteU32(addr+heap.NumberUnionOffset, ptr); err != nil {
			return 0, err
		}
		if err := mem.WriteU32(addr+heap.NumberUnionOffset+4, uint32(len(text))); err != nil {
			return 0, err
		}

	case n.IsFloatRepr():
		if err := mem.WriteU8(addr+heap.NumberReprOffset, byte(heap.NumberFloat)); err != nil {
			return 0, err
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		if err := mem.WriteF64(addr+heap.NumberUnionOffset, f); err != nil {
			return 0, err
		}

	default: // int repr
		if err := mem.WriteU8(addr+heap.NumberReprOffset, byte(heap.NumberInt)); err != nil {
			return 0, err
		}
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		if err := mem.WriteU64(addr+heap.NumberUnionOffset, uint64(i)); err != nil {
			return 0, err
		}
	}
	return addr, nil
}

func encodeString(ctx context.Context, mem Memory, alloc Allocator, s string) (uint32, error) {
	addr, err := alloc.Malloc(ctx, heap.StringSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(addr, byte(heap.TagString)); err != nil {
		return 0, err
	}
	if err := mem.WriteU8(addr+heap.StringFreeOffset, 0); err != nil {
		return 0, err
	}
	ptr, err := allocRawBytes(ctx, mem, alloc, []byte(s))
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU32(addr+heap.StringLenOffset, uint32(len(s))); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(addr+heap.StringPtrOffset, ptr); err != nil {
		return 0, err
	}
	return addr, nil
}

func encodeArray(ctx context.Context, mem Memory, alloc Allocator, arr value.Array) (uint32, error) {
	headerAddr, err := alloc.Malloc(ctx, heap.ArraySize)
	if err != nil {
		return 0, err
	}

	n := uint32(len(arr))
	tableSize := n * heap.ArrayElemSize
	if tableSize == 0 {
		tableSize = 1
	}
	elemsAddr, err := alloc.Malloc(ctx, tableSize)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for i, el := range arr {
		idxAddr, err := encodeNumber(ctx, mem, alloc, value.Int(int64(i)))
		if err != nil {
			return 0, err
		}
		valAddr, err := EncodeToHeap(ctx, mem, alloc, el)
		if err != nil {
			return 0, err
		}
		elemAddr := elemsAddr + uint32(i)*heap.ArrayElemSize
		if err := mem.WriteU32(elemAddr+heap.ArrayElemIndexOffset, idxAddr); err != nil {
			return 0, err
		}
		if err := mem.WriteU32(elemAddr+heap.ArrayElemValueOffset, valAddr); err != nil {
			return 0, err
		}
		emitted++
	}
	if emitted != len(arr) {
		return 0, errs.InvalidSeqLen(len(arr), emitted)
	}

	if err := mem.WriteU8(headerAddr, byte(heap.TagArray)); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(headerAddr+heap.ArrayElemsOffset, elemsAddr); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(headerAddr+heap.ArrayLenOffset, n); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(headerAddr+heap.ArrayCapOffset, 0); err != nil {
		return 0, err
	}
	return headerAddr, nil
}

func encodeObject(ctx context.Context, mem Memory, alloc Allocator, obj *value.Object) (uint32, error) {
	headerAddr, err := alloc.Malloc(ctx, heap.ObjectSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(headerAddr, byte(heap.TagObject)); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(headerAddr+heap.ObjectHeadOffset, 0); err != nil {
		return 0, err
	}

	var prevElemAddr uint32
	var outerErr error
	obj.Range(func(k, v value.Value) bool {
		keyAddr, err := EncodeToHeap(ctx, mem, alloc, k)
		if err != nil {
			outerErr = err
			return false
		}
		valAddr, err := EncodeToHeap(ctx, mem, alloc, v)
		if err != nil {
			outerErr = err
			return false
		}
		elemAddr, err := alloc.Malloc(ctx, heap.ObjectElemSize)
		if err != nil {
			outerErr = err
			return false
		}
		if err := mem.WriteU32(elemAddr+heap.ObjectElemKeyOffset, keyAddr); err != nil {
			outerErr = err
			return false
		}
		if err := mem.WriteU32(elemAddr+heap.ObjectElemValueOffset, valAddr); err != nil {
			outerErr = err
			return false
		}
		if err := mem.WriteU32(elemAddr+heap.ObjectElemNextOffset, 0); err != nil {
			outerErr = err
			return false
		}
		if prevElemAddr == 0 {
			outerErr = mem.WriteU32(headerAddr+heap.ObjectHeadOffset, elemAddr)
		} else {
			outerErr = mem.WriteU32(prevElemAddr+heap.ObjectElemNextOffset, elemAddr)
		}
		if outerErr != nil {
			return false
		}
		prevElemAddr = elemAddr
		return true
	})
	if outerErr != nil {
		return 0, outerErr
	}
	return headerAddr, nil
}

func encodeSet(ctx context.Context, mem Memory, alloc Allocator, s *value.Set) (uint32, error) {
	headerAddr, err := alloc.Malloc(ctx, heap.SetSize)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU8(headerAddr, byte(heap.TagSet)); err != nil {
		return 0, err
	}
	if err := mem.WriteU32(headerAddr+heap.SetHeadOffset, 0); err != nil {
		return 0, err
	}

	var prevElemAddr uint32
	var outerErr error
	s.Range(func(v value.Value) bool {
		valAddr, err := EncodeToHeap(ctx, mem, alloc, v)
		if err != nil {
			outerErr = err
			return false
		}
		elemAddr, err := alloc.Malloc(ctx, heap.SetElemSize)
		if err != nil {
			outerErr = err
			return false
		}
		if err := mem.WriteU32(elemAddr+heap.SetElemValueOffset, valAddr); err != nil {
			outerErr = err
			return false
		}
		if err := mem.WriteU32(elemAddr+heap.SetElemNextOffset, 0); err != nil {
			outerErr = err
			return false
		}
		if prevElemAddr == 0 {
			outerErr = mem.WriteU32(headerAddr+heap.SetHeadOffset, elemAddr)
		} else {
			outerErr = mem.WriteU32(prevElemAddr+heap.SetElemNextOffset, elemAddr)
		}
		if outerErr != nil {
			return false
		}
		prevElemAddr = elemAddr
		return true
	})
	if outerErr != nil {
		return 0, outerErr
	}
	return headerAddr, nil
}
