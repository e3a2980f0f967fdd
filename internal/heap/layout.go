// Package heap defines the binary shape of policy-value nodes inside a
// compiled policy module's linear memory: wasm is 32-bit and little-endian,
// pointers are 32-bit addresses, and every node begins with a one-byte type
// tag at offset 0.
package heap

// Tag identifies a node's kind. It occupies byte 0 of every node.
type Tag byte

const (
	TagNull   Tag = 1
	TagBool   Tag = 2
	TagNumber Tag = 3
	TagString Tag = 4
	TagArray  Tag = 5
	TagObject Tag = 6
	TagSet    Tag = 7
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagSet:
		return "set"
	default:
		return "unknown"
	}
}

// NumberRepr identifies which union member a number node carries.
type NumberRepr byte

const (
	NumberInt   NumberRepr = 1
	NumberFloat NumberRepr = 2
	NumberRef   NumberRepr = 3
)

// Field sizes and offsets, all naturally aligned. The allocator always
// hands out addresses aligned to MaxAlign (8), the largest primitive any
// node field uses (int64/float64).
const (
	MaxAlign = 8

	TagSize = 1

	// null: tag only.
	NullSize = 1

	// bool: tag, pad(3), i32 value.
	BoolValueOffset = 4
	BoolSize        = 8

	// number: tag, repr byte, pad(6), then an 8-byte union (i64 / f64 /
	// {ptr i32, len i32}).
	NumberReprOffset  = 1
	NumberUnionOffset = 8
	NumberSize        = 16

	// string: tag, free byte, pad(2), i32 len, i32 ptr.
	StringFreeOffset = 1
	StringLenOffset  = 4
	StringPtrOffset  = 8
	StringSize       = 12

	// array: tag, pad(3), i32 elems ptr, i32 len, i32 cap.
	ArrayElemsOffset = 4
	ArrayLenOffset   = 8
	ArrayCapOffset   = 12
	ArraySize        = 16

	// array element: i32 index-node ptr, i32 value ptr.
	ArrayElemIndexOffset = 0
	ArrayElemValueOffset = 4
	ArrayElemSize        = 8

	// object: tag, pad(3), i32 head ptr.
	ObjectHeadOffset = 4
	ObjectSize       = 8

	// object element: i32 key ptr, i32 value ptr, i32 next ptr.
	ObjectElemKeyOffset   = 0
	ObjectElemValueOffset = 4
	ObjectElemNextOffset  = 8
	ObjectElemSize        = 12

	// set: tag, pad(3), i32 head ptr.
	SetHeadOffset = 4
	SetSize       = 8

	// set element: i32 value ptr, i32 next ptr.
	SetElemValueOffset = 0
	SetElemNextOffset  = 4
	SetElemSize        = 8
)

// AlignTo rounds offset up to the next multiple of align (align must be a
// power of two).
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
