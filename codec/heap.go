package codec

import "context"

// Memory is the linear-memory read/write surface EncodeToHeap and
// DecodeFromHeap need; wasmvm.Instance satisfies it via wasmvm.Memory.
type Memory interface {
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	ReadF64(offset uint32) (float64, error)
	WriteU8(offset uint32, v uint8) error
	WriteU32(offset uint32, v uint32) error
	WriteU64(offset uint32, v uint64) error
	WriteF64(offset uint32, v float64) error
}

// Allocator bump-allocates guest heap memory; wasmvm.Instance.Malloc
// satisfies this directly.
type Allocator interface {
	Malloc(ctx context.Context, length uint32) (uint32, error)
}

func allocRawBytes(ctx context.Context, mem Memory, alloc Allocator, data []byte) (uint32, error) {
	n := uint32(len(data))
	if n == 0 {
		n = 1
	}
	addr, err := alloc.Malloc(ctx, n)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		if err := mem.Write(addr, data); err != nil {
			return 0, err
		}
	}
	return addr, nil
}
