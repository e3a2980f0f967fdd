package codec

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/wippyai/policyvm/internal/heap"
)

// fakeMemory is an in-process stand-in for a guest's linear memory: a
// growable byte slice plus a bump allocator, satisfying Memory and
// Allocator without requiring a real wasm instance, so the codec can be
// exercised directly against its encode/decode round-trip behavior.
type fakeMemory struct {
	buf []byte
	top uint32
}

func newFakeMemory() *fakeMemory {
	// Reserve address 0 so it can keep meaning "null pointer".
	return &fakeMemory{buf: make([]byte, heap.MaxAlign), top: heap.MaxAlign}
}

func (m *fakeMemory) ensure(end uint32) {
	if uint32(len(m.buf)) < end {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
}

func (m *fakeMemory) Malloc(_ context.Context, length uint32) (uint32, error) {
	addr := heap.AlignTo(m.top, heap.MaxAlign)
	m.ensure(addr + length)
	m.top = addr + length
	return addr, nil
}

func (m *fakeMemory) Read(offset, length uint32) ([]byte, error) {
	m.ensure(offset + length)
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

func (m *fakeMemory) Write(offset uint32, data []byte) error {
	m.ensure(offset + uint32(len(data)))
	copy(m.buf[offset:], data)
	return nil
}

func (m *fakeMemory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *fakeMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *fakeMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *fakeMemory) ReadF64(offset uint32) (float64, error) {
	bits, err := m.ReadU64(offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (m *fakeMemory) WriteU8(offset uint32, v uint8) error {
	return m.Write(offset, []byte{v})
}

func (m *fakeMemory) WriteU32(offset uint32, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return m.Write(offset, b)
}

func (m *fakeMemory) WriteU64(offset uint32, v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return m.Write(offset, b)
}

func (m *fakeMemory) WriteF64(offset uint32, v float64) error {
	return m.WriteU64(offset, math.Float64bits(v))
}
