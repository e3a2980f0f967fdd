package wasmvm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/policyvm/errs"
)

// Memory is the read/write surface the codec needs over a guest module's
// linear memory, narrowed to the primitives the heap codec actually uses.
type Memory interface {
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	ReadI32(offset uint32) (int32, error)
	ReadU64(offset uint32) (uint64, error)
	ReadF64(offset uint32) (float64, error)
	WriteU8(offset uint32, v uint8) error
	WriteU32(offset uint32, v uint32) error
	WriteI32(offset uint32, v int32) error
	WriteU64(offset uint32, v uint64) error
	WriteF64(offset uint32, v float64) error
	Size() uint32
}

type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errs.New(errs.PhaseDecode, errs.KindNotEnoughData).
			Detail("read %d bytes at %#x out of bounds (memory size %d)", length, offset, m.mem.Size()).Build()
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errs.New(errs.PhaseEncode, errs.KindNotEnoughData).
			Detail("write %d bytes at %#x out of bounds (memory size %d)", len(data), offset, m.mem.Size()).Build()
	}
	return nil
}

func (m *guestMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errs.NullPointer(errs.PhaseDecode, nil)
	}
	return v, nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errs.NullPointer(errs.PhaseDecode, nil)
	}
	return v, nil
}

func (m *guestMemory) ReadI32(offset uint32) (int32, error) {
	v, err := m.ReadU32(offset)
	return int32(v), err
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errs.NullPointer(errs.PhaseDecode, nil)
	}
	return v, nil
}

func (m *guestMemory) ReadF64(offset uint32) (float64, error) {
	v, ok := m.mem.ReadFloat64Le(offset)
	if !ok {
		return 0, errs.NullPointer(errs.PhaseDecode, nil)
	}
	return v, nil
}

func (m *guestMemory) WriteU8(offset uint32, v uint8) error {
	if !m.mem.WriteByte(offset, v) {
		return errs.NullPointer(errs.PhaseEncode, nil)
	}
	return nil
}

func (m *guestMemory) WriteU32(offset uint32, v uint32) error {
	if !m.mem.WriteUint32Le(offset, v) {
		return errs.NullPointer(errs.PhaseEncode, nil)
	}
	return nil
}

func (m *guestMemory) WriteI32(offset uint32, v int32) error {
	return m.WriteU32(offset, uint32(v))
}

func (m *guestMemory) WriteU64(offset uint32, v uint64) error {
	if !m.mem.WriteUint64Le(offset, v) {
		return errs.NullPointer(errs.PhaseEncode, nil)
	}
	return nil
}

func (m *guestMemory) WriteF64(offset uint32, v float64) error {
	if !m.mem.WriteFloat64Le(offset, v) {
		return errs.NullPointer(errs.PhaseEncode, nil)
	}
	return nil
}

func (m *guestMemory) Size() uint32 { return m.mem.Size() }
