package policy

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/internal/heap"
	"github.com/wippyai/policyvm/wasmvm"
)

// fakeMem is an in-process stand-in for a guest's linear memory: a
// growable byte slice with a bump allocator, satisfying wasmvm.Memory so
// the dispatcher and façade logic in this package can be exercised
// without a real wazero-instantiated guest.
type fakeMem struct {
	buf []byte
	top uint32
}

func newFakeMem() *fakeMem {
	return &fakeMem{buf: make([]byte, heap.MaxAlign), top: heap.MaxAlign}
}

func (m *fakeMem) ensure(end uint32) {
	if uint32(len(m.buf)) < end {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
}

func (m *fakeMem) malloc(length uint32) uint32 {
	addr := heap.AlignTo(m.top, heap.MaxAlign)
	if length == 0 {
		length = 1
	}
	m.ensure(addr + length)
	m.top = addr + length
	return addr
}

func (m *fakeMem) Read(offset, length uint32) ([]byte, error) {
	m.ensure(offset + length)
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

func (m *fakeMem) Write(offset uint32, data []byte) error {
	m.ensure(offset + uint32(len(data)))
	copy(m.buf[offset:], data)
	return nil
}

func (m *fakeMem) ReadU8(offset uint32) (uint8, error) { b, err := m.Read(offset, 1); return b[0], err }
func (m *fakeMem) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	return binary.LittleEndian.Uint32(b), err
}
func (m *fakeMem) ReadI32(offset uint32) (int32, error) {
	v, err := m.ReadU32(offset)
	return int32(v), err
}
func (m *fakeMem) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	return binary.LittleEndian.Uint64(b), err
}
func (m *fakeMem) ReadF64(offset uint32) (float64, error) {
	bits, err := m.ReadU64(offset)
	return math.Float64frombits(bits), err
}
func (m *fakeMem) WriteU8(offset uint32, v uint8) error { return m.Write(offset, []byte{v}) }
func (m *fakeMem) WriteU32(offset uint32, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return m.Write(offset, b)
}
func (m *fakeMem) WriteI32(offset uint32, v int32) error { return m.WriteU32(offset, uint32(v)) }
func (m *fakeMem) WriteU64(offset uint32, v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return m.Write(offset, b)
}
func (m *fakeMem) WriteF64(offset uint32, v float64) error {
	return m.WriteU64(offset, math.Float64bits(v))
}
func (m *fakeMem) Size() uint32 { return uint32(len(m.buf)) }

var _ wasmvm.Memory = (*fakeMem)(nil)

type fakeEvalCtx struct {
	input, data, result uint32
}

// fakeInstance implements guestInstance without a real wasm runtime. Its
// eval behavior is pluggable per test via evalFn, which stands in for
// whatever a compiled policy's `eval` export would actually do.
type fakeInstance struct {
	mem          *fakeMem
	builtinsAddr uint32
	evalCtxs     map[uint32]*fakeEvalCtx
	evalFn       func(ctx context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error)
}

func newFakeInstance(evalFn func(ctx context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error)) *fakeInstance {
	return &fakeInstance{mem: newFakeMem(), evalCtxs: map[uint32]*fakeEvalCtx{}, evalFn: evalFn}
}

func (f *fakeInstance) Memory() wasmvm.Memory { return f.mem }

func (f *fakeInstance) Malloc(_ context.Context, length uint32) (uint32, error) {
	return f.mem.malloc(length), nil
}

func (f *fakeInstance) Builtins(_ context.Context) (uint32, error) {
	if f.builtinsAddr == 0 {
		return 0, errs.New(errs.PhaseInitialization, errs.KindMissingExport).Name("builtins").Build()
	}
	return f.builtinsAddr, nil
}

func (f *fakeInstance) CaptureCheckpoint(_ context.Context) (wasmvm.Checkpoint, error) {
	return wasmvm.Checkpoint{HeapPtr: f.mem.top, HeapTop: f.mem.top}, nil
}

func (f *fakeInstance) RestoreCheckpoint(_ context.Context, c wasmvm.Checkpoint) error {
	f.mem.top = c.HeapPtr
	return nil
}

func (f *fakeInstance) EvalCtxNew(ctx context.Context) (uint32, error) {
	addr, err := f.Malloc(ctx, 16)
	if err != nil {
		return 0, err
	}
	f.evalCtxs[addr] = &fakeEvalCtx{}
	return addr, nil
}

func (f *fakeInstance) EvalCtxSetInput(_ context.Context, evalCtx, addr uint32) error {
	f.evalCtxs[evalCtx].input = addr
	return nil
}

func (f *fakeInstance) EvalCtxSetData(_ context.Context, evalCtx, addr uint32) error {
	f.evalCtxs[evalCtx].data = addr
	return nil
}

func (f *fakeInstance) Eval(ctx context.Context, evalCtx uint32) error {
	result, err := f.evalFn(ctx, f, evalCtx)
	if err != nil {
		return err
	}
	f.evalCtxs[evalCtx].result = result
	return nil
}

func (f *fakeInstance) EvalCtxGetResult(_ context.Context, evalCtx uint32) (uint32, error) {
	return f.evalCtxs[evalCtx].result, nil
}

func (f *fakeInstance) Close(_ context.Context) error { return nil }

var _ guestInstance = (*fakeInstance)(nil)

// echoDataEvalFn simulates a policy whose result is exactly the loaded
// `data` document, so Evaluate's output tracks SetData calls regardless
// of input — useful for checking that each SetData call is fully
// isolated from the next.
func echoDataEvalFn(_ context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error) {
	return fi.evalCtxs[evalCtx].data, nil
}

// echoInputEvalFn simulates an identity policy, echoing back whatever
// input was encoded.
func echoInputEvalFn(_ context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error) {
	return fi.evalCtxs[evalCtx].input, nil
}
