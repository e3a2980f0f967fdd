package wasmvm

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/policyvm/errs"
)

// Instance is a single instantiated guest module: the linear memory it
// imports from the Engine's env shim plus cached typed handles to its
// required exports.
type Instance struct {
	mod     api.Module
	exports map[string]api.Function
	memory  *guestMemory
}

// Memory returns the read/write surface over this instance's linear
// memory.
func (i *Instance) Memory() Memory { return i.memory }

// Close releases the instance and its memory.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

func (i *Instance) call1(ctx context.Context, name string, arg uint64) (uint32, error) {
	fn := i.exports[name]
	if fn == nil {
		return 0, errs.MissingExport(name)
	}
	res, err := fn.Call(ctx, arg)
	if err != nil {
		return 0, errs.Trap(err)
	}
	return uint32(res[0]), nil
}

func (i *Instance) call0(ctx context.Context, name string) (uint32, error) {
	fn := i.exports[name]
	if fn == nil {
		return 0, errs.MissingExport(name)
	}
	res, err := fn.Call(ctx)
	if err != nil {
		return 0, errs.Trap(err)
	}
	return uint32(res[0]), nil
}

func (i *Instance) call1void(ctx context.Context, name string, arg uint64) error {
	fn := i.exports[name]
	if fn == nil {
		return errs.MissingExport(name)
	}
	if _, err := fn.Call(ctx, arg); err != nil {
		return errs.Trap(err)
	}
	return nil
}

// Malloc bump-allocates len bytes in the guest heap.
func (i *Instance) Malloc(ctx context.Context, length uint32) (uint32, error) {
	addr, err := i.call1(ctx, exportMalloc, uint64(length))
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, errs.New(errs.PhaseEncode, errs.KindNotEnoughData).
			Detail("opa_malloc(%d) returned 0", length).Build()
	}
	return addr, nil
}

// HeapPtrGet/HeapPtrSet/HeapTopGet/HeapTopSet are the checkpoint
// primitives used to save and rewind the guest heap.
func (i *Instance) HeapPtrGet(ctx context.Context) (uint32, error) {
	return i.call0(ctx, exportHeapPtrGet)
}

func (i *Instance) HeapPtrSet(ctx context.Context, v uint32) error {
	return i.call1void(ctx, exportHeapPtrSet, uint64(v))
}

func (i *Instance) HeapTopGet(ctx context.Context) (uint32, error) {
	return i.call0(ctx, exportHeapTopGet)
}

func (i *Instance) HeapTopSet(ctx context.Context, v uint32) error {
	return i.call1void(ctx, exportHeapTopSet, uint64(v))
}

// Checkpoint is a captured (heap_ptr, heap_top) pair.
type Checkpoint struct {
	HeapPtr uint32
	HeapTop uint32
}

// CaptureCheckpoint reads the current checkpoint.
func (i *Instance) CaptureCheckpoint(ctx context.Context) (Checkpoint, error) {
	ptr, err := i.HeapPtrGet(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	top, err := i.HeapTopGet(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{HeapPtr: ptr, HeapTop: top}, nil
}

// RestoreCheckpoint rewinds the guest heap to a previously captured
// checkpoint, logically freeing everything allocated above it.
func (i *Instance) RestoreCheckpoint(ctx context.Context, c Checkpoint) error {
	if err := i.HeapPtrSet(ctx, c.HeapPtr); err != nil {
		return err
	}
	return i.HeapTopSet(ctx, c.HeapTop)
}

// EvalCtxNew creates a new evaluation context in the guest heap.
func (i *Instance) EvalCtxNew(ctx context.Context) (uint32, error) {
	return i.call0(ctx, exportEvalCtxNew)
}

func (i *Instance) EvalCtxSetInput(ctx context.Context, evalCtx, addr uint32) error {
	fn := i.exports[exportEvalCtxSetInput]
	if fn == nil {
		return errs.MissingExport(exportEvalCtxSetInput)
	}
	if _, err := fn.Call(ctx, uint64(evalCtx), uint64(addr)); err != nil {
		return errs.Trap(err)
	}
	return nil
}

func (i *Instance) EvalCtxSetData(ctx context.Context, evalCtx, addr uint32) error {
	fn := i.exports[exportEvalCtxSetData]
	if fn == nil {
		return errs.MissingExport(exportEvalCtxSetData)
	}
	if _, err := fn.Call(ctx, uint64(evalCtx), uint64(addr)); err != nil {
		return errs.Trap(err)
	}
	return nil
}

func (i *Instance) EvalCtxGetResult(ctx context.Context, evalCtx uint32) (uint32, error) {
	return i.call1(ctx, exportEvalCtxGetResult, uint64(evalCtx))
}

// Eval runs the policy query for the evaluation context. The caller
// reads the result via EvalCtxGetResult; Eval's own return value (the
// guest's status code) is discarded, and only a failed wasm call is
// returned, as a Trap.
func (i *Instance) Eval(ctx context.Context, evalCtx uint32) error {
	_, err := i.call1(ctx, exportEval, uint64(evalCtx))
	return err
}

// Builtins returns the address of the guest's built-ins name-to-id table.
func (i *Instance) Builtins(ctx context.Context) (uint32, error) {
	return i.call0(ctx, exportBuiltins)
}

// JSONParse wraps the guest's optional opa_json_parse export, useful only
// for debugging dumps. It returns MissingExport if the compiled module
// does not carry it; the core codec never depends on it.
func (i *Instance) JSONParse(ctx context.Context, addr, length uint32) (uint32, error) {
	fn := i.exports[exportJSONParse]
	if fn == nil {
		return 0, errs.MissingExport(exportJSONParse)
	}
	res, err := fn.Call(ctx, uint64(addr), uint64(length))
	if err != nil {
		return 0, errs.Trap(err)
	}
	return uint32(res[0]), nil
}

func (i *Instance) JSONDump(ctx context.Context, addr uint32) (uint32, error) {
	return i.call1(ctx, exportJSONDump, uint64(addr))
}
