package policy

import (
	"context"

	"github.com/wippyai/policyvm/wasmvm"
)

// guestInstance is the subset of *wasmvm.Instance the façade and
// dispatcher depend on. Accepting an interface here (rather than the
// concrete wasmvm type) follows the same "accept interfaces" discipline
// the codec package already applies to Memory/Allocator, and lets the
// dispatcher/checkpoint/eval plumbing in this package be exercised by a
// lightweight fake in tests instead of a real wazero-instantiated guest.
//
// *wasmvm.Instance satisfies this interface; production code never
// constructs anything else.
type guestInstance interface {
	Memory() wasmvm.Memory
	Malloc(ctx context.Context, length uint32) (uint32, error)
	Builtins(ctx context.Context) (uint32, error)
	CaptureCheckpoint(ctx context.Context) (wasmvm.Checkpoint, error)
	RestoreCheckpoint(ctx context.Context, c wasmvm.Checkpoint) error
	EvalCtxNew(ctx context.Context) (uint32, error)
	EvalCtxSetInput(ctx context.Context, evalCtx, addr uint32) error
	EvalCtxSetData(ctx context.Context, evalCtx, addr uint32) error
	Eval(ctx context.Context, evalCtx uint32) error
	EvalCtxGetResult(ctx context.Context, evalCtx uint32) (uint32, error)
	Close(ctx context.Context) error
}

var _ guestInstance = (*wasmvm.Instance)(nil)
