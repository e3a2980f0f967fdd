package wasmvm

import (
	"context"
	"sync"
)

// BuiltinHandler decodes a built-in callback's arguments, invokes the
// registered host function, and encodes the result back into the guest
// heap, returning the result address (or 0 on any error — the handler
// itself is responsible for logging).
type BuiltinHandler interface {
	Invoke(ctx context.Context, id uint32, evalCtx uint32, args []uint32) uint32
}

// Binder resolves a re-entrant initialization problem: the host import
// closures must exist before the instance does,
// but the handler that answers them needs the instance (to walk its
// memory). A Binder is created first, wired into the host imports, and
// Bound to the real handler only after Instantiate returns. The guest
// cannot call back in between, since it has no chance to run before the
// first exported call.
type Binder struct {
	mu      sync.Mutex
	handler BuiltinHandler
}

// NewBinder creates an unbound Binder.
func NewBinder() *Binder { return &Binder{} }

// Bind attaches the handler that will answer built-in callbacks from now
// on.
func (b *Binder) Bind(h BuiltinHandler) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

func (b *Binder) invoke(ctx context.Context, id, evalCtx uint32, args []uint32) uint32 {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return 0
	}
	return h.Invoke(ctx, id, evalCtx, args)
}

func makeBuiltinImport(arity int, binder *Binder) any {
	switch arity {
	case 0:
		return func(ctx context.Context, id, evalCtx uint32) uint32 {
			return binder.invoke(ctx, id, evalCtx, nil)
		}
	case 1:
		return func(ctx context.Context, id, evalCtx, a0 uint32) uint32 {
			return binder.invoke(ctx, id, evalCtx, []uint32{a0})
		}
	case 2:
		return func(ctx context.Context, id, evalCtx, a0, a1 uint32) uint32 {
			return binder.invoke(ctx, id, evalCtx, []uint32{a0, a1})
		}
	case 3:
		return func(ctx context.Context, id, evalCtx, a0, a1, a2 uint32) uint32 {
			return binder.invoke(ctx, id, evalCtx, []uint32{a0, a1, a2})
		}
	case 4:
		return func(ctx context.Context, id, evalCtx, a0, a1, a2, a3 uint32) uint32 {
			return binder.invoke(ctx, id, evalCtx, []uint32{a0, a1, a2, a3})
		}
	default:
		panic("wasmvm: builtin arity must be 0..4")
	}
}
