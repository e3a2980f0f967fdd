// Package policy implements the public façade over a compiled Rego-to-wasm
// policy module: instantiation, data loading, and per-call evaluation
// against the heap-checkpoint protocol.
package policy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/policyvm/codec"
	"github.com/wippyai/policyvm/internal/log"
	"github.com/wippyai/policyvm/value"
	"github.com/wippyai/policyvm/wasmvm"
)

// Option configures a Policy at construction time, following the same
// functional-options-plus-defaults construction idiom used elsewhere in
// this module.
type Option func(*config)

type config struct {
	memoryPages uint32
	logger      *zap.Logger
	deadline    time.Duration
}

// WithMemoryPages overrides the initial number of 64KiB linear memory
// pages granted to the guest instance.
func WithMemoryPages(n uint32) Option {
	return func(c *config) { c.memoryPages = n }
}

// WithLogger overrides the logger used for lifecycle and built-in dispatch
// events. The default is a no-op logger (internal/log.Default).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDeadline bounds a single Evaluate/SetData call; exceeding it closes
// the context passed into the wasm call, which wazero surfaces as a trap.
// Zero (the default) means no deadline.
func WithDeadline(d time.Duration) Option {
	return func(c *config) { c.deadline = d }
}

// Policy is a host-visible handle to an instantiated policy module. A
// Policy is not safe for concurrent use: Evaluate and SetData both mutate
// guest linear memory and require exclusive access; a Policy
// embeds a mutex instead of leaving this fully undefined, so concurrent
// callers get documented blocking/lock ordering rather than racy memory
// corruption.
type Policy struct {
	mu sync.Mutex

	engine   *wasmvm.Engine
	module   *wasmvm.Module
	instance guestInstance
	binder   *wasmvm.Binder
	disp     *dispatcher
	logger   *zap.Logger
	deadline time.Duration

	baseCheckpoint wasmvm.Checkpoint
	dataCheckpoint wasmvm.Checkpoint
	dataAddr       uint32
}

// FromWasm instantiates a compiled policy module from its wasm bytes. It
// fails with errs.MissingExport if a required export is absent, with a
// Wasm/initialization error if instantiation traps, or with
// errs.UnknownBuiltin if the guest's builtins() table names a function
// outside the host's known set. A base checkpoint is recorded and an
// empty `data` document is loaded before FromWasm returns.
func FromWasm(ctx context.Context, wasmBytes []byte, opts ...Option) (*Policy, error) {
	cfg := config{memoryPages: 0}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.Default()
	}

	var engineOpts []wasmvm.EngineOption
	if cfg.memoryPages > 0 {
		engineOpts = append(engineOpts, wasmvm.WithMemoryPages(cfg.memoryPages))
	}
	engine := wasmvm.NewEngine(ctx, engineOpts...)

	module, err := engine.Compile(ctx, wasmBytes)
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}

	binder := wasmvm.NewBinder()
	instance, err := module.Instantiate(ctx, binder)
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}

	disp, err := newDispatcher(ctx, instance, logger)
	if err != nil {
		instance.Close(ctx)
		engine.Close(ctx)
		return nil, err
	}
	binder.Bind(disp)

	baseCheckpoint, err := instance.CaptureCheckpoint(ctx)
	if err != nil {
		instance.Close(ctx)
		engine.Close(ctx)
		return nil, err
	}

	p := &Policy{
		engine:         engine,
		module:         module,
		instance:       instance,
		binder:         binder,
		disp:           disp,
		logger:         logger,
		deadline:       cfg.deadline,
		baseCheckpoint: baseCheckpoint,
	}

	if err := p.setDataLocked(ctx, value.NewObject()); err != nil {
		instance.Close(ctx)
		engine.Close(ctx)
		return nil, err
	}
	return p, nil
}

// Close releases the wasm instance and its engine. A closed Policy must
// not be used again.
func (p *Policy) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.instance.Close(ctx); err != nil {
		return err
	}
	return p.engine.Close(ctx)
}

// SetData rewinds to the base checkpoint, encodes v as the new `data`
// document, and moves the data checkpoint forward past it. It acquires
// the Policy's exclusive lock, since it mutates guest linear memory.
func (p *Policy) SetData(ctx context.Context, v value.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}
	return p.setDataLocked(ctx, v)
}

func (p *Policy) setDataLocked(ctx context.Context, v value.Value) error {
	if err := p.instance.RestoreCheckpoint(ctx, p.baseCheckpoint); err != nil {
		return err
	}
	addr, err := codec.EncodeToHeap(ctx, p.instance.Memory(), p.instance, v)
	if err != nil {
		return err
	}
	checkpoint, err := p.instance.CaptureCheckpoint(ctx)
	if err != nil {
		return err
	}
	p.dataAddr = addr
	p.dataCheckpoint = checkpoint
	return nil
}

// Evaluate rewinds to the data checkpoint, encodes input, creates a fresh
// evaluation context, runs the policy's eval export, decodes the result
// address, and returns it. On return, memory above the data checkpoint is
// logically scrap and will be reclaimed by the next Evaluate/SetData call.
//
// A result address of 0 is read back as value.Null{}: a guest "no result"
// is not guaranteed to be semantically identical to Rego's own
// `undefined` at every callsite, so this fallback is documented as lossy
// rather than silently treated as equivalent.
func (p *Policy) Evaluate(ctx context.Context, input value.Value) (value.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deadline)
		defer cancel()
	}

	if err := p.instance.RestoreCheckpoint(ctx, p.dataCheckpoint); err != nil {
		return nil, err
	}
	inputAddr, err := codec.EncodeToHeap(ctx, p.instance.Memory(), p.instance, input)
	if err != nil {
		return nil, err
	}

	evalCtx, err := p.instance.EvalCtxNew(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.instance.EvalCtxSetInput(ctx, evalCtx, inputAddr); err != nil {
		return nil, err
	}
	if err := p.instance.EvalCtxSetData(ctx, evalCtx, p.dataAddr); err != nil {
		return nil, err
	}
	if err := p.instance.Eval(ctx, evalCtx); err != nil {
		return nil, err
	}

	resultAddr, err := p.instance.EvalCtxGetResult(ctx, evalCtx)
	if err != nil {
		return nil, err
	}
	if resultAddr == 0 {
		p.logger.Debug("evaluate returned no result address; surfacing as null")
		return value.Null{}, nil
	}
	return codec.DecodeFromHeap(p.instance.Memory(), resultAddr)
}
