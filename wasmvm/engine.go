// Package wasmvm instantiates a compiled policy module on top of
// tetratelabs/wazero and exposes its required exports as typed
// Go calls, while routing the module's required host imports
// (opa_abort, opa_builtin0..4) to a pluggable handler bound after
// instantiation (see Binder).
package wasmvm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/internal/log"
)

// defaultMemoryPages is the initial size of the host-imported linear
// memory, in 64KiB pages.
const defaultMemoryPages = 5

// Engine owns a wazero runtime and compiles policy modules against it.
type Engine struct {
	runtime     wazero.Runtime
	memoryPages uint32
	envInstance api.Module
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	memoryPages uint32
}

// WithMemoryPages overrides the initial number of 64KiB linear memory
// pages granted to a guest instance.
func WithMemoryPages(n uint32) EngineOption {
	return func(c *engineConfig) { c.memoryPages = n }
}

// NewEngine creates a wazero-backed Engine.
func NewEngine(ctx context.Context, opts ...EngineOption) *Engine {
	cfg := engineConfig{memoryPages: defaultMemoryPages}
	for _, opt := range opts {
		opt(&cfg)
	}
	// CloseOnContextDone lets a caller-supplied deadline interrupt a
	// runaway guest: the in-flight call surfaces as a trap and the heap
	// checkpoint keeps the next evaluation clean.
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	return &Engine{runtime: rt, memoryPages: cfg.memoryPages}
}

// Close releases the underlying wazero runtime and all compiled modules.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Compile parses and validates a compiled policy module's wasm bytes.
func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errs.New(errs.PhaseInitialization, errs.KindInvalidBuiltins).
			Detail("compile policy module").Cause(err).Build()
	}
	return &Module{engine: e, compiled: compiled}, nil
}

// ensureEnvModule registers the "env" namespace a compiled policy module
// imports from. wazero host modules carry functions only, so the
// callbacks live in an internal host module and a synthetic env shim
// (see envmod.go) re-exports them alongside the linear memory it
// defines.
func (e *Engine) ensureEnvModule(ctx context.Context, binder *Binder) error {
	if e.envInstance != nil {
		return nil
	}
	builder := e.runtime.NewHostModuleBuilder(hostNamespace)

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, code uint32) {
			log.Default().Error("policy module aborted", zap.Uint32("code", code))
			panic(fmt.Sprintf("wasm guest called opa_abort(%d)", code))
		}).
		Export(exportAbort)

	for n := 0; n <= 4; n++ {
		builder.NewFunctionBuilder().WithFunc(makeBuiltinImport(n, binder)).Export(builtinImportName(n))
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errs.New(errs.PhaseInitialization, errs.KindMissingExport).
			Detail("register host module %q", hostNamespace).Cause(err).Build()
	}

	envBytes := buildEnvModule(hostNamespace, e.memoryPages)
	compiled, err := e.runtime.CompileModule(ctx, envBytes)
	if err != nil {
		return errs.New(errs.PhaseInitialization, errs.KindMissingExport).
			Detail("compile env shim module").Cause(err).Build()
	}
	instance, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(envNamespace))
	if err != nil {
		return errs.New(errs.PhaseInitialization, errs.KindMissingExport).
			Detail("instantiate env shim module").Cause(err).Build()
	}
	e.envInstance = instance
	return nil
}
