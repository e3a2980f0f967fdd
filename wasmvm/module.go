package wasmvm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/policyvm/errs"
)

const (
	envNamespace = "env"

	// hostNamespace holds the Go-side callbacks the env shim re-exports.
	hostNamespace = "policyvm.host"
)

// Host imports required by every compiled policy module.
const (
	exportAbort      = "opa_abort"
	memoryExportName = "memory"
)

func builtinImportName(arity int) string { return fmt.Sprintf("opa_builtin%d", arity) }

// Guest exports required by every compiled policy module.
const (
	exportMalloc           = "opa_malloc"
	exportJSONParse        = "opa_json_parse"
	exportJSONDump         = "opa_json_dump"
	exportHeapPtrGet       = "opa_heap_ptr_get"
	exportHeapPtrSet       = "opa_heap_ptr_set"
	exportHeapTopGet       = "opa_heap_top_get"
	exportHeapTopSet       = "opa_heap_top_set"
	exportEvalCtxNew       = "opa_eval_ctx_new"
	exportEvalCtxSetInput  = "opa_eval_ctx_set_input"
	exportEvalCtxSetData   = "opa_eval_ctx_set_data"
	exportEvalCtxGetResult = "opa_eval_ctx_get_result"
	exportEval             = "eval"
	exportBuiltins         = "builtins"
)

var requiredExports = []string{
	exportMalloc,
	exportHeapPtrGet, exportHeapPtrSet,
	exportHeapTopGet, exportHeapTopSet,
	exportEvalCtxNew, exportEvalCtxSetInput, exportEvalCtxSetData, exportEvalCtxGetResult,
	exportEval,
	exportBuiltins,
}

// Module is a compiled, not-yet-instantiated policy module.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates a fresh guest instance, binding the module's
// required host imports to binder (see the re-entrant initialization
// pattern documented on Binder). The linear memory and the host imports
// come from the Engine's env shim, which is built on the Engine's first
// Instantiate call: later instances of the same Engine share that memory,
// and their callbacks go to the binder passed on that first call.
func (m *Module) Instantiate(ctx context.Context, binder *Binder) (*Instance, error) {
	if err := m.engine.ensureEnvModule(ctx, binder); err != nil {
		return nil, err
	}

	cfg := wazero.NewModuleConfig().WithName("")
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, errs.New(errs.PhaseInitialization, errs.KindInvalidBuiltins).
			Detail("instantiate policy module").Cause(err).Build()
	}

	inst := &Instance{mod: mod, exports: map[string]api.Function{}}
	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			mod.Close(ctx)
			return nil, errs.MissingExport(name)
		}
		inst.exports[name] = fn
	}
	// Optional debug-only exports; absence is not fatal since the core
	// codec never calls them.
	inst.exports[exportJSONParse] = mod.ExportedFunction(exportJSONParse)
	inst.exports[exportJSONDump] = mod.ExportedFunction(exportJSONDump)

	mem := mod.Memory()
	if mem == nil {
		mod.Close(ctx)
		return nil, errs.MissingExport(memoryExportName)
	}
	inst.memory = &guestMemory{mem: mem}
	return inst, nil
}
