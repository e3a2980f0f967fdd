package wasmvm

// The env shim is a synthetic wasm module encoded by hand. wazero's
// HostModuleBuilder can only export Go functions, but a compiled policy
// module imports both its host callbacks and its linear memory from the
// single "env" namespace. The shim closes that gap: it imports the six
// callbacks from the internal host module and re-exports them under
// their ABI names, and it defines the linear memory itself, exported as
// "memory" so the host can read and write it through the guest instance.

// envFunc is one host callback the shim imports and re-exports:
// paramCount i32 parameters, and an i32 result unless void.
type envFunc struct {
	name       string
	paramCount int
	void       bool
}

func envFuncs() []envFunc {
	fns := []envFunc{{name: exportAbort, paramCount: 1, void: true}}
	for n := 0; n <= 4; n++ {
		// id, ctx, then one address per argument.
		fns = append(fns, envFunc{name: builtinImportName(n), paramCount: n + 2})
	}
	return fns
}

// buildEnvModule encodes the shim: type and import sections covering the
// host callbacks, a memory section defining minPages of linear memory
// with no maximum, and an export section re-exporting the imported
// functions plus the memory.
func buildEnvModule(hostModule string, minPages uint32) []byte {
	fns := envFuncs()

	var wasm []byte
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d) // magic
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00) // version

	wasm = appendSection(wasm, 0x01, buildEnvTypeSection(fns))
	wasm = appendSection(wasm, 0x02, buildEnvImportSection(hostModule, fns))
	wasm = appendSection(wasm, 0x05, buildEnvMemorySection(minPages))
	wasm = appendSection(wasm, 0x07, buildEnvExportSection(fns))
	return wasm
}

func appendSection(wasm []byte, id byte, body []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, uleb128(uint32(len(body)))...)
	return append(wasm, body...)
}

const (
	valTypeI32 = 0x7f

	importKindFunc   = 0x00
	importKindMemory = 0x02
)

// buildEnvTypeSection emits one function type per callback, in callback
// order, so the import section can reference type index i for function i.
func buildEnvTypeSection(fns []envFunc) []byte {
	var section []byte
	section = append(section, uleb128(uint32(len(fns)))...)
	for _, f := range fns {
		section = append(section, 0x60)
		section = append(section, uleb128(uint32(f.paramCount))...)
		for i := 0; i < f.paramCount; i++ {
			section = append(section, valTypeI32)
		}
		if f.void {
			section = append(section, 0x00)
		} else {
			section = append(section, 0x01, valTypeI32)
		}
	}
	return section
}

func buildEnvImportSection(hostModule string, fns []envFunc) []byte {
	var section []byte
	section = append(section, uleb128(uint32(len(fns)))...)
	for i, f := range fns {
		section = append(section, encodeName(hostModule)...)
		section = append(section, encodeName(f.name)...)
		section = append(section, importKindFunc)
		section = append(section, uleb128(uint32(i))...)
	}
	return section
}

func buildEnvMemorySection(minPages uint32) []byte {
	var section []byte
	section = append(section, 0x01)
	section = append(section, 0x00) // limits: min only, no max
	section = append(section, uleb128(minPages)...)
	return section
}

// buildEnvExportSection re-exports each imported function directly (an
// imported function's index is its import order) plus the memory.
func buildEnvExportSection(fns []envFunc) []byte {
	var section []byte
	section = append(section, uleb128(uint32(len(fns)+1))...)
	section = append(section, encodeName(memoryExportName)...)
	section = append(section, importKindMemory)
	section = append(section, uleb128(0)...)
	for i, f := range fns {
		section = append(section, encodeName(f.name)...)
		section = append(section, importKindFunc)
		section = append(section, uleb128(uint32(i))...)
	}
	return section
}

func encodeName(s string) []byte {
	out := uleb128(uint32(len(s)))
	return append(out, s...)
}

func uleb128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}
