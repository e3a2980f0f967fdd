package policy

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/policyvm/builtin"
	"github.com/wippyai/policyvm/codec"
	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

// dispatcher answers the guest's opa_builtinN callbacks: it decodes the
// numeric built-in id into a name, decodes the argument addresses into
// value.Value, invokes the matching builtin.FnN, and encodes the result
// back into the guest heap. It implements wasmvm.BuiltinHandler.
type dispatcher struct {
	instance guestInstance
	idToName map[uint32]string
	logger   *zap.Logger
}

// newDispatcher decodes the guest's builtins() table and builds the
// {id -> name} reverse map, failing initialization if any declared name is
// not in the host's known set.
func newDispatcher(ctx context.Context, instance guestInstance, logger *zap.Logger) (*dispatcher, error) {
	addr, err := instance.Builtins(ctx)
	if err != nil {
		return nil, err
	}
	v, err := codec.DecodeFromHeap(instance.Memory(), addr)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, errs.New(errs.PhaseInitialization, errs.KindInvalidBuiltins).
			Detail("builtins() returned a %s, expected an object", v.Kind()).Build()
	}

	idToName := make(map[uint32]string, obj.Len())
	var outerErr error
	obj.Range(func(k, val value.Value) bool {
		name, ok := k.(value.String)
		if !ok {
			outerErr = errs.New(errs.PhaseInitialization, errs.KindInvalidBuiltins).
				Detail("builtins() key %v is not a string", k).Build()
			return false
		}
		n, ok := val.(value.Number)
		if !ok {
			outerErr = errs.InvalidType("Number", val.Kind().String())
			return false
		}
		id, err := n.Int64()
		if err != nil || id < 0 {
			outerErr = errs.InvalidType("Number", "non-integer")
			return false
		}
		if !builtin.Known(string(name)) {
			outerErr = errs.UnknownBuiltin(string(name))
			return false
		}
		idToName[uint32(id)] = string(name)
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}

	return &dispatcher{instance: instance, idToName: idToName, logger: logger}, nil
}

// Invoke implements wasmvm.BuiltinHandler. Any error along the decode/
// invoke/encode path is logged at debug level and answered with address 0,
// which the guest interprets as "no result" — this fallback is lossy
// (a genuine guest "no result" and a host-side dispatch failure become
// indistinguishable to the caller) and documented here rather than
// resolved.
func (d *dispatcher) Invoke(ctx context.Context, id, evalCtx uint32, args []uint32) uint32 {
	name, ok := d.idToName[id]
	if !ok {
		d.logger.Debug("unknown builtin id", zap.Uint32("id", id), zap.Error(errs.UnknownBuiltinID(id)))
		return 0
	}

	mem := d.instance.Memory()
	decoded := make([]value.Value, len(args))
	for i, addr := range args {
		v, err := codec.DecodeFromHeap(mem, addr)
		if err != nil {
			d.logger.Debug("builtin argument decode failed", zap.String("name", name), zap.Error(err))
			return 0
		}
		decoded[i] = v
	}

	result, err := d.call(name, decoded)
	if err != nil {
		d.logger.Debug("builtin call failed", zap.String("name", name), zap.Error(err))
		return 0
	}

	addr, err := codec.EncodeToHeap(ctx, mem, d.instance, result)
	if err != nil {
		d.logger.Debug("builtin result encode failed", zap.String("name", name), zap.Error(err))
		return 0
	}
	return addr
}

func (d *dispatcher) call(name string, args []value.Value) (value.Value, error) {
	switch len(args) {
	case 0:
		fn, ok := builtin.Arity0[name]
		if !ok {
			return nil, errs.UnknownBuiltin(name)
		}
		return fn()
	case 1:
		fn, ok := builtin.Arity1[name]
		if !ok {
			return nil, errs.UnknownBuiltin(name)
		}
		return fn(args[0])
	case 2:
		fn, ok := builtin.Arity2[name]
		if !ok {
			return nil, errs.UnknownBuiltin(name)
		}
		return fn(args[0], args[1])
	case 3:
		fn, ok := builtin.Arity3[name]
		if !ok {
			return nil, errs.UnknownBuiltin(name)
		}
		return fn(args[0], args[1], args[2])
	case 4:
		fn, ok := builtin.Arity4[name]
		if !ok {
			return nil, errs.UnknownBuiltin(name)
		}
		return fn(args[0], args[1], args[2], args[3])
	default:
		return nil, errs.New(errs.PhaseDispatch, errs.KindUnknownBuiltin).
			Name(name).Detail("arity %d not supported", len(args)).Build()
	}
}
