package policy

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/wippyai/policyvm/codec"
	"github.com/wippyai/policyvm/value"
)

func newTestPolicy(t *testing.T, evalFn func(ctx context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error)) *Policy {
	t.Helper()
	ctx := context.Background()
	fi := newFakeInstance(evalFn)
	base, err := fi.CaptureCheckpoint(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p := &Policy{instance: fi, logger: zap.NewNop(), baseCheckpoint: base}
	if err := p.setDataLocked(ctx, value.NewObject()); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPolicyEvaluateEchoesInput(t *testing.T) {
	ctx := context.Background()
	p := newTestPolicy(t, echoInputEvalFn)

	got, err := p.Evaluate(ctx, value.String("hello"))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := got.(value.String)
	if !ok || string(s) != "hello" {
		t.Fatalf("Evaluate = %#v, want \"hello\"", got)
	}
}

func TestPolicyEvaluateCheckpointIdempotence(t *testing.T) {
	ctx := context.Background()
	p := newTestPolicy(t, echoInputEvalFn)
	fi := p.instance.(*fakeInstance)

	input := value.String("same-input")
	if _, err := p.Evaluate(ctx, input); err != nil {
		t.Fatal(err)
	}
	after1, err := fi.CaptureCheckpoint(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Evaluate(ctx, input); err != nil {
		t.Fatal(err)
	}
	after2, err := fi.CaptureCheckpoint(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if after1 != after2 {
		t.Fatalf("repeated Evaluate with identical input left different heap high-water marks: %+v vs %+v", after1, after2)
	}
}

func TestPolicySetDataIsolation(t *testing.T) {
	ctx := context.Background()
	p := newTestPolicy(t, echoDataEvalFn)

	d1 := value.NewObject()
	d1.Set(value.String("k"), value.Int(1))
	if err := p.SetData(ctx, d1); err != nil {
		t.Fatal(err)
	}
	r1, err := p.Evaluate(ctx, value.Null{})
	if err != nil {
		t.Fatal(err)
	}

	d2 := value.NewObject()
	d2.Set(value.String("k"), value.Int(2))
	if err := p.SetData(ctx, d2); err != nil {
		t.Fatal(err)
	}
	r2, err := p.Evaluate(ctx, value.Null{})
	if err != nil {
		t.Fatal(err)
	}
	if value.Compare(r1, r2) == 0 {
		t.Fatal("expected evaluate results to differ across SetData calls with different data")
	}

	if err := p.SetData(ctx, d1); err != nil {
		t.Fatal(err)
	}
	r1Again, err := p.Evaluate(ctx, value.Null{})
	if err != nil {
		t.Fatal(err)
	}
	if value.Compare(r1, r1Again) != 0 {
		t.Fatalf("re-applying the first data document produced a different result: %#v vs %#v", r1, r1Again)
	}
}

// TestPolicyEvaluateWithBuiltinCallback drives the full re-entrant
// callback loop: the simulated eval reads input.items out of the guest
// heap, calls back into the host's count and plus built-ins through the
// dispatcher (allocating the intermediate results in the same heap, as a
// real guest would), and returns the final address.
func TestPolicyEvaluateWithBuiltinCallback(t *testing.T) {
	ctx := context.Background()

	var disp *dispatcher
	evalFn := func(ctx context.Context, fi *fakeInstance, evalCtx uint32) (uint32, error) {
		in, err := codec.DecodeFromHeap(fi.mem, fi.evalCtxs[evalCtx].input)
		if err != nil {
			return 0, err
		}
		items, ok := in.(*value.Object).Get(value.String("items"))
		if !ok {
			return 0, nil
		}
		itemsAddr, err := codec.EncodeToHeap(ctx, fi.mem, fi, items)
		if err != nil {
			return 0, err
		}
		countAddr := disp.Invoke(ctx, 0, evalCtx, []uint32{itemsAddr})
		if countAddr == 0 {
			return 0, nil
		}
		oneAddr, err := codec.EncodeToHeap(ctx, fi.mem, fi, value.Int(1))
		if err != nil {
			return 0, err
		}
		return disp.Invoke(ctx, 1, evalCtx, []uint32{countAddr, oneAddr}), nil
	}

	fi := newFakeInstance(evalFn)
	fi.builtinsAddr = builtinsTable(t, fi, map[string]int64{"count": 0, "plus": 1})
	d, err := newDispatcher(ctx, fi, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	disp = d

	base, err := fi.CaptureCheckpoint(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p := &Policy{instance: fi, disp: d, logger: zap.NewNop(), baseCheckpoint: base}
	if err := p.setDataLocked(ctx, value.NewObject()); err != nil {
		t.Fatal(err)
	}

	input := value.NewObject()
	input.Set(value.String("items"), value.Array{value.Int(10), value.Int(20), value.Int(30)})
	got, err := p.Evaluate(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := got.(value.Number)
	if !ok {
		t.Fatalf("expected a number, got %T", got)
	}
	i, _ := n.Int64()
	if i != 4 {
		t.Fatalf("count(input.items) + 1 = %d, want 4", i)
	}
}

func TestPolicyEvaluateNilResultAddressReadsAsNull(t *testing.T) {
	ctx := context.Background()
	p := newTestPolicy(t, func(_ context.Context, _ *fakeInstance, _ uint32) (uint32, error) {
		return 0, nil
	})

	got, err := p.Evaluate(ctx, value.Null{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(value.Null); !ok {
		t.Fatalf("expected value.Null{} for a zero result address, got %#v", got)
	}
}
