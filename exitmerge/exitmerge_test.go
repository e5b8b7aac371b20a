package exitmerge

import (
	"strings"
	"testing"

	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
	"github.com/nickng/boundsopt/pass"
	"github.com/pkg/errors"
)

func TestMergeTwoExits(t *testing.T) {
	b := build(form{})
	if err := ir.Verify(b.f); err != nil {
		t.Fatalf("Verify failed: %v\n%s", err, b.f)
	}
	if !New().RunOnLoop(outermost(b.f)) {
		t.Fatalf("loop should be transformed:\n%s", b.f)
	}
	if err := ir.Verify(b.f); err != nil {
		t.Fatalf("Verify failed after transform: %v\n%s", err, b.f)
	}
	l := outermost(b.f)
	if got := l.ExitingBlocks(); len(got) != 1 || got[0] != b.header {
		t.Errorf("exiting blocks: want [%d], got %v\n%s", b.header, got, b.f)
	}
	out := b.f.String()
	for _, want := range []string{
		"lastiter = sub m 1",
		"comparesize = cmp ule n lastiter",
		"smallersize = select comparesize n m",
		"newloopexitcond = cmp eq i smallersize",
		"unifiedexit",
		"if comparesize goto 3 else 4",
		"jump 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, gone := range []string{"c1 =", "c2 ="} {
		if strings.Contains(out, gone) {
			t.Errorf("stale condition %q left behind:\n%s", gone, out)
		}
	}
	if f := b.f; len(f.Preds(b.y)) != 1 || len(f.Preds(b.x)) != 1 || f.Preds(b.x)[0] != f.Preds(b.y)[0] {
		t.Errorf("both targets should be reached only from the unified exit:\n%s", f)
	}
}

func TestConstLimitsFolded(t *testing.T) {
	b := build(form{consts: true, n: 10, m: 20})
	if !New().RunOnLoop(outermost(b.f)) {
		t.Fatalf("loop should be transformed:\n%s", b.f)
	}
	out := b.f.String()
	for _, want := range []string{
		"comparesize = cmp ule 10 19",
		"smallersize = select comparesize 10 20",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "lastiter") {
		t.Errorf("constant limit should be folded:\n%s", out)
	}
}

func TestMergeLatchTestsInductionVariable(t *testing.T) {
	b := build(form{latchOnI: true, headerNE: true})
	if !New().RunOnLoop(outermost(b.f)) {
		t.Fatalf("loop should be transformed:\n%s", b.f)
	}
	out := b.f.String()
	for _, want := range []string{
		"lastiter.next = add m 1",
		"comparesize = cmp ule n m",
		"smallersize = select comparesize n lastiter.next",
		"newloopexitcond = cmp ne i smallersize",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if err := ir.Verify(b.f); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestSameTarget(t *testing.T) {
	b := build(form{sameTarget: true, exitPhi: [2]int64{7, 7}})
	if !New().RunOnLoop(outermost(b.f)) {
		t.Fatalf("loop should be transformed:\n%s", b.f)
	}
	if err := ir.Verify(b.f); err != nil {
		t.Fatalf("Verify failed: %v\n%s", err, b.f)
	}
	preds := b.f.Preds(b.x)
	if len(preds) != 1 {
		t.Fatalf("x should have the unified exit as only pred, got %v", preds)
	}
	if _, ok := b.f.Instr(b.f.Terminator(preds[0])).(*ir.Jump); !ok {
		t.Errorf("unified exit to a single target should jump:\n%s", b.f)
	}
}

func TestSecondRunUnchanged(t *testing.T) {
	b := build(form{})
	p := New()
	if !p.RunOnLoop(outermost(b.f)) {
		t.Fatalf("first run should transform")
	}
	before := b.f.String()
	if _, err := p.Analyze(outermost(b.f)); errors.Cause(err) != ErrSingleExit {
		t.Errorf("second run: want ErrSingleExit, got %v", err)
	}
	if p.RunOnLoop(outermost(b.f)) {
		t.Errorf("second run should not transform")
	}
	if after := b.f.String(); after != before {
		t.Errorf("second run changed the function:\n%s", after)
	}
}

func TestNotApplicable(t *testing.T) {
	tests := []struct {
		name string
		f    func() *ir.Func
		opts []Option
		want error
	}{
		{
			name: "store in header",
			f:    func() *ir.Func { return build(form{headerStore: true}).f },
			want: ErrHeaderEffect,
		},
		{
			name: "limit collision",
			f: func() *ir.Func {
				b := build(form{})
				b.f.SetOperand(b.c2, 1, b.n)
				return b.f
			},
			want: ErrLimitCollision,
		},
		{
			name: "constant limit collision",
			f:    func() *ir.Func { return build(form{consts: true, n: 5, m: 5}).f },
			want: ErrLimitCollision,
		},
		{
			name: "not equality",
			f: func() *ir.Func {
				b := build(form{})
				b.f.Instr(b.c2).(*ir.Cmp).Pred = ir.SLT
				return b.f
			},
			want: ErrNotEquality,
		},
		{
			name: "variant limit",
			f: func() *ir.Func {
				b := build(form{})
				v := b.f.InsertBefore(b.c1, &ir.Load{Addr: b.p}, "v")
				b.f.SetOperand(b.c1, 1, v)
				return b.f
			},
			want: ErrVariantLimit,
		},
		{
			name: "not inductive",
			f: func() *ir.Func {
				b := build(form{})
				b.f.SetOperand(b.c2, 0, b.p)
				return b.f
			},
			want: ErrNotInductive,
		},
		{
			name: "exit on inequality",
			f: func() *ir.Func {
				b := build(form{})
				b.f.Instr(b.c2).(*ir.Cmp).Pred = ir.NE
				return b.f
			},
			want: ErrPolarity,
		},
		{
			name: "induction variable used after the loop",
			f: func() *ir.Func {
				b := build(form{})
				b.f.SetOperand(b.f.Terminator(b.x), 0, b.i)
				return b.f
			},
			want: ErrLiveOut,
		},
		{
			name: "different values into the same target",
			f:    func() *ir.Func { return build(form{sameTarget: true, exitPhi: [2]int64{1, 2}}).f },
			want: ErrExitValue,
		},
		{
			name: "invariance oracle rejects",
			f:    func() *ir.Func { return build(form{}).f },
			opts: []Option{WithInvariance(func(*loop.Loop, ir.ValueID) bool { return false })},
			want: ErrVariantLimit,
		},
		{
			name: "relocation predicate rejects",
			f:    func() *ir.Func { return build(form{}).f },
			opts: []Option{WithRelocatable(func(*loop.Loop, ir.BlockID) bool { return false })},
			want: ErrNotRelocatable,
		},
		{
			name: "single exit",
			f:    singleExit,
			want: ErrSingleExit,
		},
		{
			name: "three exits",
			f:    threeExits,
			want: ErrNotRelocatable,
		},
		{
			name: "three exits, all relocatable",
			f:    threeExits,
			opts: []Option{WithRelocatable(func(*loop.Loop, ir.BlockID) bool { return true })},
			want: ErrLimitCount,
		},
		{
			name: "no preheader",
			f:    noPreheader,
			want: ErrNoPreheader,
		},
		{
			name: "not canonical",
			f: func() *ir.Func {
				b := build(form{})
				b.f.SetOperand(b.next, 1, b.f.Const(2))
				return b.f
			},
			want: ErrNoIndVar,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.f()
			if err := ir.Verify(f); err != nil {
				t.Fatalf("Verify failed: %v\n%s", err, f)
			}
			before := f.String()
			p := New(tt.opts...)
			if _, err := p.Analyze(outermost(f)); errors.Cause(err) != tt.want {
				t.Errorf("Analyze: want %v, got %v", tt.want, err)
			}
			if p.RunOnLoop(outermost(f)) {
				t.Errorf("RunOnLoop should not transform")
			}
			if after := f.String(); after != before {
				t.Errorf("function changed:\nbefore:\n%s\nafter:\n%s", before, after)
			}
		})
	}
}

func TestHeaderStoreWithPermissivePolicy(t *testing.T) {
	b := build(form{headerStore: true})
	p := New(WithSideEffects(func(ir.Instr) bool { return false }))
	if !p.RunOnLoop(outermost(b.f)) {
		t.Errorf("loop should be transformed when nothing counts as a side effect")
	}
}

func TestNilLoop(t *testing.T) {
	p := New()
	if _, err := p.Analyze(nil); err != ErrNilLoop {
		t.Errorf("want ErrNilLoop, got %v", err)
	}
	if p.RunOnLoop(nil) {
		t.Errorf("nil loop should not be transformed")
	}
}

func TestRegistered(t *testing.T) {
	factory, err := pass.Lookup(Name)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	p := factory(logging.Nop())
	if p.Name() != Name {
		t.Errorf("want %q, got %q", Name, p.Name())
	}
	r, ok := p.(pass.Requirer)
	if !ok {
		t.Fatalf("pass should declare its requirements")
	}
	if got := r.Requires(); len(got) != 2 || got[0] != pass.LoopStructure || got[1] != pass.Invariance {
		t.Errorf("requires: got %v", got)
	}
}

func TestManager(t *testing.T) {
	b := build(form{})
	m := pass.NewManager(New())
	m.SetVerify(true)
	changed, err := m.RunOnFunc(b.f)
	if err != nil {
		t.Fatalf("RunOnFunc failed: %v", err)
	}
	if !changed {
		t.Errorf("RunOnFunc should report a change")
	}
	if changed, _ := m.RunOnFunc(b.f); changed {
		t.Errorf("second RunOnFunc should not change anything")
	}
}

func singleExit() *ir.Func {
	b := build(form{})
	f := b.f
	f.ReplaceTerminator(b.latch, &ir.Jump{Target: b.header}, "")
	f.Erase(b.c2)
	return f
}

// threeExits adds a middle block exiting when i == k to the two exit loop.
func threeExits() *ir.Func {
	b := build(form{})
	f := b.f
	k := f.AddParam("k")
	mid := f.NewBlockBefore("for.mid", b.latch)
	f.SetSuccessor(f.Terminator(b.header), 1, mid)
	c3 := f.Append(mid, &ir.Cmp{Pred: ir.EQ, X: b.i, Y: k}, "c3")
	f.Append(mid, &ir.If{Cond: c3, Then: b.y, Else: b.latch}, "")
	return f
}

func noPreheader() *ir.Func {
	b := build(form{})
	f := b.f
	// entry: if n == 0 goto y else header
	c0 := f.InsertBefore(f.Terminator(b.entry), &ir.Cmp{Pred: ir.EQ, X: b.n, Y: f.Const(0)}, "c0")
	f.ReplaceTerminator(b.entry, &ir.If{Cond: c0, Then: b.y, Else: b.header}, "")
	return f
}
