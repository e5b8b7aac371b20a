package ir_test

import (
	"strings"
	"testing"

	"github.com/nickng/boundsopt/ir"
	"github.com/pkg/errors"
)

// countdown builds
//
//	entry: jump loop
//	loop:  i = phi [entry: 0, body: next]; c = cmp eq i n; if c goto done else body
//	body:  next = add i 1; jump loop
//	done:  return i
func countdown() (f *ir.Func, entry, loop, body, done ir.BlockID) {
	f = ir.NewFunc("countdown")
	n := f.AddParam("n")
	entry = f.NewBlock("entry")
	loop = f.NewBlock("for.loop")
	body = f.NewBlock("for.body")
	done = f.NewBlock("for.done")
	f.Append(entry, &ir.Jump{Target: loop}, "")
	i := f.Append(loop, &ir.Phi{}, "i")
	c := f.Append(loop, &ir.Cmp{Pred: ir.EQ, X: i, Y: n}, "c")
	f.Append(loop, &ir.If{Cond: c, Then: done, Else: body}, "")
	next := f.Append(body, &ir.BinOp{Op: ir.Add, X: i, Y: f.Const(1)}, "next")
	f.Append(body, &ir.Jump{Target: loop}, "")
	f.AddPhiEdge(i, entry, f.Const(0))
	f.AddPhiEdge(i, body, next)
	f.Append(done, &ir.Return{Results: []ir.ValueID{i}}, "")
	return
}

func TestBuildVerifies(t *testing.T) {
	f, _, loop, _, _ := countdown()
	if err := ir.Verify(f); err != nil {
		t.Fatalf("Verify failed: %v\n%s", err, f)
	}
	if got := len(f.Preds(loop)); got != 2 {
		t.Errorf("loop preds: want 2, got %d", got)
	}
	if got := len(f.Phis(loop)); got != 1 {
		t.Errorf("loop phis: want 1, got %d", got)
	}
}

func TestConstInterned(t *testing.T) {
	f := ir.NewFunc("consts")
	if a, b := f.Const(10), f.Const(10); a != b {
		t.Errorf("Const(10) twice: want same value, got %d and %d", a, b)
	}
	if a, b := f.Const(1), f.Const(2); a == b {
		t.Errorf("Const(1), Const(2): want distinct values")
	}
}

func TestSetSuccessorUpdatesPreds(t *testing.T) {
	f, _, loop, body, done := countdown()
	exit := f.NewBlockBefore("exit", done)
	f.Append(exit, &ir.Return{}, "")
	f.SetSuccessor(f.Terminator(loop), 0, exit)
	if got := f.Preds(done); len(got) != 0 {
		t.Errorf("done preds: want none, got %v", got)
	}
	if got := f.Preds(exit); len(got) != 1 || got[0] != loop {
		t.Errorf("exit preds: want [%d], got %v", loop, got)
	}
	if got := f.Succs(loop); got[0] != exit || got[1] != body {
		t.Errorf("loop succs: want [%d %d], got %v", exit, body, got)
	}
	blocks := f.Blocks()
	if blocks[len(blocks)-2] != exit {
		t.Errorf("exit should be placed before done, layout %v", blocks)
	}
}

func TestReplaceTerminator(t *testing.T) {
	f, _, loop, body, done := countdown()
	cond := f.Instr(f.Terminator(loop)).(*ir.If).Cond
	f.ReplaceTerminator(loop, &ir.Jump{Target: body}, "")
	if got := f.Users(cond); len(got) != 0 {
		t.Errorf("old condition users: want none, got %v", got)
	}
	if got := f.Preds(done); len(got) != 0 {
		t.Errorf("done preds: want none, got %v", got)
	}
	f.Erase(cond)
	if f.HasValue(cond) {
		t.Errorf("erased condition is still live")
	}
}

func TestSetOperandUpdatesUsers(t *testing.T) {
	f, _, loop, _, _ := countdown()
	term := f.Terminator(loop)
	c := f.Instr(term).(*ir.If).Cond
	i := f.Phis(loop)[0]
	c2 := f.InsertBefore(term, &ir.Cmp{Pred: ir.NE, X: i, Y: f.Const(3)}, "c2")
	f.SetCondition(term, c2)
	if got := f.Users(c); len(got) != 0 {
		t.Errorf("old condition users: want none, got %v", got)
	}
	if got := f.Users(c2); len(got) != 1 || got[0] != term {
		t.Errorf("new condition users: want [%d], got %v", term, got)
	}
	if err := ir.Verify(f); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestErasePanicsWithUsers(t *testing.T) {
	f, _, loop, _, _ := countdown()
	defer func() {
		if recover() == nil {
			t.Errorf("Erase of a used phi should panic")
		}
	}()
	f.Erase(f.Phis(loop)[0])
}

func TestAppendAfterTerminatorPanics(t *testing.T) {
	f, entry, _, _, _ := countdown()
	defer func() {
		if recover() == nil {
			t.Errorf("Append after a terminator should panic")
		}
	}()
	f.Append(entry, &ir.Return{}, "")
}

func TestVerifyMissingPhiEdge(t *testing.T) {
	f, entry, loop, _, _ := countdown()
	f.RemovePhiEdges(loop, entry)
	err := ir.Verify(f)
	if errors.Cause(err) != ir.ErrMalformed {
		t.Fatalf("Verify: want ErrMalformed, got %v", err)
	}
	if !strings.Contains(err.Error(), "phi") {
		t.Errorf("error should mention the phi, got %v", err)
	}
}

func TestVerifyDominance(t *testing.T) {
	f, _, _, body, done := countdown()
	next := f.Block(body).Instrs[0]
	f.SetOperand(f.Terminator(done), 0, next)
	if err := ir.Verify(f); errors.Cause(err) != ir.ErrMalformed {
		t.Errorf("use of body value in done: want ErrMalformed, got %v", err)
	}
}

func TestDominators(t *testing.T) {
	f, entry, loop, body, done := countdown()
	dom := ir.Dominators(f)
	if got := dom.Idom(loop); got != entry {
		t.Errorf("idom(loop): want %d, got %d", entry, got)
	}
	if got := dom.Idom(body); got != loop {
		t.Errorf("idom(body): want %d, got %d", loop, got)
	}
	if !dom.Dominates(loop, done) {
		t.Errorf("loop should dominate done")
	}
	if dom.Dominates(body, done) {
		t.Errorf("body should not dominate done")
	}
	if got := dom.Idom(entry); got != ir.NoBlock {
		t.Errorf("idom(entry): want NoBlock, got %d", got)
	}
}

// Blocks immediately dominated by the entry must get an immediate dominator
// even though BlockID 0 is the entry itself.
func TestDominatorsBelowEntry(t *testing.T) {
	f := ir.NewFunc("chain")
	entry := f.NewBlock("entry")
	next := f.NewBlock("next")
	last := f.NewBlock("last")
	f.Append(entry, &ir.Jump{Target: next}, "")
	f.Append(next, &ir.Jump{Target: last}, "")
	f.Append(last, &ir.Return{}, "")
	dom := ir.Dominators(f)
	if got := dom.Idom(next); got != entry {
		t.Errorf("idom(next): want %d, got %d", entry, got)
	}
	if got := dom.Idom(last); got != next {
		t.Errorf("idom(last): want %d, got %d", next, got)
	}
	if !dom.Dominates(entry, last) {
		t.Errorf("entry should dominate last")
	}
	if dom.Dominates(last, next) {
		t.Errorf("last should not dominate next")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f, _, loop, body, _ := countdown()
	before := f.String()
	g := f.Clone()
	g.ReplaceTerminator(loop, &ir.Jump{Target: body}, "")
	if f.String() != before {
		t.Errorf("mutating the clone changed the original:\n%s", f)
	}
	if g.String() == before {
		t.Errorf("clone was not mutated")
	}
}

func TestWriteTo(t *testing.T) {
	f, _, _, _, _ := countdown()
	out := f.String()
	for _, want := range []string{
		"func countdown(n):",
		"i = phi [0: 0, 2: next]",
		"c = cmp eq i n",
		"if c goto 3 else 2",
		"return i",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
