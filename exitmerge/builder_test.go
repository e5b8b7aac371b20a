package exitmerge

import (
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
)

// form selects a variant of the two exit loop
//
//	entry:  jump header
//	header: i = phi [entry: 0, latch: next]
//	        c1 = cmp eq i n
//	        if c1 goto x else latch
//	latch:  store p i
//	        next = add i 1
//	        c2 = cmp eq next m
//	        if c2 goto y else header
//	x:      return 1
//	y:      return 2
type form struct {
	latchOnI    bool // Latch tests i rather than next.
	headerNE    bool // Header exits when i != n is false.
	latchNE     bool // Latch exits when next != m is false.
	noStore     bool
	headerStore bool // Store in the header.
	sameTarget  bool // Both exits lead to x.
	exitPhi     [2]int64
	consts      bool // Limits are the constants n and m below.
	n, m        int64
}

type twoExit struct {
	f                          *ir.Func
	entry, header, latch, x, y ir.BlockID
	i, next, n, m, p, c1, c2   ir.ValueID
}

func build(fm form) *twoExit {
	f := ir.NewFunc("twoexit")
	t := &twoExit{f: f}
	t.n, t.m, t.p = f.AddParam("n"), f.AddParam("m"), f.AddParam("p")
	if fm.consts {
		t.n, t.m = f.Const(fm.n), f.Const(fm.m)
	}
	t.entry = f.NewBlock("entry")
	t.header = f.NewBlock("for.loop")
	t.latch = f.NewBlock("for.body")
	t.x = f.NewBlock("for.done")
	t.y = f.NewBlock("panic")

	f.Append(t.entry, &ir.Jump{Target: t.header}, "")

	t.i = f.Append(t.header, &ir.Phi{}, "i")
	if fm.headerStore {
		f.Append(t.header, &ir.Store{Addr: t.p, Val: f.Const(-1)}, "")
	}
	if fm.headerNE {
		t.c1 = f.Append(t.header, &ir.Cmp{Pred: ir.NE, X: t.i, Y: t.n}, "c1")
		f.Append(t.header, &ir.If{Cond: t.c1, Then: t.latch, Else: t.x}, "")
	} else {
		t.c1 = f.Append(t.header, &ir.Cmp{Pred: ir.EQ, X: t.i, Y: t.n}, "c1")
		f.Append(t.header, &ir.If{Cond: t.c1, Then: t.x, Else: t.latch}, "")
	}

	if !fm.noStore {
		f.Append(t.latch, &ir.Store{Addr: t.p, Val: t.i}, "")
	}
	t.next = f.Append(t.latch, &ir.BinOp{Op: ir.Add, X: t.i, Y: f.Const(1)}, "next")
	tested := t.next
	if fm.latchOnI {
		tested = t.i
	}
	exit2 := t.y
	if fm.sameTarget {
		exit2 = t.x
	}
	if fm.latchNE {
		t.c2 = f.Append(t.latch, &ir.Cmp{Pred: ir.NE, X: tested, Y: t.m}, "c2")
		f.Append(t.latch, &ir.If{Cond: t.c2, Then: t.header, Else: exit2}, "")
	} else {
		t.c2 = f.Append(t.latch, &ir.Cmp{Pred: ir.EQ, X: tested, Y: t.m}, "c2")
		f.Append(t.latch, &ir.If{Cond: t.c2, Then: exit2, Else: t.header}, "")
	}
	f.AddPhiEdge(t.i, t.entry, f.Const(0))
	f.AddPhiEdge(t.i, t.latch, t.next)

	if fm.sameTarget {
		r := f.Append(t.x, &ir.Phi{}, "r")
		f.AddPhiEdge(r, t.header, f.Const(fm.exitPhi[0]))
		f.AddPhiEdge(r, t.latch, f.Const(fm.exitPhi[1]))
		f.Append(t.x, &ir.Return{Results: []ir.ValueID{r}}, "")
	} else {
		f.Append(t.x, &ir.Return{Results: []ir.ValueID{f.Const(1)}}, "")
	}
	f.Append(t.y, &ir.Return{Results: []ir.ValueID{f.Const(2)}}, "")
	return t
}

// outermost returns the first loop of f.
func outermost(f *ir.Func) *loop.Loop {
	loops := loop.NewDetector().Detect(f).Loops()
	if len(loops) == 0 {
		return nil
	}
	return loops[0]
}
