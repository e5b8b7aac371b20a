package exitmerge

import "github.com/nickng/boundsopt/ir"

// Rewrite applies the merge to the function. It must be called at most once,
// on a function not modified since Analyze.
//
// The header exit fires at the start of iteration h, where h is its limit, or
// its limit minus one if it tests the incremented value. The relocated exit
// fires at the end of iteration k, defined likewise. The unmodified loop
// leaves through the header iff h <= k, and otherwise at the start of
// iteration k + 1 as far as the header can tell, so the header tests
//
//	i == select(h <= k, h, k + 1)
//
// with unsigned comparison, which is exact for every pair of 64-bit limits.
func (m *Merge) Rewrite() {
	f := m.f
	for _, e := range m.convert {
		f.ReplaceTerminator(e.block, &ir.Jump{Target: e.stay}, "")
		eraseIfDead(f, e.cond)
	}

	pt := f.Terminator(m.preheader)
	h := m.header.limit
	if m.header.onNext {
		h = offset(f, pt, h, -1, "headeriter")
	}
	k, kNext := m.relocated.limit, m.relocated.limit
	if m.relocated.onNext {
		k = offset(f, pt, k, -1, "lastiter")
	} else {
		kNext = offset(f, pt, k, 1, "lastiter.next")
	}
	compare := f.InsertBefore(pt, &ir.Cmp{Pred: ir.ULE, X: h, Y: k}, "comparesize")
	smaller := f.InsertBefore(pt, &ir.Select{Cond: compare, X: h, Y: kNext}, "smallersize")

	target1, target2 := m.header.target, m.relocated.target
	unified := f.NewBlockBefore("unifiedexit", target1)
	if target1 == target2 {
		f.Append(unified, &ir.Jump{Target: target1}, "")
		f.ReplacePhiPred(target1, m.header.block, unified)
		f.RemovePhiEdges(target1, m.relocated.block)
	} else {
		f.Append(unified, &ir.If{Cond: compare, Then: target1, Else: target2}, "")
		f.ReplacePhiPred(target1, m.header.block, unified)
		f.ReplacePhiPred(target2, m.relocated.block, unified)
	}

	f.SetSuccessor(m.header.term, m.header.slot, unified)
	pred := ir.EQ
	if m.header.slot == 1 {
		pred = ir.NE
	}
	cond := f.InsertBefore(m.header.term, &ir.Cmp{Pred: pred, X: m.iv.Phi, Y: smaller}, "newloopexitcond")
	f.SetCondition(m.header.term, cond)
	eraseIfDead(f, m.header.cond)
}

// offset returns v + d, folded if v is a constant and otherwise computed
// before pos.
func offset(f *ir.Func, pos, v ir.ValueID, d int64, name string) ir.ValueID {
	if c, ok := f.Instr(v).(*ir.Const); ok {
		return f.Const(c.Int + d)
	}
	if d < 0 {
		return f.InsertBefore(pos, &ir.BinOp{Op: ir.Sub, X: v, Y: f.Const(-d)}, name)
	}
	return f.InsertBefore(pos, &ir.BinOp{Op: ir.Add, X: v, Y: f.Const(d)}, name)
}

// eraseIfDead erases the comparison v if nothing uses it any more.
func eraseIfDead(f *ir.Func, v ir.ValueID) {
	if _, ok := f.Instr(v).(*ir.Cmp); ok && len(f.Users(v)) == 0 {
		f.Erase(v)
	}
}
