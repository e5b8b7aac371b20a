package lower

import (
	"go/token"

	"github.com/nickng/boundsopt/ir"
	"golang.org/x/tools/go/ssa"
)

func (lw *lowerer) VisitAlloc(instr *ssa.Alloc)                     { lw.opaque(instr, false) }
func (lw *lowerer) VisitChangeInterface(instr *ssa.ChangeInterface) { lw.opaque(instr, false) }
func (lw *lowerer) VisitDebugRef(instr *ssa.DebugRef)               {}
func (lw *lowerer) VisitDefer(instr *ssa.Defer)                     { lw.opaque(instr, true) }
func (lw *lowerer) VisitExtract(instr *ssa.Extract)                 { lw.opaque(instr, false) }
func (lw *lowerer) VisitField(instr *ssa.Field)                     { lw.opaque(instr, false) }
func (lw *lowerer) VisitFieldAddr(instr *ssa.FieldAddr)             { lw.opaque(instr, true) }
func (lw *lowerer) VisitGo(instr *ssa.Go)                           { lw.opaque(instr, true) }
func (lw *lowerer) VisitIndex(instr *ssa.Index)                     { lw.opaque(instr, true) }
func (lw *lowerer) VisitIndexAddr(instr *ssa.IndexAddr)             { lw.opaque(instr, true) }
func (lw *lowerer) VisitLookup(instr *ssa.Lookup)                   { lw.opaque(instr, true) }
func (lw *lowerer) VisitMakeChan(instr *ssa.MakeChan)               { lw.opaque(instr, true) }
func (lw *lowerer) VisitMakeClosure(instr *ssa.MakeClosure)         { lw.opaque(instr, false) }
func (lw *lowerer) VisitMakeInterface(instr *ssa.MakeInterface)     { lw.opaque(instr, false) }
func (lw *lowerer) VisitMakeMap(instr *ssa.MakeMap)                 { lw.opaque(instr, true) }
func (lw *lowerer) VisitMakeSlice(instr *ssa.MakeSlice)             { lw.opaque(instr, true) }
func (lw *lowerer) VisitMapUpdate(instr *ssa.MapUpdate)             { lw.opaque(instr, true) }
func (lw *lowerer) VisitMultiConvert(instr *ssa.MultiConvert)       { lw.opaque(instr, false) }
func (lw *lowerer) VisitNext(instr *ssa.Next)                       { lw.opaque(instr, true) }
func (lw *lowerer) VisitRange(instr *ssa.Range)                     { lw.opaque(instr, false) }
func (lw *lowerer) VisitRunDefers(instr *ssa.RunDefers)             { lw.opaque(instr, true) }
func (lw *lowerer) VisitSelect(instr *ssa.Select)                   { lw.opaque(instr, true) }
func (lw *lowerer) VisitSend(instr *ssa.Send)                       { lw.opaque(instr, true) }
func (lw *lowerer) VisitSlice(instr *ssa.Slice)                     { lw.opaque(instr, true) }

func (lw *lowerer) VisitSliceToArrayPointer(instr *ssa.SliceToArrayPointer) {
	lw.opaque(instr, true)
}

// A failed type assertion panics unless it is the comma-ok form.
func (lw *lowerer) VisitTypeAssert(instr *ssa.TypeAssert) {
	lw.opaque(instr, !instr.CommaOk)
}

func (lw *lowerer) VisitBinOp(instr *ssa.BinOp) {
	t := instr.X.Type()
	if !isInteger(t) {
		lw.opaque(instr, false)
		return
	}
	unsigned := isUnsigned(t)
	if p, ok := predicate(instr.Op, unsigned); ok {
		x, y := lw.operand(instr.X), lw.operand(instr.Y)
		lw.emit(instr, &ir.Cmp{Pred: p, X: x, Y: y})
		return
	}
	if instr.Op == token.AND_NOT && is64(t) {
		x, y := lw.operand(instr.X), lw.operand(instr.Y)
		mask := lw.f.Append(lw.cur, &ir.BinOp{Op: ir.Xor, X: y, Y: lw.f.Const(-1)}, "")
		lw.emit(instr, &ir.BinOp{Op: ir.And, X: x, Y: mask})
		return
	}
	// Narrower arithmetic wraps at its own width. Division by zero panics.
	op, ok := arith[instr.Op]
	if !ok || !is64(t) || unsigned && (op == ir.Div || op == ir.Rem || op == ir.Shr) {
		lw.opaque(instr, ok && (op == ir.Div || op == ir.Rem))
		return
	}
	x, y := lw.operand(instr.X), lw.operand(instr.Y)
	lw.emit(instr, &ir.BinOp{Op: op, X: x, Y: y})
}

func (lw *lowerer) VisitUnOp(instr *ssa.UnOp) {
	wide := is64(instr.X.Type())
	switch {
	case instr.Op == token.MUL:
		lw.emit(instr, &ir.Load{Addr: lw.operand(instr.X)})
	case instr.Op == token.SUB && wide:
		lw.emit(instr, &ir.BinOp{Op: ir.Sub, X: lw.f.Const(0), Y: lw.operand(instr.X)})
	case instr.Op == token.XOR && wide:
		lw.emit(instr, &ir.BinOp{Op: ir.Xor, X: lw.operand(instr.X), Y: lw.f.Const(-1)})
	case instr.Op == token.NOT:
		lw.emit(instr, &ir.BinOp{Op: ir.Xor, X: lw.operand(instr.X), Y: lw.f.Const(1)})
	default:
		// Channel receive blocks.
		lw.opaque(instr, instr.Op == token.ARROW)
	}
}

func (lw *lowerer) VisitCall(instr *ssa.Call) {
	common := instr.Common()
	var args []ir.ValueID
	if common.IsInvoke() {
		args = append(args, lw.operand(common.Value))
	}
	for _, a := range common.Args {
		args = append(args, lw.operand(a))
	}
	call := &ir.Call{Args: args}
	switch callee := common.Value.(type) {
	case *ssa.Builtin:
		call.Callee, call.Pure = callee.Name(), pureBuiltins[callee.Name()]
	default:
		switch {
		case common.IsInvoke():
			call.Callee = common.Method.FullName()
		case common.StaticCallee() != nil:
			call.Callee = common.StaticCallee().String()
		default:
			call.Callee = "indirect"
			call.Args = append([]ir.ValueID{lw.operand(common.Value)}, args...)
		}
	}
	lw.emit(instr, call)
}

// Integer conversions between 64-bit types keep the bits of the operand.
func (lw *lowerer) VisitChangeType(instr *ssa.ChangeType) {
	if isInteger(instr.X.Type()) {
		lw.values[instr] = lw.operand(instr.X)
		return
	}
	lw.opaque(instr, false)
}

func (lw *lowerer) VisitConvert(instr *ssa.Convert) {
	if is64(instr.X.Type()) && is64(instr.Type()) {
		lw.values[instr] = lw.operand(instr.X)
		return
	}
	lw.opaque(instr, false)
}

func (lw *lowerer) VisitPhi(instr *ssa.Phi) {
	lw.phis = append(lw.phis, instr)
	lw.emit(instr, &ir.Phi{})
}

func (lw *lowerer) VisitStore(instr *ssa.Store) {
	addr, val := lw.operand(instr.Addr), lw.operand(instr.Val)
	lw.emit(nil, &ir.Store{Addr: addr, Val: val})
}

func (lw *lowerer) VisitIf(instr *ssa.If) {
	succs := instr.Block().Succs
	cond := lw.operand(instr.Cond)
	lw.emit(nil, &ir.If{Cond: cond, Then: lw.blocks[succs[0]], Else: lw.blocks[succs[1]]})
}

func (lw *lowerer) VisitJump(instr *ssa.Jump) {
	lw.emit(nil, &ir.Jump{Target: lw.blocks[instr.Block().Succs[0]]})
}

func (lw *lowerer) VisitReturn(instr *ssa.Return) {
	results := make([]ir.ValueID, len(instr.Results))
	for i, r := range instr.Results {
		results[i] = lw.operand(r)
	}
	lw.emit(nil, &ir.Return{Results: results})
}

func (lw *lowerer) VisitPanic(instr *ssa.Panic) {
	lw.emit(nil, &ir.Panic{Arg: lw.operand(instr.X)})
}
