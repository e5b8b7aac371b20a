package lower

import (
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var ErrUnsupported = errors.New("unsupported instruction")

// Visitor handles each defined go/ssa Instruction.
type Visitor interface {
	VisitAlloc(instr *ssa.Alloc)
	VisitBinOp(instr *ssa.BinOp)
	VisitCall(instr *ssa.Call)
	VisitChangeInterface(instr *ssa.ChangeInterface)
	VisitChangeType(instr *ssa.ChangeType)
	VisitConvert(instr *ssa.Convert)
	VisitDebugRef(instr *ssa.DebugRef)
	VisitDefer(instr *ssa.Defer)
	VisitExtract(instr *ssa.Extract)
	VisitField(instr *ssa.Field)
	VisitFieldAddr(instr *ssa.FieldAddr)
	VisitGo(instr *ssa.Go)
	VisitIf(instr *ssa.If)
	VisitIndex(instr *ssa.Index)
	VisitIndexAddr(instr *ssa.IndexAddr)
	VisitJump(instr *ssa.Jump)
	VisitLookup(instr *ssa.Lookup)
	VisitMakeChan(instr *ssa.MakeChan)
	VisitMakeClosure(instr *ssa.MakeClosure)
	VisitMakeInterface(instr *ssa.MakeInterface)
	VisitMakeMap(instr *ssa.MakeMap)
	VisitMakeSlice(instr *ssa.MakeSlice)
	VisitMapUpdate(instr *ssa.MapUpdate)
	VisitMultiConvert(instr *ssa.MultiConvert)
	VisitNext(instr *ssa.Next)
	VisitPanic(instr *ssa.Panic)
	VisitPhi(instr *ssa.Phi)
	VisitRange(instr *ssa.Range)
	VisitReturn(instr *ssa.Return)
	VisitRunDefers(instr *ssa.RunDefers)
	VisitSelect(instr *ssa.Select)
	VisitSend(instr *ssa.Send)
	VisitSlice(instr *ssa.Slice)
	VisitSliceToArrayPointer(instr *ssa.SliceToArrayPointer)
	VisitStore(instr *ssa.Store)
	VisitTypeAssert(instr *ssa.TypeAssert)
	VisitUnOp(instr *ssa.UnOp)
}

// Visit dispatches instr to the method of v for its kind.
func Visit(v Visitor, instr ssa.Instruction) error {
	switch instr := instr.(type) {
	case *ssa.Alloc:
		v.VisitAlloc(instr)
	case *ssa.BinOp:
		v.VisitBinOp(instr)
	case *ssa.Call:
		v.VisitCall(instr)
	case *ssa.ChangeInterface:
		v.VisitChangeInterface(instr)
	case *ssa.ChangeType:
		v.VisitChangeType(instr)
	case *ssa.Convert:
		v.VisitConvert(instr)
	case *ssa.DebugRef:
		v.VisitDebugRef(instr)
	case *ssa.Defer:
		v.VisitDefer(instr)
	case *ssa.Extract:
		v.VisitExtract(instr)
	case *ssa.Field:
		v.VisitField(instr)
	case *ssa.FieldAddr:
		v.VisitFieldAddr(instr)
	case *ssa.Go:
		v.VisitGo(instr)
	case *ssa.If:
		v.VisitIf(instr)
	case *ssa.Index:
		v.VisitIndex(instr)
	case *ssa.IndexAddr:
		v.VisitIndexAddr(instr)
	case *ssa.Jump:
		v.VisitJump(instr)
	case *ssa.Lookup:
		v.VisitLookup(instr)
	case *ssa.MakeChan:
		v.VisitMakeChan(instr)
	case *ssa.MakeClosure:
		v.VisitMakeClosure(instr)
	case *ssa.MakeInterface:
		v.VisitMakeInterface(instr)
	case *ssa.MakeMap:
		v.VisitMakeMap(instr)
	case *ssa.MakeSlice:
		v.VisitMakeSlice(instr)
	case *ssa.MapUpdate:
		v.VisitMapUpdate(instr)
	case *ssa.MultiConvert:
		v.VisitMultiConvert(instr)
	case *ssa.Next:
		v.VisitNext(instr)
	case *ssa.Panic:
		v.VisitPanic(instr)
	case *ssa.Phi:
		v.VisitPhi(instr)
	case *ssa.Range:
		v.VisitRange(instr)
	case *ssa.Return:
		v.VisitReturn(instr)
	case *ssa.RunDefers:
		v.VisitRunDefers(instr)
	case *ssa.Select:
		v.VisitSelect(instr)
	case *ssa.Send:
		v.VisitSend(instr)
	case *ssa.Slice:
		v.VisitSlice(instr)
	case *ssa.SliceToArrayPointer:
		v.VisitSliceToArrayPointer(instr)
	case *ssa.Store:
		v.VisitStore(instr)
	case *ssa.TypeAssert:
		v.VisitTypeAssert(instr)
	case *ssa.UnOp:
		v.VisitUnOp(instr)
	default:
		return errors.Wrapf(ErrUnsupported, "%s (%T)", instr, instr)
	}
	return nil
}
