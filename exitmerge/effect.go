package exitmerge

import "github.com/nickng/boundsopt/ir"

// MayHaveSideEffects is the default side effect policy. Stores, calls not
// known to be pure, volatile loads, opaque instructions with effects, panics
// and divisions (which may trap) have side effects.
func MayHaveSideEffects(instr ir.Instr) bool {
	switch i := instr.(type) {
	case *ir.Store, *ir.Panic:
		return true
	case *ir.Call:
		return !i.Pure
	case *ir.Load:
		return i.Volatile
	case *ir.Opaque:
		return i.Effect
	case *ir.BinOp:
		return i.Op == ir.Div || i.Op == ir.Rem
	}
	return false
}
