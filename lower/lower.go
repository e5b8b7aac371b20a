// Package lower translates go/ssa functions into ir functions.
//
// Integer and boolean computation, loads, stores, calls and control flow are
// lowered to their ir counterparts. Everything else becomes an ir.Opaque
// instruction, marked with an effect when it may panic or touch state outside
// the function (indexing, map and channel operations, goroutines, defers).
// Integers are 64-bit values and booleans are 0 and 1; arithmetic on narrower
// integer types is opaque.
package lower

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/ir"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var ErrNoBody = errors.New("function has no body")

// pureBuiltins are builtins without side effects lowered to pure calls.
var pureBuiltins = map[string]bool{"len": true, "cap": true}

// Option configures lowering.
type Option func(*lowerer)

// WithLogger sets the logger used to trace opaque instructions.
func WithLogger(l *logging.Logger) Option {
	return func(lw *lowerer) { lw.log = l }
}

type lowerer struct {
	f      *ir.Func
	blocks map[*ssa.BasicBlock]ir.BlockID
	values map[ssa.Value]ir.ValueID
	phis   []*ssa.Phi
	cur    ir.BlockID
	err    error
	log    *logging.Logger
}

// Function lowers fn. Values are created in dominator tree preorder so that
// every operand except phi edges is lowered before its use.
func Function(fn *ssa.Function, opts ...Option) (*ir.Func, error) {
	if fn == nil || fn.Blocks == nil {
		return nil, errors.Wrapf(ErrNoBody, "%s", fn)
	}
	lw := &lowerer{
		f:      ir.NewFunc(fn.String()),
		blocks: make(map[*ssa.BasicBlock]ir.BlockID),
		values: make(map[ssa.Value]ir.ValueID),
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(lw)
	}
	for _, p := range fn.Params {
		lw.values[p] = lw.f.AddParam(p.Name())
	}
	for _, fv := range fn.FreeVars {
		lw.values[fv] = lw.f.AddParam(fv.Name())
	}
	for _, b := range fn.Blocks {
		lw.blocks[b] = lw.f.NewBlock(b.Comment)
	}

	order := fn.DomPreorder()
	seen := make(map[*ssa.BasicBlock]bool)
	for _, b := range order {
		seen[b] = true
	}
	for _, b := range fn.Blocks {
		if !seen[b] {
			order = append(order, b)
		}
	}
	for _, b := range order {
		lw.cur = lw.blocks[b]
		for _, instr := range b.Instrs {
			if err := Visit(lw, instr); err != nil {
				return nil, errors.Wrapf(err, "%s", fn)
			}
			if lw.err != nil {
				return nil, lw.err
			}
		}
	}

	for _, phi := range lw.phis {
		v := lw.values[phi]
		preds := phi.Block().Preds
		for i, edge := range phi.Edges {
			pred := lw.blocks[preds[i]]
			lw.f.AddPhiEdge(v, pred, lw.operandAt(edge, pred))
			if lw.err != nil {
				return nil, lw.err
			}
		}
	}
	return lw.f, nil
}

// emit appends instr to the current block, recording it as the lowering of
// the go/ssa value v if v is not nil.
func (lw *lowerer) emit(v ssa.Value, instr ir.Instr) ir.ValueID {
	name := ""
	if v != nil {
		name = v.Name()
	}
	id := lw.f.Append(lw.cur, instr, name)
	if v != nil {
		lw.values[v] = id
	}
	return id
}

// opaque emits an opaque instruction for instr, with the operands of instr
// as arguments.
func (lw *lowerer) opaque(instr ssa.Instruction, effect bool) {
	var args []ir.ValueID
	for _, op := range instr.Operands(nil) {
		if *op == nil {
			continue
		}
		args = append(args, lw.operand(*op))
	}
	desc := strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa."))
	lw.log.Debugf("%s: %s: opaque %s", lw.f.Name, lw.f.Block(lw.cur), instr)
	v, _ := instr.(ssa.Value)
	lw.emit(v, &ir.Opaque{Desc: desc, Args: args, Effect: effect})
}

// operand returns the lowering of v for a use in the current block.
func (lw *lowerer) operand(v ssa.Value) ir.ValueID {
	if id, ok := lw.lookup(v); ok {
		return id
	}
	return lw.f.Append(lw.cur, lw.materialize(v), "")
}

// operandAt returns the lowering of v for a use at the end of block b.
func (lw *lowerer) operandAt(v ssa.Value, b ir.BlockID) ir.ValueID {
	if id, ok := lw.lookup(v); ok {
		return id
	}
	return lw.f.InsertBefore(lw.f.Terminator(b), lw.materialize(v), "")
}

func (lw *lowerer) lookup(v ssa.Value) (ir.ValueID, bool) {
	if id, ok := lw.values[v]; ok {
		return id, true
	}
	if c, ok := v.(*ssa.Const); ok {
		if n, ok := constInt(c); ok {
			return lw.f.Const(n), true
		}
		return ir.NoValue, false
	}
	switch v.(type) {
	case *ssa.Global, *ssa.Function, *ssa.Builtin:
		return ir.NoValue, false
	}
	if lw.err == nil {
		lw.err = errors.Errorf("%s: %s used before it is lowered", lw.f.Name, v.Name())
	}
	return lw.f.Const(0), true
}

// materialize returns an opaque instruction computing the value v, which has
// no ir counterpart (globals, functions, non-integer constants).
func (lw *lowerer) materialize(v ssa.Value) ir.Instr {
	switch v := v.(type) {
	case *ssa.Global:
		return &ir.Opaque{Desc: "&" + v.Name()}
	case *ssa.Function:
		return &ir.Opaque{Desc: "func " + v.Name()}
	case *ssa.Const:
		return &ir.Opaque{Desc: "const " + v.Value.ExactString()}
	}
	return &ir.Opaque{Desc: v.String()}
}

// constInt returns the value of an integer, boolean or nil constant.
func constInt(c *ssa.Const) (int64, bool) {
	if c.Value == nil {
		return 0, true
	}
	switch c.Value.Kind() {
	case constant.Bool:
		if constant.BoolVal(c.Value) {
			return 1, true
		}
		return 0, true
	case constant.Int:
		if n, exact := constant.Int64Val(c.Value); exact {
			return n, true
		}
		if n, exact := constant.Uint64Val(c.Value); exact {
			return int64(n), true
		}
	}
	return 0, false
}

func basicInfo(t types.Type) types.BasicInfo {
	if b, ok := t.Underlying().(*types.Basic); ok {
		return b.Info()
	}
	return 0
}

func isInteger(t types.Type) bool {
	return basicInfo(t)&(types.IsInteger|types.IsBoolean) != 0
}

func isUnsigned(t types.Type) bool {
	return basicInfo(t)&types.IsUnsigned != 0
}

// is64 returns true for integer types represented exactly by int64 bits.
func is64(t types.Type) bool {
	if b, ok := t.Underlying().(*types.Basic); ok {
		switch b.Kind() {
		case types.Int, types.Int64, types.Uint, types.Uint64, types.Uintptr:
			return true
		}
	}
	return false
}

var arith = map[token.Token]ir.ArithOp{
	token.ADD: ir.Add,
	token.SUB: ir.Sub,
	token.MUL: ir.Mul,
	token.QUO: ir.Div,
	token.REM: ir.Rem,
	token.AND: ir.And,
	token.OR:  ir.Or,
	token.XOR: ir.Xor,
	token.SHL: ir.Shl,
	token.SHR: ir.Shr,
}

func predicate(op token.Token, unsigned bool) (ir.Predicate, bool) {
	switch op {
	case token.EQL:
		return ir.EQ, true
	case token.NEQ:
		return ir.NE, true
	}
	preds := map[token.Token][2]ir.Predicate{
		token.LSS: {ir.SLT, ir.ULT},
		token.LEQ: {ir.SLE, ir.ULE},
		token.GTR: {ir.SGT, ir.UGT},
		token.GEQ: {ir.SGE, ir.UGE},
	}
	p, ok := preds[op]
	if !ok {
		return 0, false
	}
	if unsigned {
		return p[1], true
	}
	return p[0], true
}
