package loop

import (
	"bytes"
	"fmt"

	"github.com/nickng/boundsopt/ir"
)

// Loop is a natural loop of a function.
type Loop struct {
	f        *ir.Func
	header   ir.BlockID
	latches  []ir.BlockID // Back edge sources.
	blocks   []ir.BlockID // In layout order, header included.
	in       map[ir.BlockID]bool
	parent   *Loop
	children []*Loop
}

// Func returns the function containing the loop.
func (l *Loop) Func() *ir.Func { return l.f }

// Header returns the header block of the loop.
func (l *Loop) Header() ir.BlockID { return l.header }

// Blocks returns the blocks of the loop.
func (l *Loop) Blocks() []ir.BlockID { return append([]ir.BlockID(nil), l.blocks...) }

// Contains returns true if b is in the loop.
func (l *Loop) Contains(b ir.BlockID) bool { return l.in[b] }

// Parent returns the loop immediately enclosing l, or nil.
func (l *Loop) Parent() *Loop { return l.parent }

// Children returns the loops immediately nested in l.
func (l *Loop) Children() []*Loop { return append([]*Loop(nil), l.children...) }

// Depth is the nesting depth of l, starting at 1 for outermost loops.
func (l *Loop) Depth() int {
	d := 0
	for p := l; p != nil; p = p.parent {
		d++
	}
	return d
}

// ContainsValue returns true if v is defined in the loop.
func (l *Loop) ContainsValue(v ir.ValueID) bool {
	return l.in[l.f.BlockOf(v)]
}

// Latches returns the sources of the back edges to the header.
func (l *Loop) Latches() []ir.BlockID { return append([]ir.BlockID(nil), l.latches...) }

// Latch returns the unique back edge source, or NoBlock.
func (l *Loop) Latch() ir.BlockID {
	if len(l.latches) != 1 {
		return ir.NoBlock
	}
	return l.latches[0]
}

// Preheader returns the unique predecessor of the header outside the loop if
// its only successor is the header, or NoBlock.
func (l *Loop) Preheader() ir.BlockID {
	pre := ir.NoBlock
	for _, p := range l.f.Preds(l.header) {
		if l.in[p] {
			continue
		}
		if pre != ir.NoBlock && pre != p {
			return ir.NoBlock
		}
		pre = p
	}
	if pre == ir.NoBlock {
		return ir.NoBlock
	}
	if succs := l.f.Succs(pre); len(succs) != 1 || succs[0] != l.header {
		return ir.NoBlock
	}
	return pre
}

// IncomingAndBackEdge returns the entering and back edge predecessors of the
// header. ok is false unless the header has exactly two predecessors, one
// outside and one inside the loop.
func (l *Loop) IncomingAndBackEdge() (incoming, backedge ir.BlockID, ok bool) {
	preds := l.f.Preds(l.header)
	if len(preds) != 2 {
		return ir.NoBlock, ir.NoBlock, false
	}
	incoming, backedge = preds[0], preds[1]
	if l.in[incoming] {
		incoming, backedge = backedge, incoming
	}
	if l.in[incoming] || !l.in[backedge] {
		return ir.NoBlock, ir.NoBlock, false
	}
	return incoming, backedge, true
}

// ExitingBlocks returns the blocks of the loop with a successor outside it.
func (l *Loop) ExitingBlocks() []ir.BlockID {
	var exiting []ir.BlockID
	for _, b := range l.blocks {
		if l.IsExiting(b) {
			exiting = append(exiting, b)
		}
	}
	return exiting
}

// IsExiting returns true if b is in the loop and has a successor outside it.
func (l *Loop) IsExiting(b ir.BlockID) bool {
	if !l.in[b] {
		return false
	}
	for _, s := range l.f.Succs(b) {
		if !l.in[s] {
			return true
		}
	}
	return false
}

// ExitBlocks returns the blocks outside the loop with a predecessor inside it,
// without duplicates.
func (l *Loop) ExitBlocks() []ir.BlockID {
	seen := make(map[ir.BlockID]bool)
	var exits []ir.BlockID
	for _, b := range l.blocks {
		for _, s := range l.f.Succs(b) {
			if !l.in[s] && !seen[s] {
				seen[s] = true
				exits = append(exits, s)
			}
		}
	}
	return exits
}

// IsInvariant returns true if v is not defined in the loop.
func (l *Loop) IsInvariant(v ir.ValueID) bool {
	b := l.f.BlockOf(v)
	return b == ir.NoBlock || !l.in[b]
}

// UsedOutside returns true if v has a user outside the loop.
func (l *Loop) UsedOutside(v ir.ValueID) bool {
	for _, u := range l.f.Users(v) {
		if !l.in[l.f.BlockOf(u)] {
			return true
		}
	}
	return false
}

// InductionVariables returns the induction variables of the loop.
func (l *Loop) InductionVariables() []*IndVar {
	incoming, backedge, ok := l.IncomingAndBackEdge()
	if !ok {
		return nil
	}
	var ivs []*IndVar
	for _, phi := range l.f.Phis(l.header) {
		if iv := l.indVar(phi, incoming, backedge); iv != nil {
			ivs = append(ivs, iv)
		}
	}
	return ivs
}

// CanonicalIndVar returns the induction variable starting at 0 and stepping
// by 1, or nil.
func (l *Loop) CanonicalIndVar() *IndVar {
	for _, iv := range l.InductionVariables() {
		if iv.IsCanonical() {
			return iv
		}
	}
	return nil
}

func (l *Loop) indVar(phi ir.ValueID, incoming, backedge ir.BlockID) *IndVar {
	iv := &IndVar{Phi: phi, Init: ir.NoValue, Next: ir.NoValue, f: l.f}
	for _, e := range l.f.Instr(phi).(*ir.Phi).Edges {
		switch e.Pred {
		case incoming:
			iv.Init = e.Value
		case backedge:
			iv.Next = e.Value
		}
	}
	if iv.Init == ir.NoValue || iv.Next == ir.NoValue || !l.IsInvariant(iv.Init) {
		return nil
	}
	op, ok := l.f.Instr(iv.Next).(*ir.BinOp)
	if !ok || !l.ContainsValue(iv.Next) {
		return nil
	}
	var step ir.ValueID
	switch {
	case op.X == phi && (op.Op == ir.Add || op.Op == ir.Sub):
		step = op.Y
	case op.Y == phi && op.Op == ir.Add:
		step = op.X
	default:
		return nil
	}
	c, ok := l.f.Instr(step).(*ir.Const)
	if !ok {
		return nil
	}
	iv.Step = c.Int
	if op.Op == ir.Sub {
		iv.Step = -c.Int
	}
	if c, ok := l.f.Instr(iv.Init).(*ir.Const); ok {
		iv.InitVal, iv.InitConst = c.Int, true
	}
	return iv
}

func (l *Loop) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "loop %s [", l.f.Block(l.header))
	for i, b := range l.blocks {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(&buf, "%d", b)
	}
	buf.WriteString("]")
	return buf.String()
}

// IndVar is a basic induction variable: a header phi taking an initial value
// on entry and Phi + Step along the back edge.
type IndVar struct {
	Phi  ir.ValueID
	Init ir.ValueID // Value on entry.
	Next ir.ValueID // Value along the back edge.
	Step int64

	InitVal   int64 // Value of Init if InitConst.
	InitConst bool

	f *ir.Func
}

// IsCanonical returns true if iv starts at 0 and steps by 1.
func (iv *IndVar) IsCanonical() bool {
	return iv.InitConst && iv.InitVal == 0 && iv.Step == 1
}

func (iv *IndVar) String() string {
	name := iv.f.NameOf(iv.Phi)
	op, step := "+", iv.Step
	if step < 0 {
		op, step = "-", -step
	}
	return fmt.Sprintf("%s = %s; %s = %s %s %d", name, iv.f.NameOf(iv.Init), name, name, op, step)
}
