package ir

import "fmt"

// AddParam appends a parameter to f.
func (f *Func) AddParam(name string) ValueID {
	v := f.newValue(NoBlock, &Param{Index: len(f.Params)}, name)
	f.Params = append(f.Params, v)
	return v
}

// Const returns the interned constant c.
func (f *Func) Const(c int64) ValueID {
	if v, ok := f.consts[c]; ok {
		return v
	}
	v := f.newValue(NoBlock, &Const{Int: c}, "")
	f.consts[c] = v
	return v
}

// NewBlock appends a new empty block to f. The first block created is the
// entry block.
func (f *Func) NewBlock(name string) BlockID {
	b := f.newBlock(name)
	f.layout = append(f.layout, b)
	if f.Entry == NoBlock {
		f.Entry = b
	}
	return b
}

// NewBlockBefore creates a new empty block placed before pos in the layout.
func (f *Func) NewBlockBefore(name string, pos BlockID) BlockID {
	f.Block(pos)
	b := f.newBlock(name)
	for i, id := range f.layout {
		if id == pos {
			f.layout = append(f.layout[:i], append([]BlockID{b}, f.layout[i:]...)...)
			break
		}
	}
	return b
}

func (f *Func) newBlock(name string) BlockID {
	b := BlockID(len(f.blocks))
	f.blocks = append(f.blocks, &Block{ID: b, Name: name})
	return b
}

func (f *Func) newValue(b BlockID, instr Instr, name string) ValueID {
	v := ValueID(len(f.values))
	for _, op := range instr.Operands() {
		f.Value(op).users = append(f.values[op].users, v)
	}
	f.values = append(f.values, &Value{ID: v, Name: name, Block: b, Instr: instr})
	return v
}

// Append adds instr to the end of b and returns its value. Phis are placed
// after the existing phis of b. Appending a terminator adds the outgoing edges
// to the predecessor lists of the successors.
func (f *Func) Append(b BlockID, instr Instr, name string) ValueID {
	if f.Terminator(b) != NoValue {
		panic(fmt.Sprintf("ir: %s: block %s is already terminated", f.Name, f.blocks[b]))
	}
	checkPlaceable(instr)
	blk := f.blocks[b]
	v := f.newValue(b, instr, name)
	if _, ok := instr.(*Phi); ok {
		n := len(f.Phis(b))
		blk.Instrs = append(blk.Instrs[:n], append([]ValueID{v}, blk.Instrs[n:]...)...)
		return v
	}
	blk.Instrs = append(blk.Instrs, v)
	if t, ok := instr.(Terminator); ok {
		for _, succ := range t.Succs() {
			f.Block(succ).Preds = append(f.blocks[succ].Preds, b)
		}
	}
	return v
}

// InsertBefore inserts instr immediately before pos, in the block of pos.
// instr must be neither a phi nor a terminator.
func (f *Func) InsertBefore(pos ValueID, instr Instr, name string) ValueID {
	switch instr.(type) {
	case *Phi, Terminator:
		panic(fmt.Sprintf("ir: %s: cannot insert %T before an instruction", f.Name, instr))
	}
	checkPlaceable(instr)
	b := f.Value(pos).Block
	if b == NoBlock {
		panic(fmt.Sprintf("ir: %s: %s is not in a block", f.Name, f.NameOf(pos)))
	}
	blk := f.blocks[b]
	v := f.newValue(b, instr, name)
	for i, id := range blk.Instrs {
		if id == pos {
			blk.Instrs = append(blk.Instrs[:i], append([]ValueID{v}, blk.Instrs[i:]...)...)
			break
		}
	}
	return v
}

// ReplaceTerminator replaces the terminator of b with t and returns the new
// terminator value.
func (f *Func) ReplaceTerminator(b BlockID, t Terminator, name string) ValueID {
	if old := f.Terminator(b); old != NoValue {
		f.Erase(old)
	}
	return f.Append(b, t, name)
}

// SetSuccessor points successor slot i of the terminator term at to.
func (f *Func) SetSuccessor(term ValueID, i int, to BlockID) {
	val := f.Value(term)
	t, ok := val.Instr.(Terminator)
	if !ok {
		panic(fmt.Sprintf("ir: %s: %s is not a terminator", f.Name, f.NameOf(term)))
	}
	f.Block(to)
	old := t.Succs()[i]
	f.removePred(old, val.Block)
	t.setSucc(i, to)
	f.blocks[to].Preds = append(f.blocks[to].Preds, val.Block)
}

// SetOperand sets operand slot i of v to op.
func (f *Func) SetOperand(v ValueID, i int, op ValueID) {
	val := f.Value(v)
	f.Value(op)
	old := val.Instr.Operands()[i]
	f.removeUser(old, v)
	val.Instr.setOperand(i, op)
	f.values[op].users = append(f.values[op].users, v)
}

// SetCondition sets the condition of the If terminator term.
func (f *Func) SetCondition(term ValueID, cond ValueID) {
	if _, ok := f.Value(term).Instr.(*If); !ok {
		panic(fmt.Sprintf("ir: %s: %s is not a conditional branch", f.Name, f.NameOf(term)))
	}
	f.SetOperand(term, 0, cond)
}

// AddPhiEdge adds an incoming edge from pred carrying v to phi.
func (f *Func) AddPhiEdge(phi ValueID, pred BlockID, v ValueID) {
	p, ok := f.Value(phi).Instr.(*Phi)
	if !ok {
		panic(fmt.Sprintf("ir: %s: %s is not a phi", f.Name, f.NameOf(phi)))
	}
	f.Value(v)
	p.Edges = append(p.Edges, PhiEdge{Pred: pred, Value: v})
	f.values[v].users = append(f.values[v].users, phi)
}

// ReplacePhiPred renames the incoming block old to to in every phi of b.
func (f *Func) ReplacePhiPred(b BlockID, old, to BlockID) {
	for _, phi := range f.Phis(b) {
		p := f.values[phi].Instr.(*Phi)
		for i := range p.Edges {
			if p.Edges[i].Pred == old {
				p.Edges[i].Pred = to
			}
		}
	}
}

// RemovePhiEdges drops the edges incoming from pred in every phi of b.
func (f *Func) RemovePhiEdges(b BlockID, pred BlockID) {
	for _, phi := range f.Phis(b) {
		p := f.values[phi].Instr.(*Phi)
		edges := p.Edges[:0]
		for _, e := range p.Edges {
			if e.Pred == pred {
				f.removeUser(e.Value, phi)
				continue
			}
			edges = append(edges, e)
		}
		p.Edges = edges
	}
}

// Erase removes the instruction v from its block. v must have no users.
func (f *Func) Erase(v ValueID) {
	val := f.Value(v)
	if val.Block == NoBlock {
		panic(fmt.Sprintf("ir: %s: cannot erase %s", f.Name, f.NameOf(v)))
	}
	if len(val.users) > 0 {
		panic(fmt.Sprintf("ir: %s: cannot erase %s: %d users", f.Name, f.NameOf(v), len(val.users)))
	}
	for _, op := range val.Instr.Operands() {
		f.removeUser(op, v)
	}
	if t, ok := val.Instr.(Terminator); ok {
		for _, succ := range t.Succs() {
			f.removePred(succ, val.Block)
		}
	}
	blk := f.blocks[val.Block]
	for i, id := range blk.Instrs {
		if id == v {
			blk.Instrs = append(blk.Instrs[:i], blk.Instrs[i+1:]...)
			break
		}
	}
	val.erased = true
}

// removeUser drops one use of v by user.
func (f *Func) removeUser(v, user ValueID) {
	val := f.values[v]
	for i, u := range val.users {
		if u == user {
			val.users = append(val.users[:i], val.users[i+1:]...)
			return
		}
	}
}

// removePred drops one edge pred → b.
func (f *Func) removePred(b, pred BlockID) {
	blk := f.blocks[b]
	for i, p := range blk.Preds {
		if p == pred {
			blk.Preds = append(blk.Preds[:i], blk.Preds[i+1:]...)
			return
		}
	}
}

func checkPlaceable(instr Instr) {
	switch instr.(type) {
	case *Param, *Const:
		panic(fmt.Sprintf("ir: %T cannot be placed in a block", instr))
	}
}
