package ir

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrMalformed is the cause of every error returned by Verify.
var ErrMalformed = errors.New("malformed function")

// Verify checks the structural invariants of f: terminators, predecessor
// lists, phi edges, user lists and dominance of definitions over uses.
func Verify(f *Func) error {
	if f.Entry == NoBlock {
		return errors.Wrapf(ErrMalformed, "%s: no entry block", f.Name)
	}
	if len(f.Block(f.Entry).Preds) > 0 {
		return errors.Wrapf(ErrMalformed, "%s: entry block has predecessors", f.Name)
	}
	dom := Dominators(f)

	// Predecessor lists must equal the multiset of incoming edges.
	edges := make(map[BlockID][]BlockID)
	for _, b := range f.layout {
		blk := f.Block(b)
		if len(blk.Instrs) == 0 {
			return errors.Wrapf(ErrMalformed, "%s: block %s is empty", f.Name, blk)
		}
		for i, v := range blk.Instrs {
			val := f.values[v]
			if val.erased || val.Block != b {
				return errors.Wrapf(ErrMalformed, "%s: block %s lists stale value t%d", f.Name, blk, v)
			}
			_, isTerm := val.Instr.(Terminator)
			if last := i == len(blk.Instrs)-1; isTerm != last {
				return errors.Wrapf(ErrMalformed, "%s: block %s: terminator misplaced at %s", f.Name, blk, f.NameOf(v))
			}
			if _, isPhi := val.Instr.(*Phi); isPhi && i > len(f.Phis(b))-1 {
				return errors.Wrapf(ErrMalformed, "%s: block %s: phi %s after non-phi", f.Name, blk, f.NameOf(v))
			}
		}
		for _, s := range f.Succs(b) {
			if !f.HasBlock(s) {
				return errors.Wrapf(ErrMalformed, "%s: block %s jumps to missing block %d", f.Name, blk, s)
			}
			edges[s] = append(edges[s], b)
		}
	}
	for _, b := range f.layout {
		if !sameBlocks(edges[b], f.blocks[b].Preds) {
			return errors.Wrapf(ErrMalformed, "%s: block %s: preds %v, incoming edges %v",
				f.Name, f.blocks[b], f.blocks[b].Preds, edges[b])
		}
	}

	for _, b := range f.layout {
		blk := f.blocks[b]
		for _, v := range blk.Instrs {
			if err := verifyValue(f, dom, v); err != nil {
				return err
			}
		}
	}
	return verifyUsers(f)
}

func verifyValue(f *Func, dom *DomTree, v ValueID) error {
	val := f.values[v]
	blk := f.blocks[val.Block]
	if phi, ok := val.Instr.(*Phi); ok {
		preds := make([]BlockID, len(phi.Edges))
		for i, e := range phi.Edges {
			preds[i] = e.Pred
		}
		if !sameBlocks(preds, blk.Preds) {
			return errors.Wrapf(ErrMalformed, "%s: phi %s edges %v, preds %v", f.Name, f.NameOf(v), preds, blk.Preds)
		}
		for _, e := range phi.Edges {
			if !f.HasValue(e.Value) {
				return errors.Wrapf(ErrMalformed, "%s: phi %s uses missing value t%d", f.Name, f.NameOf(v), e.Value)
			}
			def := f.values[e.Value].Block
			if def != NoBlock && !dom.Dominates(def, e.Pred) {
				return errors.Wrapf(ErrMalformed, "%s: phi %s: %s does not dominate edge from %s",
					f.Name, f.NameOf(v), f.NameOf(e.Value), f.blocks[e.Pred])
			}
		}
		return nil
	}
	for _, op := range val.Instr.Operands() {
		if !f.HasValue(op) {
			return errors.Wrapf(ErrMalformed, "%s: %s uses missing value t%d", f.Name, f.NameOf(v), op)
		}
		def := f.values[op].Block
		if def == NoBlock {
			continue
		}
		if def == val.Block {
			if indexOf(blk.Instrs, op) > indexOf(blk.Instrs, v) {
				return errors.Wrapf(ErrMalformed, "%s: %s used by %s before definition", f.Name, f.NameOf(op), f.NameOf(v))
			}
			continue
		}
		if !dom.Dominates(def, val.Block) {
			return errors.Wrapf(ErrMalformed, "%s: %s does not dominate its use by %s", f.Name, f.NameOf(op), f.NameOf(v))
		}
	}
	return nil
}

// verifyUsers checks that user lists mirror operand lists.
func verifyUsers(f *Func) error {
	uses := make(map[ValueID][]ValueID)
	for _, val := range f.values {
		if val.erased || (val.Block != NoBlock && f.blocks[val.Block].erased) {
			continue
		}
		for _, op := range val.Instr.Operands() {
			uses[op] = append(uses[op], val.ID)
		}
	}
	for _, val := range f.values {
		if val.erased {
			continue
		}
		if !sameValues(uses[val.ID], val.users) {
			return errors.Wrapf(ErrMalformed, "%s: %s: users %v, uses %v", f.Name, f.NameOf(val.ID), val.users, uses[val.ID])
		}
	}
	return nil
}

func indexOf(vs []ValueID, v ValueID) int {
	for i, x := range vs {
		if x == v {
			return i
		}
	}
	return -1
}

func sameBlocks(a, b []BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]BlockID(nil), a...)
	y := append([]BlockID(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func sameValues(a, b []ValueID) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]ValueID(nil), a...)
	y := append([]ValueID(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
