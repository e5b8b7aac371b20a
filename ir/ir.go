// Package ir is a small SSA intermediate representation for loop
// transformations.
//
// Blocks and values live in per-function arenas and refer to each other by
// index (BlockID and ValueID), so redirecting an edge or an operand is an
// index update. Every value keeps a list of its users, one entry per operand
// slot, which the mutation methods of Func keep up to date. Predecessor lists
// are likewise maintained from the terminators; phi edges are not rewritten
// implicitly and must be updated with AddPhiEdge, ReplacePhiPred or
// RemovePhiEdges when edges move.
//
// Misuse of the mutation API (e.g. appending after a terminator, erasing a
// value that still has users) panics.
package ir

import "fmt"

// BlockID identifies a block within its Func.
type BlockID int

// ValueID identifies a value within its Func.
type ValueID int

const (
	// NoBlock is the BlockID of values not placed in a block (params and
	// constants), and of "no block" results.
	NoBlock BlockID = -1
	// NoValue is the invalid ValueID.
	NoValue ValueID = -1
)

// Func is a function body in SSA form.
type Func struct {
	Name   string
	Params []ValueID
	Entry  BlockID

	blocks []*Block
	values []*Value
	layout []BlockID // Block order for printing and iteration.
	consts map[int64]ValueID
}

// Block is a basic block: a list of instructions ending in a terminator.
type Block struct {
	ID     BlockID
	Name   string    // Comment, e.g. "for.loop".
	Instrs []ValueID // Phis first, terminator last.
	Preds  []BlockID // One entry per incoming edge.

	erased bool
}

// Value is the result, if any, of an instruction.
type Value struct {
	ID    ValueID
	Name  string
	Block BlockID
	Instr Instr

	users  []ValueID
	erased bool
}

// NewFunc returns an empty function.
func NewFunc(name string) *Func {
	return &Func{
		Name:   name,
		Entry:  NoBlock,
		consts: make(map[int64]ValueID),
	}
}

// Block returns the block b.
func (f *Func) Block(b BlockID) *Block {
	if b < 0 || int(b) >= len(f.blocks) || f.blocks[b].erased {
		panic(fmt.Sprintf("ir: %s: no block %d", f.Name, b))
	}
	return f.blocks[b]
}

// Value returns the value v.
func (f *Func) Value(v ValueID) *Value {
	if v < 0 || int(v) >= len(f.values) || f.values[v].erased {
		panic(fmt.Sprintf("ir: %s: no value %d", f.Name, v))
	}
	return f.values[v]
}

// HasValue returns true if v is a live value of f.
func (f *Func) HasValue(v ValueID) bool {
	return v >= 0 && int(v) < len(f.values) && !f.values[v].erased
}

// HasBlock returns true if b is a live block of f.
func (f *Func) HasBlock(b BlockID) bool {
	return b >= 0 && int(b) < len(f.blocks) && !f.blocks[b].erased
}

// Blocks returns the blocks of f in layout order.
func (f *Func) Blocks() []BlockID {
	return append([]BlockID(nil), f.layout...)
}

// NumValues returns the size of the value arena, including erased values.
func (f *Func) NumValues() int { return len(f.values) }

// BlockOf returns the block holding v, or NoBlock.
func (f *Func) BlockOf(v ValueID) BlockID { return f.Value(v).Block }

// Instr returns the instruction of v.
func (f *Func) Instr(v ValueID) Instr { return f.Value(v).Instr }

// Terminator returns the terminator of b, or NoValue if b is not terminated.
func (f *Func) Terminator(b BlockID) ValueID {
	blk := f.Block(b)
	if len(blk.Instrs) == 0 {
		return NoValue
	}
	last := blk.Instrs[len(blk.Instrs)-1]
	if _, ok := f.values[last].Instr.(Terminator); !ok {
		return NoValue
	}
	return last
}

// Succs returns the successors of b in slot order.
func (f *Func) Succs(b BlockID) []BlockID {
	t := f.Terminator(b)
	if t == NoValue {
		return nil
	}
	return f.values[t].Instr.(Terminator).Succs()
}

// Preds returns the predecessors of b, one entry per incoming edge.
func (f *Func) Preds(b BlockID) []BlockID {
	return append([]BlockID(nil), f.Block(b).Preds...)
}

// Users returns the instructions using v, one entry per operand slot.
func (f *Func) Users(v ValueID) []ValueID {
	return append([]ValueID(nil), f.Value(v).users...)
}

// Phis returns the phi nodes at the head of b.
func (f *Func) Phis(b BlockID) []ValueID {
	var phis []ValueID
	for _, v := range f.Block(b).Instrs {
		if _, ok := f.values[v].Instr.(*Phi); !ok {
			break
		}
		phis = append(phis, v)
	}
	return phis
}

// NameOf returns the printed name of v.
func (f *Func) NameOf(v ValueID) string {
	val := f.Value(v)
	if c, ok := val.Instr.(*Const); ok {
		return fmt.Sprintf("%d", c.Int)
	}
	if val.Name != "" {
		return val.Name
	}
	return fmt.Sprintf("t%d", val.ID)
}

// String returns the printed name of b.
func (b *Block) String() string {
	if b.Name == "" {
		return fmt.Sprintf("%d", b.ID)
	}
	return fmt.Sprintf("%d.%s", b.ID, b.Name)
}
