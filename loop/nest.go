package loop

import "github.com/nickng/boundsopt/ir"

// Nest is the forest of loops of a function.
type Nest struct {
	f         *ir.Func
	top       []*Loop
	all       []*Loop // In header layout order.
	innermost map[ir.BlockID]*Loop
}

// Func returns the function of the nest.
func (n *Nest) Func() *ir.Func { return n.f }

// Loops returns the outermost loops.
func (n *Nest) Loops() []*Loop { return append([]*Loop(nil), n.top...) }

// All returns every loop of the nest.
func (n *Nest) All() []*Loop { return append([]*Loop(nil), n.all...) }

// LoopFor returns the innermost loop containing b, or nil.
func (n *Nest) LoopFor(b ir.BlockID) *Loop { return n.innermost[b] }

// PostOrder returns the loops with every loop after the loops nested in it.
func (n *Nest) PostOrder() []*Loop {
	type frame struct {
		l    *Loop
		next int // Index of the next child to visit.
	}
	var order []*Loop
	for _, root := range n.top {
		stack := []*frame{{l: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next < len(top.l.children) {
				stack = append(stack, &frame{l: top.l.children[top.next]})
				top.next++
				continue
			}
			order = append(order, top.l)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}
