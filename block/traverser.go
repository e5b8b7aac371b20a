// Package block provides traversals over the control flow graph of an
// ir.Func.
package block

import "github.com/nickng/boundsopt/ir"

// TraverseEdges takes a Func and applies visit to each edge, breadth first
// from the entry block. Each block is entered once, along the first edge that
// reaches it; the entry is visited with from set to ir.NoBlock.
func TraverseEdges(f *ir.Func, visit func(from, to ir.BlockID)) {
	if f.Entry == ir.NoBlock {
		return
	}
	type Edge struct {
		From, To ir.BlockID
	}
	visited := make(map[ir.BlockID]bool)
	queue := []Edge{{From: ir.NoBlock, To: f.Entry}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if !visited[e.To] {
			visited[e.To] = true
			visit(e.From, e.To)
			for _, succ := range f.Succs(e.To) {
				queue = append(queue, Edge{From: e.To, To: succ})
			}
		}
	}
}

// Reachable returns the set of blocks reachable from the entry of f.
func Reachable(f *ir.Func) map[ir.BlockID]bool {
	seen := make(map[ir.BlockID]bool)
	TraverseEdges(f, func(_, to ir.BlockID) { seen[to] = true })
	return seen
}

// Edges returns every edge of f as (from, to) pairs in layout order, one pair
// per successor slot.
func Edges(f *ir.Func) [][2]ir.BlockID {
	var edges [][2]ir.BlockID
	for _, b := range f.Blocks() {
		for _, s := range f.Succs(b) {
			edges = append(edges, [2]ir.BlockID{b, s})
		}
	}
	return edges
}

// ExitEdges returns the edges leaving the set of blocks in.
func ExitEdges(f *ir.Func, in func(ir.BlockID) bool) [][2]ir.BlockID {
	var edges [][2]ir.BlockID
	for _, e := range Edges(f) {
		if in(e[0]) && !in(e[1]) {
			edges = append(edges, e)
		}
	}
	return edges
}
