package ir

// ReversePostorder returns the blocks reachable from the entry of f in
// reverse postorder.
func (f *Func) ReversePostorder() []BlockID {
	if f.Entry == NoBlock {
		return nil
	}
	visited := make(map[BlockID]bool, len(f.layout))
	var order []BlockID
	var dfs func(b BlockID)
	dfs = func(b BlockID) {
		visited[b] = true
		for _, s := range f.Succs(b) {
			if !visited[s] {
				dfs(s)
			}
		}
		order = append(order, b)
	}
	dfs(f.Entry)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// DomTree is the dominator tree of the reachable blocks of a function.
type DomTree struct {
	idom  map[BlockID]BlockID
	order map[BlockID]int // Reverse postorder number.
}

// Dominators computes the dominator tree of f with the algorithm of Cooper,
// Harvey and Kennedy, "A Simple, Fast Dominance Algorithm".
func Dominators(f *Func) *DomTree {
	rpo := f.ReversePostorder()
	t := &DomTree{
		idom:  make(map[BlockID]BlockID, len(rpo)),
		order: make(map[BlockID]int, len(rpo)),
	}
	if len(rpo) == 0 {
		return t
	}
	for i, b := range rpo {
		t.order[b] = i
	}
	intersect := func(b1, b2 BlockID) BlockID {
		for b1 != b2 {
			for t.order[b1] > t.order[b2] {
				b1 = t.idom[b1]
			}
			for t.order[b2] > t.order[b1] {
				b2 = t.idom[b2]
			}
		}
		return b1
	}

	entry := rpo[0]
	t.idom[entry] = entry
	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			idom := NoBlock
			for _, p := range f.Block(b).Preds {
				if _, done := t.idom[p]; !done {
					continue
				}
				if idom == NoBlock {
					idom = p
				} else {
					idom = intersect(p, idom)
				}
			}
			if cur, ok := t.idom[b]; idom != NoBlock && (!ok || cur != idom) {
				t.idom[b] = idom
				changed = true
			}
		}
	}
	return t
}

// Idom returns the immediate dominator of b, or NoBlock for the entry and
// unreachable blocks.
func (t *DomTree) Idom(b BlockID) BlockID {
	idom, ok := t.idom[b]
	if !ok || idom == b {
		return NoBlock
	}
	return idom
}

// Reachable returns true if b is reachable from the entry.
func (t *DomTree) Reachable(b BlockID) bool {
	_, ok := t.order[b]
	return ok
}

// Dominates returns true if a dominates b. A block dominates itself.
// Unreachable blocks are dominated by every block.
func (t *DomTree) Dominates(a, b BlockID) bool {
	if !t.Reachable(b) {
		return true
	}
	if !t.Reachable(a) {
		return false
	}
	for {
		if a == b {
			return true
		}
		idom := t.Idom(b)
		if idom == NoBlock {
			return false
		}
		b = idom
	}
}
