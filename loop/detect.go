package loop

import (
	"io"
	"io/ioutil"
	"log"
	"sort"

	"github.com/nickng/boundsopt/ir"
)

// Detector finds the loops of a function.
type Detector struct {
	logger *log.Logger
}

func NewDetector() *Detector {
	return &Detector{
		logger: log.New(ioutil.Discard, "loopdetect: ", 0),
	}
}

func (d *Detector) SetLog(w io.Writer) {
	d.logger.SetOutput(w)
}

// Detect returns the loop nest of f.
func (d *Detector) Detect(f *ir.Func) *Nest {
	dom := ir.Dominators(f)
	latches := make(map[ir.BlockID][]ir.BlockID) // header → back edge sources
	var headers []ir.BlockID
	for _, b := range f.Blocks() {
		if !dom.Reachable(b) {
			continue
		}
		for _, h := range f.Succs(b) {
			if !dom.Dominates(h, b) {
				continue
			}
			d.logger.Printf("Detect: back edge #%d → #%d", b, h)
			if _, seen := latches[h]; !seen {
				headers = append(headers, h)
			}
			if !containsBlock(latches[h], b) {
				latches[h] = append(latches[h], b)
			}
		}
	}

	nest := &Nest{f: f, innermost: make(map[ir.BlockID]*Loop)}
	for _, h := range headers {
		l := newLoop(f, h, latches[h], dom)
		d.logger.Printf("Detect: loop at #%d with %d blocks", h, len(l.blocks))
		nest.all = append(nest.all, l)
	}

	// Natural loops with distinct headers are either disjoint or nested, so
	// the parent of a loop is the smallest other loop containing its header.
	sort.SliceStable(nest.all, func(i, j int) bool {
		return len(nest.all[i].blocks) > len(nest.all[j].blocks)
	})
	for i, l := range nest.all {
		for j := i - 1; j >= 0; j-- {
			if outer := nest.all[j]; outer.Contains(l.header) {
				l.parent = outer
				outer.children = append(outer.children, l)
				break
			}
		}
		if l.parent == nil {
			nest.top = append(nest.top, l)
		}
	}
	// Larger loops come first, so the last loop seen for a block is its
	// innermost loop.
	for _, l := range nest.all {
		for _, b := range l.blocks {
			nest.innermost[b] = l
		}
	}
	order := layoutIndex(f)
	byHeader := func(ls []*Loop) {
		sort.SliceStable(ls, func(i, j int) bool { return order[ls[i].header] < order[ls[j].header] })
	}
	byHeader(nest.top)
	byHeader(nest.all)
	for _, l := range nest.all {
		byHeader(l.children)
	}
	return nest
}

func newLoop(f *ir.Func, header ir.BlockID, latches []ir.BlockID, dom *ir.DomTree) *Loop {
	l := &Loop{
		f:       f,
		header:  header,
		latches: latches,
		in:      map[ir.BlockID]bool{header: true},
	}
	work := append([]ir.BlockID(nil), latches...)
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		if l.in[b] || !dom.Reachable(b) {
			continue
		}
		l.in[b] = true
		work = append(work, f.Preds(b)...)
	}
	for _, b := range f.Blocks() {
		if l.in[b] {
			l.blocks = append(l.blocks, b)
		}
	}
	return l
}

func layoutIndex(f *ir.Func) map[ir.BlockID]int {
	order := make(map[ir.BlockID]int)
	for i, b := range f.Blocks() {
		order[b] = i
	}
	return order
}

func containsBlock(bs []ir.BlockID, b ir.BlockID) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}
