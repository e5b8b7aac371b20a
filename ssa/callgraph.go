package ssa

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/ssa"
)

// CallGraph is a callgraph of a Program.
type CallGraph struct {
	cg   *callgraph.Graph
	prog *ssa.Program
}

// BuildCallGraph constructs a callgraph from ssa.Info.
// algo is algorithm available in golang.org/x/tools/go/callgraph, which
// includes:
//  - static  static calls only (unsound)
//  - cha     Class Hierarchy Analysis
//  - rta     Rapid Type Analysis, rooted at main.init and main.main
//
func (info *Info) BuildCallGraph(algo string) (*CallGraph, error) {
	var cg *callgraph.Graph
	switch algo {
	case "static":
		cg = static.CallGraph(info.Prog)
	case "cha":
		cg = cha.CallGraph(info.Prog)
	case "rta":
		mains, err := MainPkgs(info.Prog)
		if err != nil {
			return nil, err
		}
		cg = rta.Analyze(roots(mains), true).CallGraph
	default:
		return nil, errors.Wrap(ErrUnknownAlgo, algo)
	}
	cg.DeleteSyntheticNodes()
	return &CallGraph{cg: cg, prog: info.Prog}, nil
}

// roots returns the init and main functions of mains.
func roots(mains []*ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	for _, main := range mains {
		for _, name := range []string{"init", "main"} {
			if fn := main.Func(name); fn != nil {
				fns = append(fns, fn)
			}
		}
	}
	return fns
}

// Functions returns the functions in the callgraph, sorted by name.
func (g *CallGraph) Functions() []*ssa.Function {
	var fns []*ssa.Function
	for fn := range g.cg.Nodes {
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	sortFuncs(fns)
	return fns
}

// Reachable returns the functions reachable from main.init and main.main,
// sorted by name.
func (g *CallGraph) Reachable() ([]*ssa.Function, error) {
	mains, err := MainPkgs(g.prog)
	if err != nil {
		return nil, errors.Wrap(err, "callgraph: cannot find roots (is this a command?)")
	}
	visited := make(map[*ssa.Function]bool)
	queue := roots(mains)
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		if visited[fn] {
			continue
		}
		visited[fn] = true
		if node := g.cg.Nodes[fn]; node != nil {
			for _, out := range node.Out {
				queue = append(queue, out.Callee.Func)
			}
		}
	}
	var fns []*ssa.Function
	for fn := range visited {
		fns = append(fns, fn)
	}
	sortFuncs(fns)
	return fns, nil
}

// WriteGraphviz writes callgraph to w in graphviz dot format.
func (g *CallGraph) WriteGraphviz(w io.Writer) error {
	var lines []string
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		lines = append(lines, fmt.Sprintf("  %q -> %q\n", edge.Caller.Func, edge.Callee.Func))
		return nil
	}); err != nil {
		return errors.Wrap(err, "callgraph: failed to visit edges")
	}
	sort.Strings(lines)
	bufw := bufio.NewWriter(w)
	bufw.WriteString("digraph callgraph {\n")
	for _, line := range lines {
		bufw.WriteString(line)
	}
	bufw.WriteString("}\n")
	return bufw.Flush()
}

func sortFuncs(fns []*ssa.Function) {
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
}
