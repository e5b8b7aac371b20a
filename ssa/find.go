package ssa

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var ErrFuncNotFound = errors.New("function not found")

// FindFunc parses path (e.g. "github.com/nickng/boundsopt/ssa".MainPkgs or
// main.sum) and returns Function body in SSA IR.
func (info *Info) FindFunc(path string) (*ssa.Function, error) {
	pkgPath, fnName := parseFuncPath(path)
	for _, pkg := range info.Prog.AllPackages() {
		if pkg.Pkg.Path() != pkgPath && pkg.Pkg.Name() != pkgPath {
			continue
		}
		if fn := pkg.Func(fnName); fn != nil {
			return fn, nil
		}
	}
	return nil, errors.Wrap(ErrFuncNotFound, path)
}

// Funcs returns the functions with a body declared in the initial packages,
// in source order. With algo "all" every such function is returned, otherwise
// only those reachable in the callgraph built with algo.
func (info *Info) Funcs(algo string) ([]*ssa.Function, error) {
	initial := make(map[*ssa.Package]bool)
	for _, pkg := range info.InitialPkgs() {
		initial[pkg] = true
	}
	var candidates []*ssa.Function
	if algo == "all" {
		for _, pkg := range info.InitialPkgs() {
			for _, mem := range pkg.Members {
				if fn, ok := mem.(*ssa.Function); ok {
					candidates = append(candidates, fn)
					candidates = append(candidates, fn.AnonFuncs...)
				}
			}
		}
	} else {
		graph, err := info.BuildCallGraph(algo)
		if err != nil {
			return nil, err
		}
		if candidates, err = graph.Reachable(); err != nil {
			return nil, err
		}
	}
	var fns []*ssa.Function
	for _, fn := range candidates {
		if fn.Blocks == nil || fn.Synthetic != "" || !initial[fn.Pkg] {
			continue
		}
		fns = append(fns, fn)
	}
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Pos() < fns[j].Pos() })
	return fns, nil
}

// parseFuncPath splits path to package and function segments.
// Does not handle complex functions with receivers.
func parseFuncPath(path string) (pkgPath, fnName string) {
	if len(path) < 1 {
		return "", ""
	}
	var regex *regexp.Regexp
	switch path[0] {
	case '(':
		regex = regexp.MustCompile(`\((?P<pkg>[^)]+)\)\.(?P<fn>.+)`)
	case '"':
		regex = regexp.MustCompile(`"(?P<pkg>[^"]+)"\.(?P<fn>.+)`)
	default:
		if i := strings.LastIndex(path, "."); i > 0 {
			return path[:i], path[i+1:]
		}
		return "", path
	}
	if m := regex.FindStringSubmatch(path); len(m) >= 3 {
		return m[1], m[2]
	}
	return "", path
}
