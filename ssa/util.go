package ssa

import (
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// MainPkgs returns the main packages in the program.
func MainPkgs(prog *ssa.Program) ([]*ssa.Package, error) {
	mains := ssautil.MainPackages(prog.AllPackages())
	if len(mains) == 0 {
		return nil, ErrNoMainPkgs
	}
	return mains, nil
}

// InitialPkgs returns the packages built from the source given to the
// builder, as opposed to their dependencies.
func (info *Info) InitialPkgs() []*ssa.Package {
	var pkgs []*ssa.Package
	for _, pkgInfo := range info.LProg.InitialPackages() {
		if pkg := info.Prog.Package(pkgInfo.Pkg); pkg != nil {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}
