// Package ssa builds Go programs into SSA form and selects the functions to
// optimise.
//
// The SSA IR is from golang.org/x/tools/go/ssa; the call graph algorithms are
// those of golang.org/x/tools/go/callgraph. Functions selected here are
// lowered to the optimiser's own IR by the lower package.
//
package ssa

import (
	"go/token"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/loader"
	"golang.org/x/tools/go/ssa"
)

var (
	ErrNoMainPkgs  = errors.New("no main packages in program")
	ErrUnknownAlgo = errors.New("unknown callgraph algorithm")
)

// Info holds the results of a SSA build for analysis.
// To populate this structure, the 'build' subpackage should be used.
//
type Info struct {
	IgnoredPkgs []string // Record of ignored package during the build process.

	FSet  *token.FileSet  // FileSet for parsed source files.
	Prog  *ssa.Program    // SSA IR for whole program.
	LProg *loader.Program // Loaded program from go/loader.

	BldLog io.Writer // Build log.
}
