// Package exitmerge merges the two equality exits of a counted loop into a
// single exit at the loop header.
//
// The pass targets loops of the shape left behind by bounds checks:
//
//	for i := 0; ; i++ {
//		if i == n { break }      // header exit to X
//		...
//		if i+1 == m { goto Y }   // back edge source exit
//	}
//
// The exit test of the back edge source is folded into the header, which then
// compares i against the iteration at which the first of the two exits would
// have fired; that value is computed once in the preheader. A new block
// dispatches to X or Y depending on which limit won.
package exitmerge

import (
	"github.com/fatih/color"
	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
	"github.com/nickng/boundsopt/pass"
)

// Name is the registered name of the pass.
const Name = "bounds-check-opti"

func init() {
	pass.Register(Name, func(log *logging.Logger) pass.LoopPass {
		return New(WithLogger(log))
	})
}

// RelocateFunc reports whether the exit test of the exiting block b may be
// moved into the header of l.
type RelocateFunc func(l *loop.Loop, b ir.BlockID) bool

// EffectFunc reports whether instr may have a side effect.
type EffectFunc func(instr ir.Instr) bool

// InvarianceFunc reports whether v is invariant in l. It must only report
// values that are available in the preheader of l.
type InvarianceFunc func(l *loop.Loop, v ir.ValueID) bool

// Pass is the exit merging loop pass.
type Pass struct {
	log         *logging.Logger
	relocatable RelocateFunc
	effects     EffectFunc
	invariant   InvarianceFunc
}

// Option configures a Pass.
type Option func(*Pass)

// WithLogger sets the logger of the pass.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pass) {
		if l != nil {
			p.log = l.For(Name, color.FgRed)
		}
	}
}

// WithRelocatable sets the predicate deciding which non-header exits may be
// relocated. The default admits only the back edge source.
func WithRelocatable(fn RelocateFunc) Option {
	return func(p *Pass) { p.relocatable = fn }
}

// WithSideEffects sets the side effect policy. The default is
// MayHaveSideEffects.
func WithSideEffects(fn EffectFunc) Option {
	return func(p *Pass) { p.effects = fn }
}

// WithInvariance sets the loop invariance oracle. The default is
// (*loop.Loop).IsInvariant.
func WithInvariance(fn InvarianceFunc) Option {
	return func(p *Pass) { p.invariant = fn }
}

// New returns an exit merging pass.
func New(opts ...Option) *Pass {
	p := &Pass{
		log:         logging.Nop(),
		relocatable: IsBackEdgeSource,
		effects:     MayHaveSideEffects,
		invariant:   func(l *loop.Loop, v ir.ValueID) bool { return l.IsInvariant(v) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsBackEdgeSource is the default RelocateFunc.
func IsBackEdgeSource(l *loop.Loop, b ir.BlockID) bool {
	_, backedge, ok := l.IncomingAndBackEdge()
	return ok && b == backedge
}

func (p *Pass) Name() string { return Name }

// Requires returns the analyses the pass reads.
func (p *Pass) Requires() []pass.Analysis {
	return []pass.Analysis{pass.LoopStructure, pass.Invariance}
}

// RunOnLoop merges the exits of l and returns true, or leaves l unchanged and
// returns false if l does not have the required shape.
func (p *Pass) RunOnLoop(l *loop.Loop) bool {
	m, err := p.Analyze(l)
	if err != nil {
		if l != nil {
			p.log.Debugf("%s: %s: %s: %v", p.log.Module(), l.Func().Name, l, err)
		}
		return false
	}
	m.Rewrite()
	p.log.Debugf("%s: %s: merged exits of %s at limits %s, %s", p.log.Module(),
		l.Func().Name, l, l.Func().NameOf(m.header.limit), l.Func().NameOf(m.relocated.limit))
	return true
}
