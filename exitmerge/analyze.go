package exitmerge

import (
	"github.com/nickng/boundsopt/block"
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
	"github.com/pkg/errors"
)

// Reasons a loop is not transformed.
var (
	ErrNilLoop        = errors.New("no loop")
	ErrNotExiting     = errors.New("header does not exit the loop")
	ErrNotConditional = errors.New("exiting block does not end in a conditional branch")
	ErrNoPreheader    = errors.New("loop has no preheader")
	ErrNoBackEdge     = errors.New("header does not have exactly one entering and one back edge")
	ErrNoIndVar       = errors.New("loop has no canonical induction variable")
	ErrSingleExit     = errors.New("loop has a single exiting block")
	ErrNotEquality    = errors.New("exit condition is not an equality comparison")
	ErrNotInductive   = errors.New("exit condition does not test the induction variable")
	ErrVariantLimit   = errors.New("exit limit is not loop invariant")
	ErrExitShape      = errors.New("exiting branch must have one successor in the loop")
	ErrPolarity       = errors.New("exit is not taken on equality")
	ErrLimitCollision = errors.New("two exits compare against the same limit")
	ErrNotRelocatable = errors.New("exit cannot be relocated into the header")
	ErrHeaderEffect   = errors.New("header has an instruction with side effects")
	ErrLiveOut        = errors.New("loop value is used outside the loop")
	ErrExitValue      = errors.New("exit edge carries a loop variant value")
	ErrLimitCount     = errors.New("loop does not have exactly two limits")
)

// shape is the validated structure of a loop.
type shape struct {
	l         *loop.Loop
	f         *ir.Func
	header    ir.BlockID
	preheader ir.BlockID
	latch     ir.BlockID // Back edge source.
	iv        *loop.IndVar
	exiting   []ir.BlockID
}

// exit is the exit test of one exiting block.
type exit struct {
	block  ir.BlockID
	term   ir.ValueID // If terminator.
	cond   ir.ValueID
	limit  ir.ValueID
	target ir.BlockID // Successor outside the loop.
	slot   int        // Successor slot of target.
	stay   ir.BlockID // Successor in the loop.
	onNext bool       // Compares the incremented value.
}

// Merge is an applicable exit merge. It is computed without modifying the
// function; Rewrite applies it.
type Merge struct {
	shape
	header    exit   // Exit of the header.
	relocated exit   // Exit moved into the header.
	convert   []exit // Exits whose branch becomes unconditional.
}

// Analyze decides whether the exits of l can be merged. The error is the
// reason the loop is not applicable.
func (p *Pass) Analyze(l *loop.Loop) (*Merge, error) {
	s, err := p.validate(l)
	if err != nil {
		return nil, err
	}
	exits, err := p.collect(s)
	if err != nil {
		return nil, err
	}
	convert, err := p.checkLegality(s, exits)
	if err != nil {
		return nil, err
	}
	return gate(s, exits, convert)
}

func (p *Pass) validate(l *loop.Loop) (*shape, error) {
	if l == nil {
		return nil, ErrNilLoop
	}
	f := l.Func()
	s := &shape{l: l, f: f, header: l.Header()}
	if !l.IsExiting(s.header) {
		return nil, ErrNotExiting
	}
	if _, ok := f.Instr(f.Terminator(s.header)).(*ir.If); !ok {
		return nil, errors.Wrapf(ErrNotConditional, "header %s", f.Block(s.header))
	}
	if s.preheader = l.Preheader(); s.preheader == ir.NoBlock {
		return nil, ErrNoPreheader
	}
	_, backedge, ok := l.IncomingAndBackEdge()
	if !ok {
		return nil, ErrNoBackEdge
	}
	s.latch = backedge
	if s.iv = l.CanonicalIndVar(); s.iv == nil {
		return nil, ErrNoIndVar
	}
	if s.exiting = l.ExitingBlocks(); len(s.exiting) < 2 {
		return nil, ErrSingleExit
	}
	return s, nil
}

func (p *Pass) collect(s *shape) ([]exit, error) {
	f := s.f
	var exits []exit
	seen := make(map[ir.ValueID]ir.BlockID) // Limit → exiting block.
	for _, b := range s.exiting {
		e := exit{block: b, term: f.Terminator(b)}
		br, ok := f.Instr(e.term).(*ir.If)
		if !ok {
			return nil, errors.Wrapf(ErrNotConditional, "block %s", f.Block(b))
		}
		e.cond = br.Cond
		cmp, ok := f.Instr(br.Cond).(*ir.Cmp)
		if !ok || !cmp.Pred.IsEquality() {
			return nil, errors.Wrapf(ErrNotEquality, "block %s", f.Block(b))
		}
		switch {
		case cmp.X == s.iv.Phi || cmp.X == s.iv.Next:
			e.limit, e.onNext = cmp.Y, cmp.X == s.iv.Next
		case cmp.Y == s.iv.Phi || cmp.Y == s.iv.Next:
			e.limit, e.onNext = cmp.X, cmp.Y == s.iv.Next
		default:
			return nil, errors.Wrapf(ErrNotInductive, "%s", f.Format(br.Cond))
		}
		if !p.invariant(s.l, e.limit) {
			return nil, errors.Wrapf(ErrVariantLimit, "%s", f.Format(br.Cond))
		}
		in := s.l.Contains
		switch {
		case !in(br.Then) && in(br.Else):
			e.target, e.slot, e.stay = br.Then, 0, br.Else
		case in(br.Then) && !in(br.Else):
			e.target, e.slot, e.stay = br.Else, 1, br.Then
		default:
			return nil, errors.Wrapf(ErrExitShape, "block %s", f.Block(b))
		}
		if (cmp.Pred == ir.EQ) != (e.slot == 0) {
			return nil, errors.Wrapf(ErrPolarity, "block %s", f.Block(b))
		}
		if other, dup := seen[e.limit]; dup {
			return nil, errors.Wrapf(ErrLimitCollision, "blocks %s and %s compare against %s",
				f.Block(other), f.Block(b), f.NameOf(e.limit))
		}
		seen[e.limit] = b
		exits = append(exits, e)
	}
	return exits, nil
}

func (p *Pass) checkLegality(s *shape, exits []exit) ([]exit, error) {
	f, l := s.f, s.l
	var convert []exit
	for _, e := range exits {
		if e.block == s.header {
			continue
		}
		if !p.relocatable(l, e.block) {
			return nil, errors.Wrapf(ErrNotRelocatable, "block %s", f.Block(e.block))
		}
		for _, v := range f.Block(s.header).Instrs {
			if p.effects(f.Instr(v)) {
				return nil, errors.Wrapf(ErrHeaderEffect, "%s", f.Format(v))
			}
			if l.UsedOutside(v) {
				return nil, errors.Wrapf(ErrLiveOut, "%s", f.Format(v))
			}
		}
		convert = append(convert, e)
	}

	// After the rewrite the header is the only exiting block, so no loop value
	// may reach the exit targets.
	for _, b := range l.Blocks() {
		for _, v := range f.Block(b).Instrs {
			if l.UsedOutside(v) {
				return nil, errors.Wrapf(ErrLiveOut, "%s", f.Format(v))
			}
		}
	}
	carried := make(map[ir.ValueID]ir.ValueID) // Phi → value along exit edges.
	for _, edge := range block.ExitEdges(f, l.Contains) {
		for _, phi := range f.Phis(edge[1]) {
			for _, pe := range f.Instr(phi).(*ir.Phi).Edges {
				if pe.Pred != edge[0] {
					continue
				}
				if !l.IsInvariant(pe.Value) {
					return nil, errors.Wrapf(ErrExitValue, "%s", f.Format(phi))
				}
				if prev, ok := carried[phi]; ok && prev != pe.Value {
					return nil, errors.Wrapf(ErrExitValue, "%s", f.Format(phi))
				}
				carried[phi] = pe.Value
			}
		}
	}
	return convert, nil
}

func gate(s *shape, exits []exit, convert []exit) (*Merge, error) {
	if len(exits) != 2 {
		return nil, errors.Wrapf(ErrLimitCount, "%d limits", len(exits))
	}
	m := &Merge{shape: *s, convert: convert}
	for _, e := range exits {
		if e.block == s.header {
			m.header = e
		} else {
			m.relocated = e
		}
	}
	return m, nil
}
