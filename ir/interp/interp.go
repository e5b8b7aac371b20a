// Package interp is a reference interpreter for the ir package.
//
// It is an oracle for testing transformations: a function and its transformed
// copy must return the same results and produce the same trace of effects
// (stores and calls) for the same arguments.
package interp

import (
	"fmt"

	"github.com/nickng/boundsopt/ir"
	"github.com/pkg/errors"
)

var (
	ErrStepLimit = errors.New("step limit exceeded")
	ErrPanic     = errors.New("function panicked")
	ErrOpaque    = errors.New("cannot interpret opaque instruction")
	ErrArgs      = errors.New("wrong number of arguments")
)

// DefaultMaxSteps bounds the number of executed instructions.
const DefaultMaxSteps = 1 << 20

// Event is an effect observed during execution.
type Event struct {
	Kind   string  // "store" or "call".
	Callee string  // Callee of a call.
	Args   []int64 // Address and value of a store, arguments of a call.
}

func (e Event) String() string {
	if e.Kind == "call" {
		return fmt.Sprintf("call %s%v", e.Callee, e.Args)
	}
	return fmt.Sprintf("%s %v", e.Kind, e.Args)
}

// Result is the outcome of a run.
type Result struct {
	Returns []int64
	Trace   []Event
	Steps   int
}

// CallFunc computes the result of a non-pure call.
type CallFunc func(callee string, args []int64) int64

// Option configures a run.
type Option func(*machine)

// WithMaxSteps sets the step limit.
func WithMaxSteps(n int) Option {
	return func(m *machine) { m.maxSteps = n }
}

// WithCall sets the handler for calls. Calls return 0 by default.
func WithCall(fn CallFunc) Option {
	return func(m *machine) { m.call = fn }
}

// WithMemory sets the initial memory contents.
func WithMemory(mem map[int64]int64) Option {
	return func(m *machine) {
		for addr, v := range mem {
			m.mem[addr] = v
		}
	}
}

type machine struct {
	f        *ir.Func
	env      map[ir.ValueID]int64
	mem      map[int64]int64
	maxSteps int
	call     CallFunc
	res      Result
}

// Run executes f with args.
func Run(f *ir.Func, args []int64, opts ...Option) (*Result, error) {
	if len(args) != len(f.Params) {
		return nil, errors.Wrapf(ErrArgs, "%s: want %d, got %d", f.Name, len(f.Params), len(args))
	}
	m := &machine{
		f:        f,
		env:      make(map[ir.ValueID]int64),
		mem:      make(map[int64]int64),
		maxSteps: DefaultMaxSteps,
		call:     func(string, []int64) int64 { return 0 },
	}
	for _, opt := range opts {
		opt(m)
	}
	for i, p := range f.Params {
		m.env[p] = args[i]
	}
	if err := m.run(); err != nil {
		return &m.res, err
	}
	return &m.res, nil
}

func (m *machine) run() error {
	prev, b := ir.NoBlock, m.f.Entry
	for {
		blk := m.f.Block(b)
		// Phis read their operands simultaneously.
		phis := m.f.Phis(b)
		vals := make([]int64, len(phis))
		for i, phi := range phis {
			v, err := m.phiValue(phi, prev)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		for i, phi := range phis {
			m.env[phi] = vals[i]
		}
		next := ir.NoBlock
		for _, v := range blk.Instrs[len(phis):] {
			m.res.Steps++
			if m.res.Steps > m.maxSteps {
				return errors.Wrapf(ErrStepLimit, "%s: %d steps", m.f.Name, m.maxSteps)
			}
			to, done, err := m.exec(v)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			if to != ir.NoBlock {
				next = to
				break
			}
		}
		if next == ir.NoBlock {
			return errors.Errorf("%s: block %s falls off its end", m.f.Name, blk)
		}
		prev, b = b, next
	}
}

func (m *machine) phiValue(phi ir.ValueID, pred ir.BlockID) (int64, error) {
	for _, e := range m.f.Instr(phi).(*ir.Phi).Edges {
		if e.Pred == pred {
			return m.value(e.Value), nil
		}
	}
	return 0, errors.Errorf("%s: phi %s has no edge from block %d", m.f.Name, m.f.NameOf(phi), pred)
}

func (m *machine) value(v ir.ValueID) int64 {
	if c, ok := m.f.Instr(v).(*ir.Const); ok {
		return c.Int
	}
	return m.env[v]
}

// exec executes v and returns the next block if v transfers control, or done
// if the function returned.
func (m *machine) exec(v ir.ValueID) (next ir.BlockID, done bool, err error) {
	next = ir.NoBlock
	switch i := m.f.Instr(v).(type) {
	case *ir.BinOp:
		r, err := arith(i.Op, m.value(i.X), m.value(i.Y))
		if err != nil {
			return next, false, errors.Wrapf(err, "%s: %s", m.f.Name, m.f.Format(v))
		}
		m.env[v] = r
	case *ir.Cmp:
		m.env[v] = boolInt(compare(i.Pred, m.value(i.X), m.value(i.Y)))
	case *ir.Select:
		if m.value(i.Cond) != 0 {
			m.env[v] = m.value(i.X)
		} else {
			m.env[v] = m.value(i.Y)
		}
	case *ir.Load:
		m.env[v] = m.mem[m.value(i.Addr)]
	case *ir.Store:
		addr, val := m.value(i.Addr), m.value(i.Val)
		m.mem[addr] = val
		m.res.Trace = append(m.res.Trace, Event{Kind: "store", Args: []int64{addr, val}})
	case *ir.Call:
		args := make([]int64, len(i.Args))
		for n, a := range i.Args {
			args[n] = m.value(a)
		}
		if !i.Pure {
			m.res.Trace = append(m.res.Trace, Event{Kind: "call", Callee: i.Callee, Args: args})
		}
		m.env[v] = m.call(i.Callee, args)
	case *ir.Opaque:
		return next, false, errors.Wrapf(ErrOpaque, "%s: %s", m.f.Name, m.f.Format(v))
	case *ir.Jump:
		return i.Target, false, nil
	case *ir.If:
		if m.value(i.Cond) != 0 {
			return i.Then, false, nil
		}
		return i.Else, false, nil
	case *ir.Return:
		for _, r := range i.Results {
			m.res.Returns = append(m.res.Returns, m.value(r))
		}
		return next, true, nil
	case *ir.Panic:
		return next, false, errors.Wrapf(ErrPanic, "%s: panic(%d)", m.f.Name, m.value(i.Arg))
	default:
		return next, false, errors.Errorf("%s: unexpected %s", m.f.Name, m.f.Format(v))
	}
	return next, false, nil
}

func arith(op ir.ArithOp, x, y int64) (int64, error) {
	switch op {
	case ir.Add:
		return x + y, nil
	case ir.Sub:
		return x - y, nil
	case ir.Mul:
		return x * y, nil
	case ir.Div:
		if y == 0 {
			return 0, errors.Wrap(ErrPanic, "integer divide by zero")
		}
		return x / y, nil
	case ir.Rem:
		if y == 0 {
			return 0, errors.Wrap(ErrPanic, "integer divide by zero")
		}
		return x % y, nil
	case ir.And:
		return x & y, nil
	case ir.Or:
		return x | y, nil
	case ir.Xor:
		return x ^ y, nil
	case ir.Shl:
		return x << uint64(y), nil
	case ir.Shr:
		return x >> uint64(y), nil
	}
	return 0, errors.Errorf("unknown operation %v", op)
}

func compare(p ir.Predicate, x, y int64) bool {
	ux, uy := uint64(x), uint64(y)
	switch p {
	case ir.EQ:
		return x == y
	case ir.NE:
		return x != y
	case ir.SLT:
		return x < y
	case ir.SLE:
		return x <= y
	case ir.SGT:
		return x > y
	case ir.SGE:
		return x >= y
	case ir.ULT:
		return ux < uy
	case ir.ULE:
		return ux <= uy
	case ir.UGT:
		return ux > uy
	default:
		return ux >= uy
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
