package pass

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
	"github.com/pkg/errors"
)

// nested returns a function with a loop at block 1 containing a loop at
// block 3.
func nested() *ir.Func {
	f := ir.NewFunc("nested")
	n := f.AddParam("n")
	entry := f.NewBlock("entry")
	outer := f.NewBlock("for.loop")
	innerPre := f.NewBlock("for.body")
	inner := f.NewBlock("for.loop")
	innerBody := f.NewBlock("for.body")
	outerLatch := f.NewBlock("for.done")
	done := f.NewBlock("for.done")

	f.Append(entry, &ir.Jump{Target: outer}, "")
	i := f.Append(outer, &ir.Phi{}, "i")
	ci := f.Append(outer, &ir.Cmp{Pred: ir.EQ, X: i, Y: n}, "ci")
	f.Append(outer, &ir.If{Cond: ci, Then: done, Else: innerPre}, "")
	f.Append(innerPre, &ir.Jump{Target: inner}, "")
	j := f.Append(inner, &ir.Phi{}, "j")
	cj := f.Append(inner, &ir.Cmp{Pred: ir.EQ, X: j, Y: n}, "cj")
	f.Append(inner, &ir.If{Cond: cj, Then: outerLatch, Else: innerBody}, "")
	nj := f.Append(innerBody, &ir.BinOp{Op: ir.Add, X: j, Y: f.Const(1)}, "nj")
	f.Append(innerBody, &ir.Jump{Target: inner}, "")
	ni := f.Append(outerLatch, &ir.BinOp{Op: ir.Add, X: i, Y: f.Const(1)}, "ni")
	f.Append(outerLatch, &ir.Jump{Target: outer}, "")
	f.Append(done, &ir.Return{}, "")
	f.AddPhiEdge(i, entry, f.Const(0))
	f.AddPhiEdge(i, outerLatch, ni)
	f.AddPhiEdge(j, innerPre, f.Const(0))
	f.AddPhiEdge(j, innerBody, nj)
	return f
}

type recorder struct {
	headers []ir.BlockID
	change  func(l *loop.Loop) bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) RunOnLoop(l *loop.Loop) bool {
	r.headers = append(r.headers, l.Header())
	if r.change != nil {
		return r.change(l)
	}
	return false
}

func (r *recorder) Requires() []Analysis { return []Analysis{LoopStructure} }

func TestInnermostFirst(t *testing.T) {
	r := &recorder{}
	changed, err := NewManager(r).RunOnFunc(nested())
	if err != nil {
		t.Fatalf("RunOnFunc failed: %v", err)
	}
	if changed {
		t.Errorf("recorder does not change anything, RunOnFunc reported a change")
	}
	if diff := cmp.Diff([]ir.BlockID{3, 1}, r.headers); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestEachLoopOnceAfterChange(t *testing.T) {
	r := &recorder{change: func(l *loop.Loop) bool {
		// Insert a harmless value into the header.
		f := l.Func()
		f.InsertBefore(f.Terminator(l.Header()), &ir.BinOp{Op: ir.Add, X: f.Const(1), Y: f.Const(2)}, "")
		return true
	}}
	m := NewManager(r)
	m.SetVerify(true)
	f := nested()
	changed, err := m.RunOnFunc(f)
	if err != nil {
		t.Fatalf("RunOnFunc failed: %v", err)
	}
	if !changed {
		t.Errorf("RunOnFunc should report a change")
	}
	if diff := cmp.Diff([]ir.BlockID{3, 1}, r.headers); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyAfterChange(t *testing.T) {
	r := &recorder{change: func(l *loop.Loop) bool {
		// Drop the entering phi edges, leaving the header phis malformed.
		f := l.Func()
		in, _, _ := l.IncomingAndBackEdge()
		f.RemovePhiEdges(l.Header(), in)
		return true
	}}
	m := NewManager(r)
	m.SetVerify(true)
	_, err := m.RunOnFunc(nested())
	if errors.Cause(err) != ir.ErrMalformed {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
	if !strings.Contains(err.Error(), "after recorder") {
		t.Errorf("error should name the pass, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	Register("test-recorder", func(*logging.Logger) LoopPass { return &recorder{} })
	factory, err := Lookup("test-recorder")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p := factory(logging.Nop()); p.Name() != "recorder" {
		t.Errorf("factory made %q", p.Name())
	}
	if _, err := Lookup("no-such-pass"); errors.Cause(err) != ErrUnknownPass {
		t.Errorf("Lookup of unknown pass: want ErrUnknownPass, got %v", err)
	}
	found := false
	for _, name := range Names() {
		found = found || name == "test-recorder"
	}
	if !found {
		t.Errorf("Names() should list test-recorder: %v", Names())
	}
	defer func() {
		if recover() == nil {
			t.Errorf("registering a name twice should panic")
		}
	}()
	Register("test-recorder", func(*logging.Logger) LoopPass { return &recorder{} })
}

func TestFromConfig(t *testing.T) {
	Register("test-config", func(*logging.Logger) LoopPass { return &recorder{} })
	cfg := &Config{Passes: []string{"test-config"}, Verify: true}
	m, err := FromConfig(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if got := len(m.Passes()); got != 1 {
		t.Errorf("want 1 pass, got %d", got)
	}
	cfg.Passes = []string{"test-config", "missing"}
	if _, err := FromConfig(cfg, logging.Nop()); errors.Cause(err) != ErrUnknownPass {
		t.Errorf("want ErrUnknownPass, got %v", err)
	}
}
