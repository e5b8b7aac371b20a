package pass

import (
	"github.com/fatih/color"
	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/ir"
	"github.com/nickng/boundsopt/loop"
	"github.com/pkg/errors"
)

// Manager runs loop passes over functions.
type Manager struct {
	passes []LoopPass
	verify bool
	log    *logging.Logger
}

// NewManager returns a manager running passes in order.
func NewManager(passes ...LoopPass) *Manager {
	return &Manager{passes: passes, log: logging.Nop()}
}

// FromConfig returns a manager running the passes named in cfg.
func FromConfig(cfg *Config, log *logging.Logger) (*Manager, error) {
	m := NewManager()
	m.SetLogger(log)
	m.verify = cfg.Verify
	for _, name := range cfg.Passes {
		factory, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		m.passes = append(m.passes, factory(log))
	}
	return m, nil
}

// SetLogger sets the logger of the manager.
func (m *Manager) SetLogger(l *logging.Logger) {
	m.log = l.For("pass", color.FgGreen)
}

// SetVerify enables verification of the function after every change.
func (m *Manager) SetVerify(v bool) { m.verify = v }

// Passes returns the passes of the manager.
func (m *Manager) Passes() []LoopPass { return append([]LoopPass(nil), m.passes...) }

// RunOnFunc runs every pass on every loop of f, innermost loops first, and
// returns true if f was modified. Loops are detected again after each change,
// and each header is visited at most once per pass.
func (m *Manager) RunOnFunc(f *ir.Func) (bool, error) {
	changed := false
	for _, p := range m.passes {
		if r, ok := p.(Requirer); ok {
			m.log.Debugf("%s: %s requires %v", m.log.Module(), p.Name(), r.Requires())
		}
		visited := make(map[ir.BlockID]bool)
		for {
			l := nextLoop(f, visited)
			if l == nil {
				break
			}
			visited[l.Header()] = true
			if !p.RunOnLoop(l) {
				continue
			}
			m.log.Infof("%s: %s changed %s at %s", m.log.Module(), p.Name(), f.Name, l)
			changed = true
			if m.verify {
				if err := ir.Verify(f); err != nil {
					return changed, errors.Wrapf(err, "after %s", p.Name())
				}
			}
		}
	}
	return changed, nil
}

// nextLoop returns the first unvisited loop of f in innermost-first order.
func nextLoop(f *ir.Func, visited map[ir.BlockID]bool) *loop.Loop {
	for _, l := range loop.NewDetector().Detect(f).PostOrder() {
		if !visited[l.Header()] {
			return l
		}
	}
	return nil
}
