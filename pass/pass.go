// Package pass drives loop passes over ir functions.
package pass

import (
	"sort"
	"sync"

	"github.com/nickng/boundsopt/internal/logging"
	"github.com/nickng/boundsopt/loop"
	"github.com/pkg/errors"
)

// LoopPass is a transformation applied to one loop at a time.
type LoopPass interface {
	Name() string
	// RunOnLoop returns true if the function containing l was modified.
	RunOnLoop(l *loop.Loop) bool
}

// Analysis names an analysis a pass depends on.
type Analysis int

const (
	LoopStructure Analysis = iota // Loop nest, preheaders and induction variables.
	Invariance                    // Loop invariance of values.
)

func (a Analysis) String() string {
	switch a {
	case LoopStructure:
		return "loop-structure"
	case Invariance:
		return "invariance"
	}
	return "unknown"
}

// Requirer is implemented by passes that depend on analyses.
type Requirer interface {
	Requires() []Analysis
}

// Factory creates a pass.
type Factory func(log *logging.Logger) LoopPass

var ErrUnknownPass = errors.New("unknown pass")

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register makes a pass available by name. It panics if name is registered
// twice.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("pass: Register called twice for " + name)
	}
	registry[name] = factory
}

// Lookup returns the factory of the pass name.
func Lookup(name string) (Factory, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPass, name)
	}
	return factory, nil
}

// Names returns the registered pass names, sorted.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
