package build

import (
	"go/build"
	"io"
	"io/ioutil"
	"log"

	"github.com/nickng/boundsopt/ssa"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/loader"
	gossa "golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Configurer is a Builder with fluent configuration.
type Configurer interface {
	Builder
	Default() Configurer
	AddBadPkg(pkg, reason string) Configurer
	WithBuildLog(l io.Writer, flags int) Configurer
	WithMode(mode gossa.BuilderMode) Configurer
}

// Config represents a build configuration.
type Config struct {
	badPkgs map[string]string
	mode    gossa.BuilderMode

	bldLog    io.Writer // Build log.
	bldLFlags int       // Build log flags.

	src interface{} // *FileSrc or *CachedSrc.
}

func newConfig(src interface{}) *Config {
	return &Config{
		badPkgs:   make(map[string]string),
		mode:      gossa.BareInits,
		bldLog:    ioutil.Discard,
		bldLFlags: log.LstdFlags,
		src:       src,
	}
}

// WithBuildLog adds build log to config.
func (c *Config) WithBuildLog(l io.Writer, flags int) Configurer {
	c.bldLog = l
	c.bldLFlags = flags
	return c
}

// WithMode sets the SSA builder mode.
func (c *Config) WithMode(mode gossa.BuilderMode) Configurer {
	c.mode = mode
	return c
}

// AddBadPkg marks a package 'bad' to avoid building its function bodies.
func (c *Config) AddBadPkg(pkg, reason string) Configurer {
	c.badPkgs[pkg] = reason
	return c
}

// Default returns a default configuration for loop optimisation: the bodies
// of runtime and reflect are never optimised.
func (c *Config) Default() Configurer {
	return c.
		AddBadPkg("reflect", "Reflection is not supported").
		AddBadPkg("runtime", "Runtime is ignored")
}

func (c *Config) Build() (*ssa.Info, error) {
	lconf := loader.Config{Build: &build.Default}
	bldLog := log.New(c.bldLog, "ssabuild: ", c.bldLFlags)

	switch src := c.src.(type) {
	case *FileSrc:
		if len(src.Files) == 0 {
			return nil, errors.New("no source files")
		}
		lconf.CreateFromFilenames("", src.Files...)
	case *CachedSrc:
		if src.err != nil {
			return nil, src.err
		}
		parsed, err := lconf.ParseFile("tmp.go", src.NewReader())
		if err != nil {
			return nil, errors.Wrap(err, "cannot parse source")
		}
		lconf.CreateFromFiles("", parsed)
	}

	// Load, parse and type-check program
	lprog, err := lconf.Load()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load program")
	}
	bldLog.Print("Program loaded and type checked")

	prog := ssautil.CreateProgram(lprog, c.mode)

	var ignoredPkgs []string
	for _, info := range lprog.AllPackages {
		if reason, bad := c.badPkgs[info.Pkg.Path()]; bad {
			bldLog.Printf("Skip package: %s (%s)", info.Pkg.Path(), reason)
			ignoredPkgs = append(ignoredPkgs, info.Pkg.Path())
			continue
		}
		prog.Package(info.Pkg).Build()
	}

	return &ssa.Info{
		IgnoredPkgs: ignoredPkgs,
		FSet:        lprog.Fset,
		Prog:        prog,
		LProg:       lprog,
		BldLog:      c.bldLog,
	}, nil
}
