// Command boundsopt merges the exits of counted loops in Go source code.
//
// Each function is lowered from SSA and run through the configured loop pass
// pipeline; with -print the optimised functions are written to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	_ "github.com/nickng/boundsopt/exitmerge" // Registers bounds-check-opti.
	"github.com/nickng/boundsopt/lower"
	"github.com/nickng/boundsopt/pass"
	"github.com/nickng/boundsopt/ssa"
	"github.com/nickng/boundsopt/ssa/build"
	"github.com/pkg/errors"
	gossa "golang.org/x/tools/go/ssa"
)

const (
	Usage = `boundsopt is a tool for merging the exits of counted loops.

Usage:

  boundsopt [options] file.go [files.go...]

Options:

`
)

var (
	configPath string
	logPath    string
	optFunc    string
	algo       string
	printIR    bool
	verify     bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Specify pass pipeline config file (YAML)")
	flag.StringVar(&logPath, "log", "", "Specify analysis log file")
	flag.StringVar(&optFunc, "func", "", `Optimise only this function (format: (import/path).FuncName)`)
	flag.StringVar(&algo, "callgraph", "all", "Select functions reachable in callgraph (all, static, cha, rta)")
	flag.BoolVar(&printIR, "print", false, "Print optimised functions")
	flag.BoolVar(&verify, "verify", true, "Verify functions after each change (overrides config)")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg := pass.DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Cannot open config %s: %v", configPath, err)
		}
		cfg, err = pass.LoadConfig(f)
		f.Close()
		if err != nil {
			log.Fatal("Cannot load config:", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "verify" {
			cfg.Verify = verify
		}
	})

	conf := build.FromFiles(flag.Args()...).Default()
	if logPath != "" {
		cfg.LogFiles = append(cfg.LogFiles, logPath)
	}
	logger := cfg.Logger()
	defer logger.Sync()

	info, err := conf.Build()
	if err != nil {
		log.Fatal("Build failed:", err)
	}
	mgr, err := pass.FromConfig(cfg, logger)
	if err != nil {
		log.Fatal("Cannot create pass pipeline:", err)
	}

	fns, err := selectFuncs(info)
	if err != nil {
		log.Fatal("Cannot select functions:", err)
	}
	var changed, skipped int
	for _, fn := range fns {
		f, err := lower.Function(fn, lower.WithLogger(logger))
		if err != nil {
			logger.Infof("Skip %s: %v", fn, err)
			skipped++
			continue
		}
		ok, err := mgr.RunOnFunc(f)
		if err != nil {
			log.Fatalf("Pass pipeline failed on %s: %v", fn, err)
		}
		if ok {
			changed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", fn, color.GreenString("merged"))
			if printIR {
				f.WriteTo(os.Stdout)
			}
		}
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "%d of %d functions changed", changed, len(fns))
	if skipped > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, " (%d skipped)", skipped)
	}
	fmt.Fprintln(os.Stderr)
}

func selectFuncs(info *ssa.Info) ([]*gossa.Function, error) {
	if optFunc == "" {
		return info.Funcs(algo)
	}
	fn, err := info.FindFunc(optFunc)
	if err != nil {
		return nil, err
	}
	if fn.Blocks == nil {
		return nil, errors.Wrap(lower.ErrNoBody, optFunc)
	}
	return []*gossa.Function{fn}, nil
}
