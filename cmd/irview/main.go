// Command irview is an IR printer for Go source code.
//
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nickng/boundsopt/lower"
	"github.com/nickng/boundsopt/ssa"
	"github.com/nickng/boundsopt/ssa/build"
	gossa "golang.org/x/tools/go/ssa"
)

const (
	Usage = `irview is a tool for printing the loop IR of Go source code.

Usage:

  irview [options] file.go [files.go...]

Options:

`
)

var (
	buildlogPath string
	defaultArgs  bool
	outPath      string
	viewFunc     string
	algo         string
	showSSA      bool
	dotPath      string

	out io.Writer
)

func init() {
	flag.BoolVar(&defaultArgs, "default", true, "Use default SSA build arguments")
	flag.StringVar(&buildlogPath, "log", "", "Specify build log file (use '-' for stdout)")
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.StringVar(&viewFunc, "func", "", `Specify the function to view (format: (import/path).FuncName`)
	flag.StringVar(&algo, "callgraph", "all", "Select functions reachable in callgraph (all, static, cha, rta)")
	flag.BoolVar(&showSSA, "ssa", false, "Also print the SSA IR of each function")
	flag.StringVar(&dotPath, "dot", "", "Write the callgraph in graphviz format to file")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	conf := build.FromFiles(flag.Args()...)
	if defaultArgs {
		conf = conf.Default()
	}

	switch buildlogPath {
	case "":
	case "-":
		conf = conf.WithBuildLog(os.Stdout, log.LstdFlags)
	default:
		f, err := os.Create(buildlogPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", buildlogPath, err)
		}
		defer f.Close()
		conf = conf.WithBuildLog(f, log.LstdFlags)
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	info, err := conf.Build()
	if err != nil {
		log.Fatal("Cannot build SSA from files:", err)
	}
	if dotPath != "" {
		writeGraph(info)
	}

	var fns []*gossa.Function
	if viewFunc != "" {
		fn, err := info.FindFunc(viewFunc)
		if err != nil {
			log.Fatal("Cannot find function:", err)
		}
		fns = append(fns, fn)
	} else if fns, err = info.Funcs(algo); err != nil {
		log.Fatal("Cannot select functions:", err)
	}
	for _, fn := range fns {
		if showSSA {
			if _, err := ssa.WriteFuncs(out, []*gossa.Function{fn}); err != nil {
				log.Fatal("Cannot write SSA:", err)
			}
		}
		f, err := lower.Function(fn)
		if err != nil {
			fmt.Fprintf(out, "# %v\n", err)
			continue
		}
		if _, err := f.WriteTo(out); err != nil {
			log.Fatal("Cannot write IR:", err)
		}
	}
}

func writeGraph(info *ssa.Info) {
	graphAlgo := algo
	if graphAlgo == "all" {
		graphAlgo = "static"
	}
	cg, err := info.BuildCallGraph(graphAlgo)
	if err != nil {
		log.Fatal("Cannot build callgraph:", err)
	}
	f, err := os.Create(dotPath)
	if err != nil {
		log.Fatalf("Cannot create graph file %s: %v", dotPath, err)
	}
	defer f.Close()
	if err := cg.WriteGraphviz(f); err != nil {
		log.Fatal("Cannot write callgraph:", err)
	}
}
