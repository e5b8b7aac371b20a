package ssa

import (
	"io"

	"golang.org/x/tools/go/ssa"
)

// WriteFuncs writes fns to w in human readable SSA IR instruction format.
func WriteFuncs(w io.Writer, fns []*ssa.Function) (int64, error) {
	var n int64
	for _, fn := range fns {
		written, err := fn.WriteTo(w)
		if err != nil {
			return n, err
		}
		n += written
	}
	return n, nil
}
