package ir

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Format returns the textual form of the instruction v, with its assignment.
func (f *Func) Format(v ValueID) string {
	val := f.Value(v)
	var rhs string
	switch i := val.Instr.(type) {
	case *Param:
		return fmt.Sprintf("param %s", f.NameOf(v))
	case *Const:
		return fmt.Sprintf("const %d", i.Int)
	case *Phi:
		edges := make([]string, len(i.Edges))
		for n, e := range i.Edges {
			edges[n] = fmt.Sprintf("%d: %s", e.Pred, f.NameOf(e.Value))
		}
		rhs = fmt.Sprintf("phi [%s]", strings.Join(edges, ", "))
	case *BinOp:
		rhs = fmt.Sprintf("%s %s %s", i.Op, f.NameOf(i.X), f.NameOf(i.Y))
	case *Cmp:
		rhs = fmt.Sprintf("cmp %s %s %s", i.Pred, f.NameOf(i.X), f.NameOf(i.Y))
	case *Select:
		rhs = fmt.Sprintf("select %s %s %s", f.NameOf(i.Cond), f.NameOf(i.X), f.NameOf(i.Y))
	case *Load:
		rhs = fmt.Sprintf("load%s %s", volatile(i.Volatile), f.NameOf(i.Addr))
	case *Store:
		return fmt.Sprintf("store%s %s %s", volatile(i.Volatile), f.NameOf(i.Addr), f.NameOf(i.Val))
	case *Call:
		rhs = fmt.Sprintf("call %s(%s)", i.Callee, f.joinNames(i.Args))
	case *Opaque:
		rhs = fmt.Sprintf("opaque %q(%s)", i.Desc, f.joinNames(i.Args))
	case *Jump:
		return fmt.Sprintf("jump %d", i.Target)
	case *If:
		return fmt.Sprintf("if %s goto %d else %d", f.NameOf(i.Cond), i.Then, i.Else)
	case *Return:
		if len(i.Results) == 0 {
			return "return"
		}
		return fmt.Sprintf("return %s", f.joinNames(i.Results))
	case *Panic:
		return fmt.Sprintf("panic %s", f.NameOf(i.Arg))
	default:
		rhs = fmt.Sprintf("%T", i)
	}
	return fmt.Sprintf("%s = %s", f.NameOf(v), rhs)
}

func (f *Func) joinNames(vs []ValueID) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = f.NameOf(v)
	}
	return strings.Join(names, ", ")
}

func volatile(v bool) string {
	if v {
		return " volatile"
	}
	return ""
}

// WriteTo writes f to w in human readable form.
func (f *Func) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = f.NameOf(p)
	}
	fmt.Fprintf(&buf, "func %s(%s):\n", f.Name, strings.Join(params, ", "))
	for _, b := range f.layout {
		blk := f.blocks[b]
		header := fmt.Sprintf("%d:", b)
		if blk.Name != "" {
			header = fmt.Sprintf("%d: %s", b, blk.Name)
		}
		fmt.Fprintf(&buf, "%-40s P:%v S:%v\n", header, blk.Preds, f.Succs(b))
		for _, v := range blk.Instrs {
			fmt.Fprintf(&buf, "\t%s\n", f.Format(v))
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (f *Func) String() string {
	var buf bytes.Buffer
	f.WriteTo(&buf)
	return buf.String()
}
