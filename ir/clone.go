package ir

// Clone returns a deep copy of f. Block and value IDs are preserved.
func (f *Func) Clone() *Func {
	g := &Func{
		Name:   f.Name,
		Params: append([]ValueID(nil), f.Params...),
		Entry:  f.Entry,
		layout: append([]BlockID(nil), f.layout...),
		consts: make(map[int64]ValueID, len(f.consts)),
	}
	for c, v := range f.consts {
		g.consts[c] = v
	}
	g.blocks = make([]*Block, len(f.blocks))
	for i, b := range f.blocks {
		g.blocks[i] = &Block{
			ID:     b.ID,
			Name:   b.Name,
			Instrs: append([]ValueID(nil), b.Instrs...),
			Preds:  append([]BlockID(nil), b.Preds...),
			erased: b.erased,
		}
	}
	g.values = make([]*Value, len(f.values))
	for i, v := range f.values {
		g.values[i] = &Value{
			ID:     v.ID,
			Name:   v.Name,
			Block:  v.Block,
			Instr:  copyInstr(v.Instr),
			users:  append([]ValueID(nil), v.users...),
			erased: v.erased,
		}
	}
	return g
}

func copyInstr(instr Instr) Instr {
	switch i := instr.(type) {
	case *Param:
		c := *i
		return &c
	case *Const:
		c := *i
		return &c
	case *Phi:
		return &Phi{Edges: append([]PhiEdge(nil), i.Edges...)}
	case *BinOp:
		c := *i
		return &c
	case *Cmp:
		c := *i
		return &c
	case *Select:
		c := *i
		return &c
	case *Load:
		c := *i
		return &c
	case *Store:
		c := *i
		return &c
	case *Call:
		return &Call{Callee: i.Callee, Args: append([]ValueID(nil), i.Args...), Pure: i.Pure}
	case *Opaque:
		return &Opaque{Desc: i.Desc, Args: append([]ValueID(nil), i.Args...), Effect: i.Effect}
	case *Jump:
		c := *i
		return &c
	case *If:
		c := *i
		return &c
	case *Return:
		return &Return{Results: append([]ValueID(nil), i.Results...)}
	case *Panic:
		c := *i
		return &c
	}
	panic("ir: unknown instruction")
}
