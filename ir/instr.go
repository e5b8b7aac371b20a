package ir

// Instr is the closed set of instruction kinds a Value can hold.
// Valid types are Param, Const, Phi, BinOp, Cmp, Select, Load, Store, Call,
// Opaque and the terminators Jump, If, Return and Panic.
type Instr interface {
	// Operands returns the values read by the instruction, in slot order.
	Operands() []ValueID
	setOperand(i int, v ValueID)
	instr()
}

// Terminator is an instruction ending a block.
type Terminator interface {
	Instr
	// Succs returns the successor blocks, in slot order.
	Succs() []BlockID
	setSucc(i int, b BlockID)
	termInstr()
}

// Param is a function parameter.
type Param struct{ Index int }

// Const is an interned integer constant. Booleans are 0 and 1.
type Const struct{ Int int64 }

// PhiEdge is the value a Phi takes when control arrives from Pred.
type PhiEdge struct {
	Pred  BlockID
	Value ValueID
}

// Phi merges values at the head of a block.
type Phi struct{ Edges []PhiEdge }

// BinOp evaluates a binary arithmetic or bitwise operation.
type BinOp struct {
	Op   ArithOp
	X, Y ValueID
}

// Cmp compares two integers.
type Cmp struct {
	Pred Predicate
	X, Y ValueID
}

// Select yields X if Cond is non-zero, otherwise Y.
type Select struct{ Cond, X, Y ValueID }

// Load reads memory at Addr.
type Load struct {
	Addr     ValueID
	Volatile bool
}

// Store writes Val to memory at Addr.
type Store struct {
	Addr, Val ValueID
	Volatile  bool
}

// Call calls a named function. Pure calls neither read nor write state.
type Call struct {
	Callee string
	Args   []ValueID
	Pure   bool
}

// Opaque stands for any operation the IR does not model.
type Opaque struct {
	Desc   string
	Args   []ValueID
	Effect bool
}

// Jump unconditionally transfers control to Target.
type Jump struct{ Target BlockID }

// If transfers control to Then if Cond is non-zero, otherwise to Else.
type If struct {
	Cond       ValueID
	Then, Else BlockID
}

// Return leaves the function.
type Return struct{ Results []ValueID }

// Panic aborts execution.
type Panic struct{ Arg ValueID }

func (*Param) Operands() []ValueID    { return nil }
func (*Const) Operands() []ValueID    { return nil }
func (i *BinOp) Operands() []ValueID  { return []ValueID{i.X, i.Y} }
func (i *Cmp) Operands() []ValueID    { return []ValueID{i.X, i.Y} }
func (i *Select) Operands() []ValueID { return []ValueID{i.Cond, i.X, i.Y} }
func (i *Load) Operands() []ValueID   { return []ValueID{i.Addr} }
func (i *Store) Operands() []ValueID  { return []ValueID{i.Addr, i.Val} }
func (i *Call) Operands() []ValueID   { return append([]ValueID(nil), i.Args...) }
func (i *Opaque) Operands() []ValueID { return append([]ValueID(nil), i.Args...) }
func (*Jump) Operands() []ValueID     { return nil }
func (i *If) Operands() []ValueID     { return []ValueID{i.Cond} }
func (i *Return) Operands() []ValueID { return append([]ValueID(nil), i.Results...) }
func (i *Panic) Operands() []ValueID  { return []ValueID{i.Arg} }

func (i *Phi) Operands() []ValueID {
	ops := make([]ValueID, len(i.Edges))
	for n, e := range i.Edges {
		ops[n] = e.Value
	}
	return ops
}

func (*Param) setOperand(int, ValueID)        { panic("ir: param has no operands") }
func (*Const) setOperand(int, ValueID)        { panic("ir: const has no operands") }
func (*Jump) setOperand(int, ValueID)         { panic("ir: jump has no operands") }
func (i *Phi) setOperand(n int, v ValueID)    { i.Edges[n].Value = v }
func (i *Call) setOperand(n int, v ValueID)   { i.Args[n] = v }
func (i *Opaque) setOperand(n int, v ValueID) { i.Args[n] = v }
func (i *Return) setOperand(n int, v ValueID) { i.Results[n] = v }
func (i *Load) setOperand(_ int, v ValueID)   { i.Addr = v }
func (i *If) setOperand(_ int, v ValueID)     { i.Cond = v }
func (i *Panic) setOperand(_ int, v ValueID)  { i.Arg = v }

func (i *BinOp) setOperand(n int, v ValueID) {
	if n == 0 {
		i.X = v
	} else {
		i.Y = v
	}
}

func (i *Cmp) setOperand(n int, v ValueID) {
	if n == 0 {
		i.X = v
	} else {
		i.Y = v
	}
}

func (i *Select) setOperand(n int, v ValueID) {
	switch n {
	case 0:
		i.Cond = v
	case 1:
		i.X = v
	default:
		i.Y = v
	}
}

func (i *Store) setOperand(n int, v ValueID) {
	if n == 0 {
		i.Addr = v
	} else {
		i.Val = v
	}
}

func (*Param) instr()  {}
func (*Const) instr()  {}
func (*Phi) instr()    {}
func (*BinOp) instr()  {}
func (*Cmp) instr()    {}
func (*Select) instr() {}
func (*Load) instr()   {}
func (*Store) instr()  {}
func (*Call) instr()   {}
func (*Opaque) instr() {}
func (*Jump) instr()   {}
func (*If) instr()     {}
func (*Return) instr() {}
func (*Panic) instr()  {}

func (i *Jump) Succs() []BlockID { return []BlockID{i.Target} }
func (i *If) Succs() []BlockID   { return []BlockID{i.Then, i.Else} }
func (*Return) Succs() []BlockID { return nil }
func (*Panic) Succs() []BlockID  { return nil }

func (i *Jump) setSucc(_ int, b BlockID) { i.Target = b }
func (*Return) setSucc(int, BlockID)     { panic("ir: return has no successors") }
func (*Panic) setSucc(int, BlockID)      { panic("ir: panic has no successors") }

func (i *If) setSucc(n int, b BlockID) {
	if n == 0 {
		i.Then = b
	} else {
		i.Else = b
	}
}

func (*Jump) termInstr()   {}
func (*If) termInstr()     {}
func (*Return) termInstr() {}
func (*Panic) termInstr()  {}

// ArithOp is the operation of a BinOp.
type ArithOp uint8

// Arithmetic operations.
const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr
)

var arithNames = [...]string{"add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr"}

func (op ArithOp) String() string {
	if int(op) < len(arithNames) {
		return arithNames[op]
	}
	return "arith?"
}

// Predicate is the comparison of a Cmp.
type Predicate uint8

// Comparison predicates. The s and u prefixes are signed and unsigned.
const (
	EQ Predicate = iota
	NE
	SLT
	SLE
	SGT
	SGE
	ULT
	ULE
	UGT
	UGE
)

var predNames = [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}

func (p Predicate) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return "pred?"
}

// IsEquality returns true for eq and ne.
func (p Predicate) IsEquality() bool { return p == EQ || p == NE }

// Inverse returns the predicate of the negated comparison.
func (p Predicate) Inverse() Predicate {
	switch p {
	case EQ:
		return NE
	case NE:
		return EQ
	case SLT:
		return SGE
	case SLE:
		return SGT
	case SGT:
		return SLE
	case SGE:
		return SLT
	case ULT:
		return UGE
	case ULE:
		return UGT
	case UGT:
		return ULE
	default:
		return ULT
	}
}
