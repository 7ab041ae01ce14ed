// Package rtl is a low-level register-transfer IR: virtual registers,
// three-address ALU instructions, compare-and-branch, calls that define
// several registers at once. The CFG is expected in SSA form (every
// register defined exactly once, joins reconciled by OpPhi) before
// running the optimization passes.
package rtl

import "fmt"

// Label identifies a basic block.
type Label int32

// Reg is a virtual register.
type Reg int32

type Op uint8

const (
	OpInvalid Op = iota

	OpMove // Dst[0] <- Src[0]

	// ALU, Dst[0] <- Src[0] op Src[1]
	OpAdd
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor

	OpCall // Dst... <- call, opaque to the optimizer
	OpPhi  // Dst[0] <- per-predecessor selection of Src, preds in Targets

	OpGoto   // Targets[0]
	OpBranch // if Src[0] Rel Src[1] then Targets[0] else Targets[1]
	OpRet
)

var opNames = [...]string{
	OpInvalid: "invalid",
	OpMove:    "move",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpCall:    "call",
	OpPhi:     "phi",
	OpGoto:    "goto",
	OpBranch:  "branch",
	OpRet:     "ret",
}

func (op Op) String() string { return opNames[op] }

func (op Op) isALU() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpAnd, OpOr, OpXor:
		return true
	}
	return false
}

// RelOp is the comparison of an OpBranch.
type RelOp uint8

const (
	RelEq RelOp = iota
	RelNe
	RelLt
	RelLe
	RelGt
	RelGe
)

// Operand is a register or an immediate.
type Operand struct {
	imm bool
	reg Reg
	val int64
}

// R makes a register operand.
func R(r Reg) Operand { return Operand{reg: r} }

// Imm makes an immediate operand.
func Imm(v int64) Operand { return Operand{imm: true, val: v} }

func (o Operand) IsImm() bool { return o.imm }
func (o Operand) Reg() Reg    { return o.reg }
func (o Operand) Val() int64  { return o.val }

func (o Operand) String() string {
	if o.imm {
		return fmt.Sprintf("%d", o.val)
	}
	return fmt.Sprintf("r%d", o.reg)
}

// Instr is a single RTL instruction.
type Instr struct {
	Op      Op
	Rel     RelOp
	Dst     []Reg
	Src     []Operand
	Targets []Label
}

func Move(d Reg, s Operand) *Instr {
	return &Instr{Op: OpMove, Dst: []Reg{d}, Src: []Operand{s}}
}

func Binop(op Op, d Reg, a, b Operand) *Instr {
	if !op.isALU() {
		panic("rtl: not an ALU op: " + op.String())
	}
	return &Instr{Op: op, Dst: []Reg{d}, Src: []Operand{a, b}}
}

// Call defines every register in dst; the callee is opaque.
func Call(dst ...Reg) *Instr {
	return &Instr{Op: OpCall, Dst: dst}
}

// Income is one phi input: the register flowing in from Pred.
type Income struct {
	Pred Label
	Reg  Reg
}

func Phi(d Reg, in ...Income) *Instr {
	i := &Instr{Op: OpPhi, Dst: []Reg{d}}
	for _, inc := range in {
		i.Src = append(i.Src, R(inc.Reg))
		i.Targets = append(i.Targets, inc.Pred)
	}
	return i
}

func Goto(l Label) *Instr {
	return &Instr{Op: OpGoto, Targets: []Label{l}}
}

func Branch(rel RelOp, a, b Operand, then, els Label) *Instr {
	return &Instr{Op: OpBranch, Rel: rel, Src: []Operand{a, b}, Targets: []Label{then, els}}
}

func Ret() *Instr {
	return &Instr{Op: OpRet}
}

func (i *Instr) String() string {
	s := i.Op.String()
	for _, d := range i.Dst {
		s += fmt.Sprintf(" r%d", d)
	}
	for _, o := range i.Src {
		s += " " + o.String()
	}
	for _, t := range i.Targets {
		s += fmt.Sprintf(" L%d", t)
	}
	return s
}

// CFG is a control-flow graph of RTL blocks. Label order is the
// insertion order, which keeps passes deterministic.
type CFG struct {
	Start  Label
	params []Reg
	order  []Label
	blocks map[Label]*block

	cachedPreds map[Label][]Label
}

type block struct {
	code []*Instr
}

func New(start Label, params ...Reg) *CFG {
	return &CFG{
		Start:  start,
		params: params,
		blocks: make(map[Label]*block),
	}
}

// Add appends a block with the given code under l.
func (g *CFG) Add(l Label, code ...*Instr) {
	if _, dup := g.blocks[l]; dup {
		panic(fmt.Sprintf("rtl: block L%d redefined", l))
	}
	g.order = append(g.order, l)
	g.blocks[l] = &block{code: code}
	g.invalidateCFG()
}

func (g *CFG) Labels() []Label {
	labels := make([]Label, len(g.order))
	copy(labels, g.order)
	return labels
}

func (g *CFG) Params() []Reg { return g.params }

func (g *CFG) Block(l Label) ([]*Instr, bool) {
	b, ok := g.blocks[l]
	if !ok {
		return nil, false
	}
	return b.code, true
}

func (g *CFG) PutBlock(l Label, code []*Instr) {
	b, ok := g.blocks[l]
	if !ok {
		panic(fmt.Sprintf("rtl: store into missing block L%d", l))
	}
	b.code = code
	g.invalidateCFG()
}

// Succs returns the branch targets of l's final instruction.
func (g *CFG) Succs(l Label) []Label {
	b, ok := g.blocks[l]
	if !ok || len(b.code) == 0 {
		return nil
	}
	return b.code[len(b.code)-1].Targets
}

func (g *CFG) Pred(l Label) []Label {
	if g.cachedPreds == nil {
		preds := make(map[Label][]Label, len(g.order))
		for _, b := range g.order {
			for _, s := range g.Succs(b) {
				preds[s] = append(preds[s], b)
			}
		}
		g.cachedPreds = preds
	}
	return g.cachedPreds[l]
}

func (g *CFG) invalidateCFG() {
	g.cachedPreds = nil
}

// RemoveUnreachableCode deletes blocks unreachable from Start and prunes
// phi incomes flowing in along deleted edges. A phi left with a single
// income becomes a move.
func (g *CFG) RemoveUnreachableCode() {
	reachable := map[Label]bool{g.Start: true}
	stack := []Label{g.Start}
	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.Succs(l) {
			if !reachable[s] {
				reachable[s] = true
				stack = append(stack, s)
			}
		}
	}

	order := g.order[:0]
	for _, l := range g.order {
		if reachable[l] {
			order = append(order, l)
		} else {
			delete(g.blocks, l)
		}
	}
	g.order = order
	g.invalidateCFG()

	for _, l := range g.order {
		b := g.blocks[l]
		for n, i := range b.code {
			if i.Op == OpPhi {
				b.code[n] = g.prunePhi(l, i)
			}
		}
	}
}

func (g *CFG) prunePhi(l Label, i *Instr) *Instr {
	src := i.Src[:0]
	preds := i.Targets[:0]
	for n, o := range i.Src {
		if g.hasEdge(i.Targets[n], l) {
			src = append(src, o)
			preds = append(preds, i.Targets[n])
		}
	}
	i.Src = src
	i.Targets = preds

	switch len(i.Src) {
	case 0:
		panic(fmt.Sprintf("rtl: phi in reachable L%d has no incoming edges", l))
	case 1:
		return Move(i.Dst[0], i.Src[0])
	}
	return i
}

func (g *CFG) hasEdge(src, dst Label) bool {
	for _, s := range g.Succs(src) {
		if s == dst {
			return true
		}
	}
	return false
}

// String dumps the graph, one block per paragraph.
func (g *CFG) String() string {
	s := ""
	for _, l := range g.order {
		s += fmt.Sprintf("L%d:\n", l)
		for _, i := range g.blocks[l].code {
			s += "  " + i.String() + "\n"
		}
	}
	return s
}
