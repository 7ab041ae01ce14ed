package rtl

import (
	"github.com/slate-lang/slatec/sccp"
)

// SCCP runs sparse conditional constant propagation on g: ALU results
// and moves proven constant are rewritten to immediate moves, branches
// with decidable comparisons fold to gotos, unreachable blocks are
// removed.
func SCCP(g *CFG) *CFG {
	return sccp.Propagate[*CFG, *Instr, Reg, Label, int64](g, cfgBackend{}, codeBackend{})
}

type lattice = sccp.Lattice[int64]

type cfgBackend struct{}

func (cfgBackend) StartLabel(g *CFG) Label      { return g.Start }
func (cfgBackend) Labels(g *CFG) []Label        { return g.Labels() }
func (cfgBackend) Params(g *CFG) []Reg          { return g.Params() }
func (cfgBackend) Pred(g *CFG, l Label) []Label { return g.Pred(l) }

func (cfgBackend) Block(g *CFG, l Label) ([]*Instr, bool) {
	return g.Block(l)
}

func (cfgBackend) PutBlock(g *CFG, l Label, code []*Instr) *CFG {
	g.PutBlock(l, code)
	return g
}

func (cfgBackend) RemoveUnreachableCode(g *CFG) *CFG {
	g.RemoveUnreachableCode()
	return g
}

type codeBackend struct{}

func (codeBackend) IsPhi(i *Instr) bool { return i.Op == OpPhi }

func (codeBackend) PhiArglist(i *Instr) []sccp.PhiArg[Label, Reg] {
	args := make([]sccp.PhiArg[Label, Reg], len(i.Src))
	for n, o := range i.Src {
		args[n] = sccp.PhiArg[Label, Reg]{Pred: i.Targets[n], Var: o.Reg()}
	}
	return args
}

func (codeBackend) PhiDst(i *Instr) Reg { return i.Dst[0] }

// Uses returns the registers an instruction reads.
func (codeBackend) Uses(i *Instr) []Reg {
	var regs []Reg
	for _, o := range i.Src {
		if !o.IsImm() {
			regs = append(regs, o.Reg())
		}
	}
	return regs
}

// operand reads the lattice of an operand: immediates are constants by
// definition, registers read from the environment.
func operand(o Operand, lookup sccp.Lookup[Reg, int64]) lattice {
	if o.IsImm() {
		return sccp.ConstOf(o.Val())
	}
	return lookup(o.Reg())
}

func (codeBackend) Visit(i *Instr, lookup sccp.Lookup[Reg, int64]) ([]Label, []sccp.Update[Reg, int64]) {
	switch {
	case i.Op == OpMove:
		return nil, def(i.Dst, operand(i.Src[0], lookup))

	case i.Op.isALU():
		x := operand(i.Src[0], lookup)
		y := operand(i.Src[1], lookup)
		val := sccp.Top[int64]()
		switch {
		case x.IsBottom() || y.IsBottom():
			val = sccp.Bottom[int64]()
		case x.IsConst() && y.IsConst():
			cx, _ := x.Const()
			cy, _ := y.Const()
			val = sccp.ConstOf(evalALU(i.Op, cx, cy))
		}
		return nil, def(i.Dst, val)

	case i.Op == OpCall:
		// every destination register at once, all unknown
		return nil, def(i.Dst, sccp.Bottom[int64]())

	case i.Op == OpGoto:
		return i.Targets, nil

	case i.Op == OpBranch:
		x := operand(i.Src[0], lookup)
		y := operand(i.Src[1], lookup)
		switch {
		case x.IsBottom() || y.IsBottom():
			return i.Targets, nil
		case x.IsConst() && y.IsConst():
			cx, _ := x.Const()
			cy, _ := y.Const()
			if evalRel(i.Rel, cx, cy) {
				return i.Targets[:1], nil
			}
			return i.Targets[1:2], nil
		}
		// operands still Top, decided later
		return nil, nil
	}
	return nil, nil
}

func def(dst []Reg, val lattice) []sccp.Update[Reg, int64] {
	return []sccp.Update[Reg, int64]{{Dst: dst, Val: val}}
}

// Rewrite materializes constants as immediate moves and folds decided
// branches. Instructions are replaced, never mutated: callers may hold
// references into the original graph.
func (codeBackend) Rewrite(i *Instr, lookup sccp.Lookup[Reg, int64]) []*Instr {
	switch {
	case i.Op == OpMove || i.Op == OpPhi || i.Op.isALU():
		if lt := lookup(i.Dst[0]); lt.IsConst() {
			c, _ := lt.Const()
			return []*Instr{Move(i.Dst[0], Imm(c))}
		}

	case i.Op == OpBranch:
		x := operand(i.Src[0], lookup)
		y := operand(i.Src[1], lookup)
		if x.IsConst() && y.IsConst() {
			cx, _ := x.Const()
			cy, _ := y.Const()
			t := i.Targets[1]
			if evalRel(i.Rel, cx, cy) {
				t = i.Targets[0]
			}
			return []*Instr{Goto(t)}
		}
	}
	return []*Instr{i}
}

func evalALU(op Op, x, y int64) int64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpAnd:
		return x & y
	case OpOr:
		return x | y
	case OpXor:
		return x ^ y
	}
	panic("rtl: not an ALU op: " + op.String())
}

func evalRel(rel RelOp, x, y int64) bool {
	switch rel {
	case RelEq:
		return x == y
	case RelNe:
		return x != y
	case RelLt:
		return x < y
	case RelLe:
		return x <= y
	case RelGt:
		return x > y
	case RelGe:
		return x >= y
	}
	panic("rtl: bad relop")
}
