package ssa

import (
	"github.com/slate-lang/slatec/sccp"
)

// SCCP runs sparse conditional constant propagation on f: values proven
// constant are rewritten to OpConst, conditional branches with constant
// conditions are folded to OpGoto, and blocks that become unreachable are
// removed. The analysis itself lives in the sccp package; this file binds
// it to the IR.
func SCCP(f *Func) {
	sccp.Propagate[*Func, *Value, *Value, ID, int64](f, cfgBackend{}, codeBackend{})
}

type lattice = sccp.Lattice[int64]

// cfgBackend exposes the CFG shape of a Func to the engine.
type cfgBackend struct{}

func (cfgBackend) StartLabel(f *Func) ID { return f.Entry.ID }

func (cfgBackend) Labels(f *Func) []ID {
	labels := make([]ID, len(f.Blocks))
	for i, b := range f.Blocks {
		labels[i] = b.ID
	}
	return labels
}

func (cfgBackend) Params(f *Func) []*Value { return f.Params }

func (cfgBackend) Pred(f *Func, l ID) []ID { return f.Pred(l) }

func (cfgBackend) Block(f *Func, l ID) ([]*Value, bool) {
	b := f.BlockByID(l)
	if b == nil {
		return nil, false
	}
	return b.Values, true
}

func (cfgBackend) PutBlock(f *Func, l ID, code []*Value) *Func {
	b := f.BlockByID(l)
	if b == nil {
		f.Fatalf("store into missing block b%d", l)
	}
	b.Values = code
	for _, v := range code {
		v.Block = b
	}
	f.invalidateCFG()
	return f
}

func (cfgBackend) RemoveUnreachableCode(f *Func) *Func {
	f.RemoveUnreachableCode()
	return f
}

// codeBackend supplies instruction semantics: the transfer function over
// the constant lattice and the final rewrite.
type codeBackend struct{}

func (codeBackend) IsPhi(v *Value) bool { return v.Op == OpPhi }

func (codeBackend) PhiArglist(v *Value) []sccp.PhiArg[ID, *Value] {
	args := make([]sccp.PhiArg[ID, *Value], len(v.Args))
	for i, a := range v.Args {
		args[i] = sccp.PhiArg[ID, *Value]{Pred: v.Targets[i], Var: a}
	}
	return args
}

// PhiDst returns the phi itself: a Value names the variable it defines.
func (codeBackend) PhiDst(v *Value) *Value { return v }

// Uses returns the operands whose lattice changes v reacts to. Ops that
// can never fold are not indexed: no matter how often they are revisited
// their lattice stays Bottom.
func (codeBackend) Uses(v *Value) []*Value {
	if !possibleConst(v.Op) && v.Op != OpIf {
		return nil
	}
	return v.Args
}

func (codeBackend) Visit(v *Value, lookup sccp.Lookup[*Value, int64]) ([]ID, []sccp.Update[*Value, int64]) {
	switch v.Op {
	case OpConst:
		return nil, def(v, sccp.ConstOf(v.AuxInt))
	case OpCopy:
		return nil, def(v, lookup(v.Args[0]))
	case OpArg, OpCall:
		// unknown from the caller / opaque effects
		return nil, def(v, sccp.Bottom[int64]())
	case OpGoto:
		return v.Targets, nil
	case OpIf:
		cond := lookup(v.Args[0])
		switch {
		case cond.IsBottom():
			return v.Targets, nil
		case cond.IsConst():
			c, _ := cond.Const()
			if c != 0 {
				return v.Targets[:1], nil
			}
			return v.Targets[1:2], nil
		}
		// condition still Top, re-evaluated once it settles
		return nil, nil
	case OpRet, OpExit:
		return nil, nil
	case OpPhi:
		v.Block.Func.Fatalf("phi %s reached ordinary visit", v)
	}

	switch {
	case foldableUnary(v.Op):
		return nil, def(v, visitUnary(v.Op, lookup(v.Args[0])))
	case foldableBinary(v.Op):
		return nil, def(v, visitBinary(v.Op, lookup(v.Args[0]), lookup(v.Args[1])))
	}

	// anything else can never become a constant
	return nil, def(v, sccp.Bottom[int64]())
}

func def(v *Value, lt lattice) []sccp.Update[*Value, int64] {
	return []sccp.Update[*Value, int64]{{Dst: []*Value{v}, Val: lt}}
}

func visitUnary(op Op, x lattice) lattice {
	switch {
	case x.IsBottom():
		return sccp.Bottom[int64]()
	case x.IsConst():
		c, _ := x.Const()
		if r, ok := foldUnary(op, c); ok {
			return sccp.ConstOf(r)
		}
		return sccp.Bottom[int64]()
	}
	return sccp.Top[int64]()
}

func visitBinary(op Op, x, y lattice) lattice {
	switch {
	case x.IsBottom() || y.IsBottom():
		return sccp.Bottom[int64]()
	case x.IsConst() && y.IsConst():
		cx, _ := x.Const()
		cy, _ := y.Const()
		if r, ok := foldBinary(op, cx, cy); ok {
			return sccp.ConstOf(r)
		}
		// e.g. division by a constant zero, left for the runtime
		return sccp.Bottom[int64]()
	}
	return sccp.Top[int64]()
}

func (codeBackend) Rewrite(v *Value, lookup sccp.Lookup[*Value, int64]) []*Value {
	switch v.Op {
	case OpIf:
		if cond := lookup(v.Args[0]); cond.IsConst() {
			c, _ := cond.Const()
			t := v.Targets[0]
			if c == 0 {
				t = v.Targets[1]
			}
			v.reset(OpGoto)
			v.Targets = []ID{t}
		}
	case OpConst, OpArg, OpCall, OpGoto, OpRet, OpExit:
		// nothing to concretize
	default:
		// Phi, Copy and the foldable ops become immediates when the
		// fixpoint proved them constant.
		if lt := lookup(v); lt.IsConst() {
			c, _ := lt.Const()
			v.reset(OpConst)
			v.AuxInt = c
		}
	}
	return []*Value{v}
}
