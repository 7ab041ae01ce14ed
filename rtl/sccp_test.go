package rtl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func instrs(g *CFG, l Label) []*Instr {
	code, ok := g.Block(l)
	if !ok {
		return nil
	}
	return code
}

//	r1 := 3
//	r2 := r1 + 4
//	if r2 == 7 goto L1 else goto L2
func TestSCCPFoldAndBranch(t *testing.T) {
	g := New(0)
	g.Add(0,
		Move(1, Imm(3)),
		Binop(OpAdd, 2, R(1), Imm(4)),
		Branch(RelEq, R(2), Imm(7), 1, 2))
	g.Add(1, Ret())
	g.Add(2, Ret())

	g = SCCP(g)

	code := instrs(g, 0)
	require.Len(t, code, 3)
	require.Equal(t, "move r2 7", code[1].String())
	require.Equal(t, "goto L1", code[2].String())

	_, ok := g.Block(2)
	require.False(t, ok, "L2 is dead and must be pruned")
	require.Equal(t, []Label{0, 1}, g.Labels())
}

// A call defines both of its destination registers as unknown; nothing
// downstream of either folds.
func TestSCCPCallMultiDst(t *testing.T) {
	g := New(0)
	g.Add(0,
		Call(1, 2),
		Binop(OpAdd, 3, R(1), Imm(1)),
		Binop(OpXor, 4, R(2), R(2)),
		Ret())

	g = SCCP(g)

	code := instrs(g, 0)
	require.Equal(t, OpCall, code[0].Op)
	require.Equal(t, OpAdd, code[1].Op)
	// Even r2^r2 stays: the lattice knows nothing about algebraic
	// identities, only about constants.
	require.Equal(t, OpXor, code[2].Op)
}

// Parameters are seeded unknown.
func TestSCCPParams(t *testing.T) {
	g := New(0, 1)
	g.Add(0,
		Binop(OpAdd, 2, R(1), Imm(5)),
		Ret())

	g = SCCP(g)

	require.Equal(t, OpAdd, instrs(g, 0)[0].Op)
}

// Agreeing phi across a diamond whose branch cannot be decided.
func TestSCCPPhiAgreement(t *testing.T) {
	g := New(0, 1)
	g.Add(0,
		Move(2, Imm(5)),
		Branch(RelLt, R(1), Imm(0), 1, 2))
	g.Add(1,
		Move(3, R(2)),
		Goto(3))
	g.Add(2,
		Move(4, R(2)),
		Goto(3))
	g.Add(3,
		Phi(5, Income{Pred: 1, Reg: 3}, Income{Pred: 2, Reg: 4}),
		Ret())

	g = SCCP(g)

	require.Equal(t, "move r5 5", instrs(g, 3)[0].String())
	require.Len(t, g.Labels(), 4)
}

// The branch decides, so the phi only ever sees the live arm and the
// dead arm is removed.
func TestSCCPPhiDeadArm(t *testing.T) {
	g := New(0)
	g.Add(0,
		Move(1, Imm(5)),
		Move(2, Imm(6)),
		Branch(RelLt, Imm(1), Imm(2), 1, 2))
	g.Add(1, Goto(3))
	g.Add(2, Goto(3))
	g.Add(3,
		Phi(3, Income{Pred: 1, Reg: 1}, Income{Pred: 2, Reg: 2}),
		Ret())

	g = SCCP(g)

	require.Equal(t, "move r3 5", instrs(g, 3)[0].String())
	require.Equal(t, []Label{0, 1, 3}, g.Labels())
}

// Loop: the phi meets its own increment through the back edge.
func TestSCCPLoop(t *testing.T) {
	g := New(0)
	g.Add(0,
		Move(1, Imm(0)),
		Goto(1))
	g.Add(1,
		Phi(2, Income{Pred: 0, Reg: 1}, Income{Pred: 2, Reg: 3}),
		Branch(RelLt, R(2), Imm(10), 2, 3))
	g.Add(2,
		Binop(OpAdd, 3, R(2), Imm(1)),
		Goto(1))
	g.Add(3, Ret())

	g = SCCP(g)

	head := instrs(g, 1)
	require.Equal(t, OpPhi, head[0].Op)
	require.Equal(t, OpBranch, head[1].Op)
	require.Equal(t, []Label{0, 1, 2, 3}, g.Labels())
}

func TestRemoveUnreachablePhiCollapse(t *testing.T) {
	g := New(0)
	g.Add(0,
		Move(1, Imm(1)),
		Goto(2))
	g.Add(1, // dead
		Move(2, Imm(2)),
		Goto(2))
	g.Add(2,
		Phi(3, Income{Pred: 0, Reg: 1}, Income{Pred: 1, Reg: 2}),
		Ret())

	g.RemoveUnreachableCode()

	require.Equal(t, "move r3 r1", instrs(g, 2)[0].String())
	require.Equal(t, []Label{0, 2}, g.Labels())
}
