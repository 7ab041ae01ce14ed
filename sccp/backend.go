package sccp

// FlowEdge is a control-flow edge between two basic blocks.
type FlowEdge[L comparable] struct {
	Src, Dst L
}

// PhiArg is one entry of a phi arglist: the variable flowing in from Pred.
type PhiArg[L, V comparable] struct {
	Pred L
	Var  V
}

// Update is one lattice assignment produced by visiting an instruction.
// Dst usually has a single element; instructions that define several
// variables at once (multi-value calls, condition-code bundles) list them
// all and the update folds across them.
type Update[V, C comparable] struct {
	Dst []V
	Val Lattice[C]
}

// Lookup reads the current lattice value of a variable. Variables the
// engine has not seen yet read as Top.
type Lookup[V, C comparable] func(V) Lattice[C]

// CfgBackend describes the shape of the control-flow graph being
// optimized. G is the graph handle, I the instruction handle, V the
// variable type and L the block label type.
type CfgBackend[G, I any, V, L comparable] interface {
	// StartLabel returns the entry block label.
	StartLabel(g G) L
	// Labels returns all block labels. The engine iterates this order
	// during the rewrite, so a deterministic order gives deterministic
	// output.
	Labels(g G) []L
	// Params returns the function parameters. Their values are unknown
	// from the caller, so the engine seeds them Bottom.
	Params(g G) []V
	// Pred returns the predecessor labels of l.
	Pred(g G, l L) []L
	// Block returns the code of block l. A missing block is tolerated:
	// the engine warns and treats it as empty.
	Block(g G, l L) ([]I, bool)
	// PutBlock stores updated code for block l.
	PutBlock(g G, l L, code []I) G
	// RemoveUnreachableCode prunes blocks that are no longer reachable
	// from the entry. Invoked once after the rewrite.
	RemoveUnreachableCode(g G) G
}

// CodeBackend supplies the instruction semantics: which instructions are
// phis, what they read and define, and the abstract transfer function.
type CodeBackend[I any, V, L, C comparable] interface {
	IsPhi(i I) bool
	// PhiArglist returns the (predecessor, variable) pairs of a phi.
	PhiArglist(i I) []PhiArg[L, V]
	// PhiDst returns the variable a phi defines.
	PhiDst(i I) V
	// Uses returns the variables an instruction reads.
	Uses(i I) []V
	// Visit is the abstract transfer function. It returns the successor
	// labels statically selected under the current lattice and the
	// lattice updates for the variables the instruction defines.
	//
	// For an unconditional branch the successors are its target; for a
	// conditional branch whose condition is Const the selected single
	// target; for Bottom both targets; for Top none at all, so that a
	// later constant discovery can still prune the branch.
	Visit(i I, lookup Lookup[V, C]) ([]L, []Update[V, C])
	// Rewrite concretizes an instruction under the final lattice: fold
	// values proven constant, rewire branches with constant conditions.
	// It may replace the instruction with zero or more new ones.
	Rewrite(i I, lookup Lookup[V, C]) []I
}
