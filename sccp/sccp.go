package sccp

import "github.com/nikandfor/tlog"

// Propagate runs sparse conditional constant propagation over g and
// returns the rewritten graph. Constant facts are propagated only along
// control flow paths proven executable, so the pass discovers
// opportunities that separate constant folding and unreachable code
// elimination cannot find when run one after the other.
//
// The computation is strictly sequential and deterministic given
// deterministic backends. Both worklists drain LIFO; the order only
// affects the number of revisits, not the fixpoint.
func Propagate[G, I any, V, L, C comparable](g G, cfg CfgBackend[G, I, V, L], code CodeBackend[I, V, L, C]) G {
	e := newEnv(g, cfg, code)

	// Seeding the entry self-edge makes the entry block reachable before
	// any real edge is proven executable.
	flow := []FlowEdge[L]{{e.entry, e.entry}}
	var uses []ssaEdge[L, I]

	for len(flow) > 0 || len(uses) > 0 {
		if n := len(flow); n > 0 {
			ed := flow[n-1]
			flow = flow[:n-1]
			if e.isExecutable(ed) {
				continue
			}
			e.markExecutable(ed)
			tlog.V("sccp").Printw("edge executable", "src", ed.Src, "dst", ed.Dst)

			blk := e.phiScan(ed.Dst)

			// Phi nodes reflect the set of executable predecessor edges,
			// so they are re-evaluated on every newly executable edge
			// into the block. The rest of the code runs once.
			for _, ins := range blk {
				if e.code.IsPhi(ins) {
					uses = append(uses, e.visitPhi(ed.Dst, ins)...)
				}
			}
			if e.isHandled(ed.Dst) {
				continue
			}
			for _, ins := range blk {
				if e.code.IsPhi(ins) {
					continue
				}
				dests, work := e.visitInstr(ins)
				for _, d := range dests {
					flow = append(flow, FlowEdge[L]{ed.Dst, d})
				}
				uses = append(uses, work...)
			}
			e.markHandled(ed.Dst)
			continue
		}

		n := len(uses)
		use := uses[n-1]
		uses = uses[:n-1]
		if !e.reachable(use.block) {
			continue
		}
		if e.code.IsPhi(use.instr) {
			uses = append(uses, e.visitPhi(use.block, use.instr)...)
			continue
		}
		dests, work := e.visitInstr(use.instr)
		for _, d := range dests {
			flow = append(flow, FlowEdge[L]{use.block, d})
		}
		uses = append(uses, work...)
	}

	return cfg.RemoveUnreachableCode(e.rewrite())
}

// phiScan fetches the code of a block about to have its phis re-evaluated.
// A block the backend cannot produce is tolerated as empty, but a block
// that exists with no code at all means the backend handed us an
// inconsistent graph.
func (e *env[G, I, V, L, C]) phiScan(l L) []I {
	blk, ok := e.cfg.Block(e.g, l)
	if !ok {
		tlog.Printw("sccp: no code for block, assuming empty", "block", l)
		return nil
	}
	if len(blk) == 0 {
		fatalf("phi scan on empty block %v", l)
	}
	return blk
}

// visitPhi meets the phi's operands over the executable predecessor edges
// and lowers the phi's destination accordingly. Operands flowing in along
// edges not yet proven executable are ignored: Top ∩ any = any.
func (e *env[G, I, V, L, C]) visitPhi(l L, ins I) []ssaEdge[L, I] {
	acc := Top[C]()
	for _, pa := range e.code.PhiArglist(ins) {
		if !e.isExecutable(FlowEdge[L]{pa.Pred, l}) {
			continue
		}
		acc = Meet(acc, e.lookup(pa.Var))
		if acc.IsBottom() {
			break
		}
	}
	return e.update(Update[V, C]{Dst: []V{e.code.PhiDst(ins)}, Val: acc})
}

// visitInstr applies the backend transfer function to an ordinary
// instruction, folding the resulting updates into the environment.
func (e *env[G, I, V, L, C]) visitInstr(ins I) ([]L, []ssaEdge[L, I]) {
	dests, updates := e.code.Visit(ins, e.lookup)
	var work []ssaEdge[L, I]
	for _, u := range updates {
		work = append(work, e.update(u)...)
	}
	return dests, work
}

// rewrite asks the backend to concretize every instruction of every
// reachable block under the final lattice, then stores the new code with
// phis moved back to the block head. Unreachable blocks are left alone
// for RemoveUnreachableCode.
func (e *env[G, I, V, L, C]) rewrite() G {
	g := e.g
	for _, l := range e.cfg.Labels(g) {
		if !e.reachable(l) {
			continue
		}
		blk, ok := e.cfg.Block(g, l)
		if !ok {
			continue
		}
		code := make([]I, 0, len(blk))
		for _, ins := range blk {
			code = append(code, e.code.Rewrite(ins, e.lookup)...)
		}
		g = e.cfg.PutBlock(g, l, e.phisFirst(code))
	}
	e.g = g
	return g
}

// phisFirst stably moves phi instructions to the head of the code list.
// Rewrites are allowed to emit phis in any position.
func (e *env[G, I, V, L, C]) phisFirst(code []I) []I {
	sorted := make([]I, 0, len(code))
	for _, ins := range code {
		if e.code.IsPhi(ins) {
			sorted = append(sorted, ins)
		}
	}
	if len(sorted) == 0 {
		return code
	}
	for _, ins := range code {
		if !e.code.IsPhi(ins) {
			sorted = append(sorted, ins)
		}
	}
	return sorted
}
