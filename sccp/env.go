package sccp

import (
	"fmt"

	"github.com/nikandfor/tlog"
)

// ssaEdge names one use-site of a variable: the instruction that reads it
// and the block it lives in. When a definition's lattice drops, its
// use-sites are queued for re-evaluation.
type ssaEdge[L comparable, I any] struct {
	block L
	instr I
}

// env is the mutable state of the fixpoint. It is created by Propagate,
// mutated exclusively by the engine and read by the rewriter.
type env[G, I any, V, L, C comparable] struct {
	g    G
	cfg  CfgBackend[G, I, V, L]
	code CodeBackend[I, V, L, C]

	entry    L
	exec     map[FlowEdge[L]]bool // edges proven reachable
	handled  map[L]bool           // blocks whose non-phi code ran at least once
	cells    map[V]Lattice[C]     // missing key reads as Top
	ssaEdges map[V][]ssaEdge[L, I]
}

func newEnv[G, I any, V, L, C comparable](g G, cfg CfgBackend[G, I, V, L], code CodeBackend[I, V, L, C]) *env[G, I, V, L, C] {
	e := &env[G, I, V, L, C]{
		g:        g,
		cfg:      cfg,
		code:     code,
		entry:    cfg.StartLabel(g),
		exec:     make(map[FlowEdge[L]]bool),
		handled:  make(map[L]bool),
		cells:    make(map[V]Lattice[C]),
		ssaEdges: make(map[V][]ssaEdge[L, I]),
	}

	// Parameters are unknown from the caller.
	for _, p := range cfg.Params(g) {
		e.cells[p] = Bottom[C]()
	}

	// Build the def-use index early, the engine relies on it every time a
	// lattice value drops.
	for _, l := range cfg.Labels(g) {
		blk, ok := cfg.Block(g, l)
		if !ok {
			continue
		}
		for _, ins := range blk {
			for _, v := range code.Uses(ins) {
				e.ssaEdges[v] = append(e.ssaEdges[v], ssaEdge[L, I]{l, ins})
			}
		}
	}
	return e
}

func (e *env[G, I, V, L, C]) markExecutable(ed FlowEdge[L]) { e.exec[ed] = true }
func (e *env[G, I, V, L, C]) isExecutable(ed FlowEdge[L]) bool {
	return e.exec[ed]
}

func (e *env[G, I, V, L, C]) markHandled(l L)    { e.handled[l] = true }
func (e *env[G, I, V, L, C]) isHandled(l L) bool { return e.handled[l] }

// reachable reports whether any predecessor edge into l is executable.
// The entry block is reachable through its seed self-edge.
func (e *env[G, I, V, L, C]) reachable(l L) bool {
	if e.exec[FlowEdge[L]{l, l}] {
		return true
	}
	for _, p := range e.cfg.Pred(e.g, l) {
		if e.exec[FlowEdge[L]{p, l}] {
			return true
		}
	}
	return false
}

// lookup returns the lattice value of v. A variable the engine has not
// seen yet is optimistically Top, not Bottom.
func (e *env[G, I, V, L, C]) lookup(v V) Lattice[C] {
	return e.cells[v]
}

// update lowers the stored lattice values of the update's destinations,
// returning the use-sites that must be re-evaluated. Folding across the
// destination list accumulates the emitted work.
func (e *env[G, I, V, L, C]) update(u Update[V, C]) []ssaEdge[L, I] {
	var work []ssaEdge[L, I]
	for _, d := range u.Dst {
		old, ok := e.cells[d]
		if ok && old == u.Val {
			continue
		}
		if !below(old, u.Val) {
			fatalf("lattice raised for %v: %v -> %v", d, old, u.Val)
		}
		e.cells[d] = u.Val
		tlog.V("sccp").Printw("lattice lowered", "var", d, "from", old, "to", u.Val)
		work = append(work, e.ssaEdges[d]...)
	}
	return work
}

func fatalf(format string, args ...interface{}) {
	panic("sccp: " + fmt.Sprintf(format, args...))
}
