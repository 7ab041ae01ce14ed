package ssa

import (
	"fmt"
	"strings"
)

// Func is a function in SSA form: a named container of basic blocks with
// a distinguished entry. Parameters are OpArg Values living in the entry
// block.
type Func struct {
	Name   string
	Entry  *Block
	Blocks []*Block
	Params []*Value

	bid ID
	vid ID

	// CFG shape caches, invalidated when an edge changes.
	cachedPreds map[ID][]ID
}

func NewFunc(name string) *Func {
	return &Func{Name: name}
}

// NewBlock appends a fresh empty block. The first block created becomes
// the entry.
func (f *Func) NewBlock() *Block {
	f.bid++
	b := &Block{ID: f.bid, Func: f}
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
	f.invalidateCFG()
	return b
}

// NewValue appends a value with the given op to b.
func (f *Func) NewValue(b *Block, op Op, auxint int64, args ...*Value) *Value {
	f.vid++
	v := &Value{ID: f.vid, Op: op, AuxInt: auxint, Args: args, Block: b}
	b.Values = append(b.Values, v)
	if op == OpArg {
		f.Params = append(f.Params, v)
	}
	if op.IsTerminator() {
		f.invalidateCFG()
	}
	return v
}

// NumValues returns an upper bound on value IDs, usable for dense
// value-indexed structures.
func (f *Func) NumValues() int {
	return int(f.vid) + 1
}

// BlockByID fetches a block by label. Removed blocks are not found.
func (f *Func) BlockByID(id ID) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Pred returns the labels of the blocks branching to l.
func (f *Func) Pred(l ID) []ID {
	if f.cachedPreds == nil {
		preds := make(map[ID][]ID, len(f.Blocks))
		for _, b := range f.Blocks {
			for _, s := range b.Succs() {
				preds[s] = append(preds[s], b.ID)
			}
		}
		f.cachedPreds = preds
	}
	return f.cachedPreds[l]
}

// invalidateCFG tells f that its CFG has changed.
func (f *Func) invalidateCFG() {
	f.cachedPreds = nil
}

// Fatalf reports an internal inconsistency and aborts the compilation of f.
func (f *Func) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf("%s: ", f.Name) + fmt.Sprintf(format, args...))
}

// String dumps the whole function, one block per paragraph.
func (f *Func) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", f.Name)
	for _, b := range f.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b)
		for _, v := range b.Values {
			fmt.Fprintf(&sb, "  %s\n", v.LongString())
		}
	}
	return sb.String()
}
