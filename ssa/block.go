package ssa

import "fmt"

// Block is a basic block. Its code is an ordered list of Values: phis at
// the head, exactly one terminator at the end. Successors are a property
// of the terminator; predecessors are derived by Func and cached.
type Block struct {
	ID     ID
	Func   *Func
	Values []*Value
}

// Terminator returns the block's final instruction, or nil for a block
// that is still being built.
func (b *Block) Terminator() *Value {
	if len(b.Values) == 0 {
		return nil
	}
	if v := b.Values[len(b.Values)-1]; v.Op.IsTerminator() {
		return v
	}
	return nil
}

// Succs returns the labels of the successor blocks, in branch order.
func (b *Block) Succs() []ID {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.Targets
}

func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}
