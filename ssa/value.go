package ssa

import (
	"fmt"
	"strings"
)

// ID identifies a Value or a Block within its Func.
type ID int32

// Value is a single IR instruction. A non-terminator Value names the SSA
// variable it defines, so Values double as variables: an instruction's
// Args are the defining Values of its operands.
type Value struct {
	ID     ID
	Op     Op
	AuxInt int64    // immediate for OpConst
	Args   []*Value // operands read
	// Targets carries block labels: successor labels for terminators,
	// per-argument predecessor labels for OpPhi (aligned with Args).
	Targets []ID
	Block   *Block // containing block
}

func (v *Value) AddArg(w *Value) {
	v.Args = append(v.Args, w)
}

func (v *Value) SetArg(i int, w *Value) {
	v.Args[i] = w
}

// reset rewrites v in place into a fresh instruction of the given op,
// dropping operands and targets. Existing uses of v keep pointing at it.
func (v *Value) reset(op Op) {
	v.Op = op
	v.AuxInt = 0
	v.Args = nil
	v.Targets = nil
}

func (v *Value) String() string {
	return fmt.Sprintf("v%d", v.ID)
}

// LongString prints the whole instruction, e.g.
//
//	v3 = Add v1 v2
//	v5 = Phi [b1:v3 b4:v9]
//	If v5 -> b2 b3
func (v *Value) LongString() string {
	var sb strings.Builder
	switch {
	case v.Op.IsTerminator():
		sb.WriteString(v.Op.String())
		for _, a := range v.Args {
			fmt.Fprintf(&sb, " %s", a)
		}
		if len(v.Targets) > 0 {
			sb.WriteString(" ->")
			for _, t := range v.Targets {
				fmt.Fprintf(&sb, " b%d", t)
			}
		}
	case v.Op == OpPhi:
		fmt.Fprintf(&sb, "%s = Phi [", v)
		for i, a := range v.Args {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "b%d:%s", v.Targets[i], a)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(&sb, "%s = %s", v, v.Op)
		if v.Op == OpConst {
			fmt.Fprintf(&sb, " [%d]", v.AuxInt)
		}
		for _, a := range v.Args {
			fmt.Fprintf(&sb, " %s", a)
		}
	}
	return sb.String()
}
