package ssa

import (
	"github.com/nikandfor/errors"
)

// Check verifies structural invariants of f: every block ends with
// exactly one terminator, phis sit at the block head with one argument
// per predecessor label, and every block label (the entry, branch and phi
// targets) names a block that still exists. Value arguments are not
// checked. Passes call it around transformations in tests.
func (f *Func) Check() error {
	if f.Entry == nil {
		return errors.New("no entry block")
	}
	if f.BlockByID(f.Entry.ID) == nil {
		return errors.New("entry %s not in block list", f.Entry)
	}

	for _, b := range f.Blocks {
		if err := f.checkBlock(b); err != nil {
			return errors.Wrap(err, "%s", b)
		}
	}
	return nil
}

func (f *Func) checkBlock(b *Block) error {
	if len(b.Values) == 0 {
		return errors.New("empty block")
	}

	term := b.Values[len(b.Values)-1]
	if !term.Op.IsTerminator() {
		return errors.New("does not end in a terminator: %s", term.LongString())
	}

	sawNonPhi := false
	for i, v := range b.Values {
		if v.Block != b {
			return errors.New("%s claims block %v", v, v.Block)
		}
		if v.Op.IsTerminator() && i != len(b.Values)-1 {
			return errors.New("terminator %s in the middle of the block", v.LongString())
		}
		if v.Op == OpPhi {
			if sawNonPhi {
				return errors.New("phi %s after non-phi", v)
			}
			if err := f.checkPhi(b, v); err != nil {
				return err
			}
		} else {
			sawNonPhi = true
		}
		for _, t := range v.Targets {
			if f.BlockByID(t) == nil {
				return errors.New("%s targets missing block b%d", v, t)
			}
		}
		if err := checkArity(v); err != nil {
			return err
		}
	}
	return nil
}

func (f *Func) checkPhi(b *Block, v *Value) error {
	if len(v.Args) != len(v.Targets) {
		return errors.New("phi %s has %d args for %d predecessor labels", v, len(v.Args), len(v.Targets))
	}
	preds := f.Pred(b.ID)
	for _, t := range v.Targets {
		found := false
		for _, p := range preds {
			if p == t {
				found = true
				break
			}
		}
		if !found {
			return errors.New("phi %s names b%d, not a predecessor", v, t)
		}
	}
	return nil
}

func checkArity(v *Value) error {
	want := -1
	switch {
	case v.Op == OpConst || v.Op == OpArg || v.Op == OpExit:
		want = 0
	case v.Op == OpCopy || v.Op == OpIf || foldableUnary(v.Op):
		want = 1
	case foldableBinary(v.Op):
		want = 2
	case v.Op == OpGoto:
		if len(v.Args) != 0 || len(v.Targets) != 1 {
			return errors.New("malformed goto %s", v.LongString())
		}
	}
	if v.Op == OpIf && len(v.Targets) != 2 {
		return errors.New("if %s needs two targets", v.LongString())
	}
	if want >= 0 && len(v.Args) != want {
		return errors.New("%s has %d args, want %d", v.LongString(), len(v.Args), want)
	}
	return nil
}
