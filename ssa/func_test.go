package ssa

// Test harness for building small Funcs by hand. A test writes
//
//	fun := Fun("entry",
//		Bloc("entry",
//			Valu("one", OpConst, 1),
//			Goto("loop")),
//		Bloc("loop",
//			Valu("i", OpPhi, 0, "entry:one", "loop:i2"),
//			Valu("i2", OpAdd, 0, "i", "one"),
//			Goto("loop")))
//
// and gets back the Func plus name->Block and name->Value maps for
// assertions. Phi arguments carry their predecessor label explicitly as
// "pred:value"; forward references are fine.

import (
	"strings"
	"testing"
)

type fun struct {
	f      *Func
	blocks map[string]*Block
	values map[string]*Value
}

type bloc struct {
	name    string
	entries []interface{}
}

type valu struct {
	name string
	op   Op
	aux  int64
	args []string
}

type ctrl struct {
	op      Op
	args    []string
	targets []string
}

func Bloc(name string, entries ...interface{}) bloc {
	return bloc{name: name, entries: entries}
}

func Valu(name string, op Op, aux int64, args ...string) valu {
	return valu{name: name, op: op, aux: aux, args: args}
}

func Goto(target string) ctrl {
	return ctrl{op: OpGoto, targets: []string{target}}
}

func If(cond, then, els string) ctrl {
	return ctrl{op: OpIf, args: []string{cond}, targets: []string{then, els}}
}

func Ret(args ...string) ctrl {
	return ctrl{op: OpRet, args: args}
}

func Exit() ctrl {
	return ctrl{op: OpExit}
}

// Fun builds a Func from blocs. The bloc named entry must come first.
func Fun(entry string, blocs ...bloc) fun {
	f := NewFunc("testfunc")
	fun := fun{
		f:      f,
		blocks: make(map[string]*Block),
		values: make(map[string]*Value),
	}
	if len(blocs) == 0 || blocs[0].name != entry {
		panic("entry bloc must come first")
	}

	// blocks and value shells first, references second
	for _, bl := range blocs {
		b := f.NewBlock()
		fun.blocks[bl.name] = b
		for _, e := range bl.entries {
			switch e := e.(type) {
			case valu:
				fun.values[e.name] = f.NewValue(b, e.op, e.aux)
			case ctrl:
				f.NewValue(b, e.op, 0)
			default:
				panic("unknown bloc entry")
			}
		}
	}

	for _, bl := range blocs {
		b := fun.blocks[bl.name]
		for i, e := range bl.entries {
			v := b.Values[i]
			switch e := e.(type) {
			case valu:
				for _, a := range e.args {
					fun.addArg(v, a)
				}
			case ctrl:
				for _, a := range e.args {
					fun.addArg(v, a)
				}
				for _, t := range e.targets {
					v.Targets = append(v.Targets, fun.blocks[t].ID)
				}
			}
		}
	}
	f.invalidateCFG()
	return fun
}

func (fun fun) addArg(v *Value, arg string) {
	if pred, name, ok := strings.Cut(arg, ":"); ok {
		v.AddArg(fun.values[name])
		v.Targets = append(v.Targets, fun.blocks[pred].ID)
		return
	}
	w := fun.values[arg]
	if w == nil {
		panic("unknown value " + arg)
	}
	v.AddArg(w)
}

func checkFunc(t *testing.T, f *Func) {
	t.Helper()
	if err := f.Check(); err != nil {
		t.Fatalf("bad func:\n%s%v", f, err)
	}
}
