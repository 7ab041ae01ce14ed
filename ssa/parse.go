package ssa

import (
	"strconv"
	"strings"

	"github.com/nikandfor/errors"
)

// Parse builds a Func from a compact textual form, mostly used by tests
// and debugging tools:
//
//	func pow
//	entry:
//	  x = Arg
//	  one = Const [1]
//	  Goto loop
//	loop:
//	  acc = Phi [entry:one body:acc2]
//	  ...
//
// Blocks are introduced by "name:", values by "name = Op [aux] args",
// terminators stand alone ("Goto loop", "If c then else", "Ret x",
// "Exit"). Phi arguments are written "[pred:value ...]". Values may be
// referenced before their definition. Lines starting with # are comments.
func Parse(src string) (*Func, error) {
	p := parser{
		f:      NewFunc("parsed"),
		labels: make(map[string]*Block),
		values: make(map[string]*Value),
	}

	lines := strings.Split(src, "\n")

	// First pass: blocks and value shells, so that references resolve
	// regardless of definition order.
	if err := p.scan(lines); err != nil {
		return nil, err
	}
	// Second pass: arguments and branch targets.
	if err := p.link(lines); err != nil {
		return nil, err
	}

	if p.f.Entry == nil {
		return nil, errors.New("no blocks")
	}
	return p.f, nil
}

type parser struct {
	f      *Func
	labels map[string]*Block
	values map[string]*Value
}

func (p *parser) scan(lines []string) error {
	var cur *Block
	for n, raw := range lines {
		fields, kind := classify(raw)
		switch kind {
		case lineBlank:
			continue
		case lineHeader:
			p.f.Name = fields[1]
		case lineBlock:
			name := strings.TrimSuffix(fields[0], ":")
			if p.labels[name] != nil {
				return errors.New("line %d: block %q redefined", n+1, name)
			}
			cur = p.f.NewBlock()
			p.labels[name] = cur
		case lineDef, lineTerm:
			if cur == nil {
				return errors.New("line %d: instruction outside a block", n+1)
			}
			if err := p.scanInstr(cur, fields, kind); err != nil {
				return errors.Wrap(err, "line %d", n+1)
			}
		}
	}
	return nil
}

func (p *parser) scanInstr(b *Block, fields []string, kind lineKind) error {
	if kind == lineTerm {
		op, ok := opByName(fields[0])
		if !ok || !op.IsTerminator() {
			return errors.New("unknown terminator %q", fields[0])
		}
		p.f.NewValue(b, op, 0)
		return nil
	}

	if len(fields) < 3 {
		return errors.New("malformed definition")
	}
	name := fields[0]
	if p.values[name] != nil {
		return errors.New("value %q redefined", name)
	}
	op, ok := opByName(fields[2])
	if !ok || op.IsTerminator() {
		return errors.New("unknown op %q", fields[2])
	}
	var aux int64
	if len(fields) > 3 && strings.HasPrefix(fields[3], "[") && !strings.Contains(fields[3], ":") {
		s := strings.Trim(fields[3], "[]")
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Wrap(err, "auxint %q", fields[3])
		}
		aux = v
	}
	p.values[name] = p.f.NewValue(b, op, aux)
	return nil
}

func (p *parser) link(lines []string) error {
	var cur *Block
	idx := 0 // instruction index within cur
	for n, raw := range lines {
		fields, kind := classify(raw)
		switch kind {
		case lineBlock:
			cur = p.labels[strings.TrimSuffix(fields[0], ":")]
			idx = 0
		case lineDef, lineTerm:
			v := cur.Values[idx]
			idx++
			if err := p.linkInstr(v, fields, kind); err != nil {
				return errors.Wrap(err, "line %d", n+1)
			}
		}
	}
	return nil
}

func (p *parser) linkInstr(v *Value, fields []string, kind lineKind) error {
	operands := fields[1:]
	if kind == lineDef {
		operands = fields[3:]
		if v.Op == OpConst && len(operands) > 0 {
			operands = operands[1:] // skip the aux
		}
	}

	for _, tok := range operands {
		tok = strings.Trim(tok, "[]")
		if tok == "" {
			continue
		}
		if pred, arg, ok := strings.Cut(tok, ":"); ok {
			// phi pair
			pb := p.labels[pred]
			if pb == nil {
				return errors.New("unknown block %q", pred)
			}
			av := p.values[arg]
			if av == nil {
				return errors.New("unknown value %q", arg)
			}
			v.AddArg(av)
			v.Targets = append(v.Targets, pb.ID)
			continue
		}
		if b := p.labels[tok]; b != nil && (v.Op.IsTerminator()) {
			v.Targets = append(v.Targets, b.ID)
			continue
		}
		av := p.values[tok]
		if av == nil {
			return errors.New("unknown operand %q", tok)
		}
		v.AddArg(av)
	}
	return nil
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeader
	lineBlock
	lineDef
	lineTerm
)

func classify(raw string) ([]string, lineKind) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "#") {
		return nil, lineBlank
	}
	fields := strings.Fields(s)
	switch {
	case fields[0] == "func" && len(fields) > 1:
		return fields, lineHeader
	case strings.HasSuffix(fields[0], ":"):
		return fields, lineBlock
	case len(fields) > 1 && fields[1] == "=":
		return fields, lineDef
	default:
		return fields, lineTerm
	}
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if name != "" {
			m[name] = Op(op)
		}
	}
	return m
}()

func opByName(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}
