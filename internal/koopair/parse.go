// Parse turns the Koopa IR text internal/lower emits back into the typed
// value graph defined in graph.go. spec.md §1/§6 treats this as an external
// "IR builder" collaborator; no Go package in the retrieval pack implements
// this invented textual IR, so this file plays that role directly. The
// grammar it accepts is exactly the surface internal/koopa emits (spec.md
// §6), so parsing proceeds line-by-line rather than through a general
// tokenizer/grammar: one top-level construct (decl/global/fun) per line
// group, one instruction per indented line within a function body.
package koopair

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses the full Koopa IR text for a compilation unit.
func Parse(text string) (*Program, error) {
	p := &parser{lines: splitLines(text)}
	return p.parseProgram()
}

type parser struct {
	lines []string
	pos   int

	// globals indexes every global alloc by name, visible to every function.
	globals map[string]*Value

	// funcSigs maps every declared/defined function name to its return
	// type (Void() for a void function), resolved in a pre-pass so that
	// forward and mutually recursive calls type-check regardless of
	// textual order.
	funcSigs map[string]*Type
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *parser) next() (string, bool) {
	l, ok := p.peek()
	if ok {
		p.pos++
	}
	return l, ok
}

func (p *parser) parseProgram() (*Program, error) {
	p.globals = map[string]*Value{}
	p.funcSigs = map[string]*Type{}
	if err := p.collectSignatures(); err != nil {
		return nil, err
	}

	prog := &Program{}
	p.pos = 0
	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "decl "):
			p.pos++
		case strings.HasPrefix(trimmed, "global "):
			g, err := p.parseGlobal(trimmed)
			if err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, g)
		case strings.HasPrefix(trimmed, "fun "):
			f, err := p.parseFunction(trimmed)
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, f)
		default:
			return nil, fmt.Errorf("koopair: unexpected top-level line %q", line)
		}
	}
	return prog, nil
}

// collectSignatures makes one pass over the text recording every decl's and
// fun's name -> return type, without building any instructions.
func (p *parser) collectSignatures() error {
	for _, line := range p.lines {
		t := strings.TrimSpace(line)
		var header string
		switch {
		case strings.HasPrefix(t, "decl "):
			header = strings.TrimPrefix(t, "decl ")
		case strings.HasPrefix(t, "fun "):
			header = strings.TrimPrefix(t, "fun ")
			header = strings.TrimSuffix(strings.TrimSpace(header), "{")
			header = strings.TrimSpace(header)
		default:
			continue
		}
		name, _, ret, err := parseSigHeader(header)
		if err != nil {
			return err
		}
		p.funcSigs[name] = ret
	}
	return nil
}

// parseSigHeader parses "@name(params)[: type]" into the callee name, its
// raw parameter text, and its return type (Void() if absent).
func parseSigHeader(header string) (name, params string, ret *Type, err error) {
	if !strings.HasPrefix(header, "@") {
		return "", "", nil, fmt.Errorf("koopair: expected '@name', got %q", header)
	}
	open := strings.Index(header, "(")
	close := matchingParen(header, open)
	if open < 0 || close < 0 {
		return "", "", nil, fmt.Errorf("koopair: malformed signature %q", header)
	}
	name = header[1:open]
	params = header[open+1 : close]
	rest := strings.TrimSpace(header[close+1:])
	if rest == "" {
		return name, params, Void(), nil
	}
	rest = strings.TrimPrefix(rest, ":")
	ty, err := parseType(strings.TrimSpace(rest))
	if err != nil {
		return "", "", nil, err
	}
	return name, params, ty, nil
}

func matchingParen(s string, open int) int {
	if open < 0 {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseGlobal parses "global @name = alloc <type>, <init>".
func (p *parser) parseGlobal(line string) (*Value, error) {
	p.pos++
	rest := strings.TrimPrefix(line, "global ")
	if !strings.HasPrefix(rest, "@") {
		return nil, fmt.Errorf("koopair: malformed global %q", line)
	}
	eq := strings.Index(rest, "=")
	name := strings.TrimSpace(rest[1:eq])
	rhs := strings.TrimSpace(rest[eq+1:])
	rhs = strings.TrimPrefix(rhs, "alloc ")
	comma := splitTopLevel(rhs, ',')
	if len(comma) != 2 {
		return nil, fmt.Errorf("koopair: malformed global initializer %q", line)
	}
	ty, err := parseType(strings.TrimSpace(comma[0]))
	if err != nil {
		return nil, err
	}
	init, err := parseGlobalInit(strings.TrimSpace(comma[1]))
	if err != nil {
		return nil, err
	}
	g := &Value{Kind: KindGlobalAlloc, Type: ty, Temp: -1, Name: name, Init: init}
	p.globals[name] = g
	return g, nil
}

func parseGlobalInit(s string) (*GlobalInit, error) {
	if s == "zeroinit" {
		return &GlobalInit{Zero: true}, nil
	}
	if strings.HasPrefix(s, "{") {
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
		var items []*GlobalInit
		if strings.TrimSpace(inner) != "" {
			for _, part := range splitTopLevel(inner, ',') {
				it, err := parseGlobalInit(strings.TrimSpace(part))
				if err != nil {
					return nil, err
				}
				items = append(items, it)
			}
		}
		return &GlobalInit{Items: items}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("koopair: malformed initializer literal %q", s)
	}
	return &GlobalInit{Scalar: n}, nil
}

// funcState is the per-function resolution context while parsing a body:
// the temp table (by %k index), the named-value table (alloc/param
// references by name), and the block-by-label table (pre-populated so
// forward branch/jump targets resolve).
type funcState struct {
	temps  map[int]*Value
	named  map[string]*Value
	blocks map[string]*Block
}

func (p *parser) parseFunction(headerLine string) (*Function, error) {
	p.pos++
	header := strings.TrimPrefix(headerLine, "fun ")
	header = strings.TrimSuffix(strings.TrimSpace(header), "{")
	name, paramsText, ret, err := parseSigHeader(strings.TrimSpace(header))
	if err != nil {
		return nil, err
	}
	f := &Function{Name: name, RetType: ret}

	fs := &funcState{temps: map[int]*Value{}, named: map[string]*Value{}, blocks: map[string]*Block{}}

	if strings.TrimSpace(paramsText) != "" {
		for i, raw := range splitTopLevel(paramsText, ',') {
			raw = strings.TrimSpace(raw)
			colon := strings.Index(raw, ":")
			pname := strings.TrimSpace(strings.TrimPrefix(raw[:colon], "@"))
			pty, err := parseType(strings.TrimSpace(raw[colon+1:]))
			if err != nil {
				return nil, err
			}
			pv := &Value{Kind: KindFuncArgRef, Type: pty, Temp: -1, Name: pname, Const: i}
			f.Params = append(f.Params, pv)
			fs.named[pname] = pv
		}
	}

	// Pre-scan this function's body for its block labels so a jump/branch
	// can target a label defined later in the text (spec.md §4.2.6 always
	// emits the branch before the `end` label it targets).
	bodyStart := p.pos
	depth := 1
	for i := p.pos; i < len(p.lines) && depth > 0; i++ {
		t := strings.TrimSpace(p.lines[i])
		if t == "}" {
			depth--
			continue
		}
		if strings.HasSuffix(t, ":") && strings.HasPrefix(t, "%") {
			label := strings.TrimSuffix(strings.TrimPrefix(t, "%"), ":")
			blk := &Block{Label: label}
			fs.blocks[label] = blk
			f.Blocks = append(f.Blocks, blk)
		}
	}
	p.pos = bodyStart

	var cur *Block
	for {
		line, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("koopair: unterminated function %q", name)
		}
		t := strings.TrimSpace(line)
		if t == "}" {
			break
		}
		if strings.HasSuffix(t, ":") && strings.HasPrefix(t, "%") {
			label := strings.TrimSuffix(strings.TrimPrefix(t, "%"), ":")
			cur = fs.blocks[label]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("koopair: instruction %q outside any block", t)
		}
		v, err := p.parseInst(t, fs)
		if err != nil {
			return nil, err
		}
		cur.Insts = append(cur.Insts, v)
	}
	return f, nil
}

// parseInst parses one instruction line (sans leading/trailing whitespace)
// into a resolved *Value, registering it in fs if it produces one.
func (p *parser) parseInst(line string, fs *funcState) (*Value, error) {
	var temp int = -1
	var namedDest string
	rhs := line
	if idx := strings.Index(line, " = "); idx >= 0 && (line[0] == '%' || line[0] == '@') {
		lhs := line[:idx]
		rhs = strings.TrimSpace(line[idx+3:])
		if line[0] == '%' {
			n, err := strconv.Atoi(lhs[1:])
			if err != nil {
				return nil, fmt.Errorf("koopair: malformed temp %q", lhs)
			}
			temp = n
		} else {
			namedDest = strings.TrimPrefix(lhs, "@")
		}
	}

	sp := strings.IndexByte(rhs, ' ')
	mnem := rhs
	operandText := ""
	if sp >= 0 {
		mnem = rhs[:sp]
		operandText = strings.TrimSpace(rhs[sp+1:])
	}

	resolve := func(tok string) (*Value, error) { return p.resolveOperand(tok, fs) }

	var v *Value
	switch mnem {
	case "alloc":
		ty, err := parseType(operandText)
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindAlloc, Type: ty, Temp: -1, Name: namedDest}
	case "load":
		addr, err := resolve(operandText)
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindLoad, Type: derefType(addr), Temp: temp, Args: []*Value{addr}}
	case "store":
		parts := splitTopLevel(operandText, ',')
		val, err := resolve(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		addr, err := resolve(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindStore, Temp: -1, Args: []*Value{val, addr}}
	case "getelemptr", "getptr":
		parts := splitTopLevel(operandText, ',')
		base, err := resolve(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		idx, err := resolve(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		var ty *Type
		k := KindGetElemPtr
		if mnem == "getelemptr" {
			ty = stepInto(base.Type)
		} else {
			k = KindGetPtr
			ty = base.Type
		}
		v = &Value{Kind: k, Type: ty, Temp: temp, Args: []*Value{base, idx}}
	case "call":
		name, args, err := parseCallText(operandText, resolve)
		if err != nil {
			return nil, err
		}
		ret, ok := p.funcSigs[name]
		if !ok {
			return nil, fmt.Errorf("koopair: call to undeclared function %q", name)
		}
		v = &Value{Kind: KindCall, Type: ret, Temp: temp, Name: name, Args: args}
	case "br":
		parts := splitTopLevel(operandText, ',')
		cond, err := resolve(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		tBlk, err := p.resolveBlock(strings.TrimSpace(parts[1]), fs)
		if err != nil {
			return nil, err
		}
		fBlk, err := p.resolveBlock(strings.TrimSpace(parts[2]), fs)
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindBranch, Temp: -1, Args: []*Value{cond}, Targets: []*Block{tBlk, fBlk}}
	case "jump":
		blk, err := p.resolveBlock(operandText, fs)
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindJump, Temp: -1, Targets: []*Block{blk}}
	case "ret":
		var args []*Value
		if operandText != "" {
			r, err := resolve(operandText)
			if err != nil {
				return nil, err
			}
			args = []*Value{r}
		}
		v = &Value{Kind: KindRet, Temp: -1, Args: args}
	default:
		// Binary operator.
		parts := splitTopLevel(operandText, ',')
		if len(parts) != 2 {
			return nil, fmt.Errorf("koopair: malformed instruction %q", line)
		}
		l, err := resolve(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		r, err := resolve(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		v = &Value{Kind: KindBinOp, Type: I32(), Temp: temp, Op: mnem, Args: []*Value{l, r}}
	}

	if temp >= 0 {
		fs.temps[temp] = v
	}
	if namedDest != "" {
		fs.named[namedDest] = v
	}
	return v, nil
}

// parseCallText parses "@name(arg1, arg2, ...)" into the callee name and
// its resolved argument values.
func parseCallText(s string, resolve func(string) (*Value, error)) (string, []*Value, error) {
	open := strings.Index(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("koopair: malformed call %q", s)
	}
	name := strings.TrimPrefix(s[:open], "@")
	inner := strings.TrimSuffix(s[open+1:], ")")
	var args []*Value
	if strings.TrimSpace(inner) != "" {
		for _, part := range splitTopLevel(inner, ',') {
			v, err := resolve(strings.TrimSpace(part))
			if err != nil {
				return "", nil, err
			}
			args = append(args, v)
		}
	}
	return name, args, nil
}

// derefType is the type a load yields when reading through addr. An
// alloc's Type field already is the content type it stores (an alloc of
// "*i32" holds a pointer value, full stop), so loading it returns that
// type unchanged; a getelemptr/getptr result's Type is always itself a
// pointer wrapping the pointed-to type (spec.md §4.4), so loading it
// strips exactly that one wrapper.
func derefType(addr *Value) *Type {
	switch addr.Kind {
	case KindGetElemPtr, KindGetPtr:
		if addr.Type != nil && addr.Type.Kind == Pointer {
			return addr.Type.Elem
		}
		return addr.Type
	default:
		return addr.Type
	}
}

// resolveOperand resolves a single operand token to a *Value: a temp ref
// ("%k"), a named ref ("@name", a local alloc/param or a global), or a bare
// decimal literal, synthesized as an unparented KindConst value.
func (p *parser) resolveOperand(tok string, fs *funcState) (*Value, error) {
	switch {
	case strings.HasPrefix(tok, "%"):
		idxStr := tok[1:]
		n, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fmt.Errorf("koopair: unresolved label used as value %q", tok)
		}
		v, ok := fs.temps[n]
		if !ok {
			return nil, fmt.Errorf("koopair: reference to undefined temporary %q", tok)
		}
		return v, nil
	case strings.HasPrefix(tok, "@"):
		name := tok[1:]
		if v, ok := fs.named[name]; ok {
			return v, nil
		}
		if v, ok := p.globals[name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("koopair: reference to undefined name %q", tok)
	default:
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("koopair: malformed operand %q", tok)
		}
		return &Value{Kind: KindConst, Type: I32(), Temp: -1, Const: n}, nil
	}
}

func (p *parser) resolveBlock(tok string, fs *funcState) (*Block, error) {
	label := strings.TrimPrefix(tok, "%")
	blk, ok := fs.blocks[label]
	if !ok {
		return nil, fmt.Errorf("koopair: branch to undefined block %q", tok)
	}
	return blk, nil
}

// parseType parses a Koopa type string: "i32", "*<type>", or "[<type>, N]".
func parseType(s string) (*Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "i32":
		return I32(), nil
	case s == "" || s == "unit":
		return Void(), nil
	case strings.HasPrefix(s, "*"):
		elem, err := parseType(s[1:])
		if err != nil {
			return nil, err
		}
		return PointerTo(elem), nil
	case strings.HasPrefix(s, "["):
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		parts := splitTopLevel(inner, ',')
		if len(parts) != 2 {
			return nil, fmt.Errorf("koopair: malformed array type %q", s)
		}
		elem, err := parseType(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("koopair: malformed array length in %q", s)
		}
		return ArrayOf(elem, n), nil
	}
	return nil, fmt.Errorf("koopair: unrecognized type %q", s)
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// (), [], or {} — needed because a type or call-argument list can itself
// contain commas one level deeper (e.g. a 2-D array type or a nested
// aggregate initializer).
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
