// Package parser is a hand-rolled recursive-descent parser from SysY source
// text to *ast.CompUnit. The teacher generates its parser with goyacc from a
// grammar file; goyacc cannot be invoked here (no toolchain runs), so this
// package instead follows the teacher's other documented parsing idiom —
// operator precedence resolved by recursion depth, one function per grammar
// rule — by hand. It is a collaborator of the core lowering pipeline (spec.md
// §1 places the lexer/parser out of scope) kept just complete enough to feed
// Phase A real trees in tests.
package parser

import (
	"fmt"

	"sysyc/internal/ast"
	"sysyc/internal/lexer"
	"sysyc/internal/token"
)

// Parser consumes a token stream and builds an *ast.CompUnit. A small
// lookahead queue (at most two tokens) resolves the `int ident (` vs.
// `int ident [;,=[]` ambiguity between a function definition and a
// declaration, and the `ident (` vs. `ident =`/`ident[...]` ambiguity
// between a call and an LVal.
type Parser struct {
	lx          *lexer.Lexer
	tok         token.Token
	queue       []token.Token
	pendingLVal *ast.LVal // set by tryParseAssign when it turns out not to be an assignment
}

// Parse lexes and parses src, returning the resulting translation unit.
func Parse(src string) (*ast.CompUnit, error) {
	p := &Parser{lx: lexer.New(src)}
	p.advance()
	cu, err := p.parseCompUnit()
	if err != nil {
		return nil, err
	}
	return cu, nil
}

func (p *Parser) advance() {
	if len(p.queue) > 0 {
		p.tok = p.queue[0]
		p.queue = p.queue[1:]
		return
	}
	p.tok = p.lx.Next()
}

// peekTok returns the nth token after the current one (n=1 is the very next
// token), filling the lookahead queue as needed.
func (p *Parser) peekTok(n int) token.Token {
	for len(p.queue) < n {
		p.queue = append(p.queue, p.lx.Next())
	}
	return p.queue[n-1]
}

func (p *Parser) pos() ast.Pos { return ast.Pos{Line: p.tok.Line, Col: p.tok.Pos} }

func (p *Parser) errf(format string, args ...interface{}) error {
	return fmt.Errorf("parse error at %d:%d: %s", p.tok.Line, p.tok.Pos, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.tok.Kind != k {
		return token.Token{}, p.errf("expected %s, got %q", k, p.tok.Val)
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *Parser) accept(k token.Kind) bool {
	if p.tok.Kind == k {
		p.advance()
		return true
	}
	return false
}

// parseCompUnit := (Decl | FuncDef)*
func (p *Parser) parseCompUnit() (*ast.CompUnit, error) {
	cu := &ast.CompUnit{}
	for p.tok.Kind != token.EOF {
		if p.tok.Kind == token.Error {
			return nil, p.errf("%s", p.tok.Val)
		}
		isFunc, err := p.lookaheadIsFuncDef()
		if err != nil {
			return nil, err
		}
		if isFunc {
			f, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			cu.Funcs = append(cu.Funcs, f)
			continue
		}
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		cu.Decls = append(cu.Decls, d)
	}
	return cu, nil
}

// lookaheadIsFuncDef distinguishes `type ident (` (function) from
// `[const] type ident ...;` (declaration) and `void ident (` (function).
func (p *Parser) lookaheadIsFuncDef() (bool, error) {
	if p.tok.Kind == token.KwConst {
		return false, nil
	}
	if p.tok.Kind != token.KwInt && p.tok.Kind != token.KwVoid {
		return false, p.errf("expected declaration or function definition, got %q", p.tok.Val)
	}
	if p.tok.Kind == token.KwVoid {
		return true, nil
	}
	// KwInt: need two tokens of lookahead past `int` — ident, then '(' for a
	// function definition versus '=' / '[' / ';' / ',' for a declaration.
	if p.peekTok(1).Kind != token.Ident {
		return false, p.errf("expected identifier, got %q", p.peekTok(1).Val)
	}
	return p.peekTok(2).Kind == '(', nil
}

func (p *Parser) parseType() (voidType bool, err error) {
	switch p.tok.Kind {
	case token.KwInt:
		p.advance()
		return false, nil
	case token.KwVoid:
		p.advance()
		return true, nil
	}
	return false, p.errf("expected type, got %q", p.tok.Val)
}

// parseDecl handles both ConstDecl and VarDecl. At top level the caller has
// already ruled out a function definition via lookaheadIsFuncDef, so this
// path is only reached for declarations.
func (p *Parser) parseDecl() (ast.Decl, error) {
	pos := p.pos()
	if p.accept(token.KwConst) {
		defs, err := p.parseDefList(true)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(';'); err != nil {
			return nil, err
		}
		return &ast.ConstDecl{Pos: pos, Defs: defs}, nil
	}
	if _, err := p.expect(token.KwInt); err != nil {
		return nil, err
	}
	defs, err := p.parseVarDefList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(';'); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Pos: pos, Defs: defs}, nil
}

func (p *Parser) parseDefList(isConst bool) ([]*ast.ConstDef, error) {
	var defs []*ast.ConstDef
	for {
		d, err := p.parseConstDef()
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
		if !p.accept(',') {
			break
		}
	}
	return defs, nil
}

func (p *Parser) parseConstDef() (*ast.ConstDef, error) {
	pos := p.pos()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	dims, err := p.parseDims()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect('='); err != nil {
		return nil, err
	}
	init, err := p.parseInitVal()
	if err != nil {
		return nil, err
	}
	return &ast.ConstDef{Pos: pos, Name: name.Val, Dims: dims, Init: init}, nil
}

func (p *Parser) parseVarDefList() ([]*ast.VarDef, error) {
	var defs []*ast.VarDef
	for {
		pos := p.pos()
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		dims, err := p.parseDims()
		if err != nil {
			return nil, err
		}
		var init ast.InitVal
		if p.accept('=') {
			init, err = p.parseInitVal()
			if err != nil {
				return nil, err
			}
		}
		defs = append(defs, &ast.VarDef{Pos: pos, Name: name.Val, Dims: dims, Init: init})
		if !p.accept(',') {
			break
		}
	}
	return defs, nil
}

func (p *Parser) parseDims() ([]ast.Expr, error) {
	var dims []ast.Expr
	for p.tok.Kind == '[' {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(']'); err != nil {
			return nil, err
		}
		dims = append(dims, e)
	}
	return dims, nil
}

func (p *Parser) parseInitVal() (ast.InitVal, error) {
	pos := p.pos()
	if p.tok.Kind == '{' {
		p.advance()
		var items []ast.InitVal
		if p.tok.Kind != '}' {
			for {
				it, err := p.parseInitVal()
				if err != nil {
					return nil, err
				}
				items = append(items, it)
				if !p.accept(',') {
					break
				}
			}
		}
		if _, err := p.expect('}'); err != nil {
			return nil, err
		}
		return &ast.Aggregate{Pos: pos, Items: items}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ScalarInit{Pos: pos, Expr: e}, nil
}

func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	pos := p.pos()
	voidRet, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect('('); err != nil {
		return nil, err
	}
	var params []*ast.FuncFParam
	if p.tok.Kind != ')' {
		for {
			param, err := p.parseFParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.accept(',') {
				break
			}
		}
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Pos: pos, Name: name.Val, RetVoid: voidRet, Params: params, Body: body}, nil
}

func (p *Parser) parseFParam() (*ast.FuncFParam, error) {
	pos := p.pos()
	if _, err := p.expect(token.KwInt); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != '[' {
		return &ast.FuncFParam{Pos: pos, Name: name.Val}, nil
	}
	p.advance() // consume '['
	if _, err := p.expect(']'); err != nil {
		return nil, err
	}
	dims, err := p.parseDims()
	if err != nil {
		return nil, err
	}
	return &ast.FuncFParam{Pos: pos, Name: name.Val, IsArray: true, Dims: dims}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	pos := p.pos()
	if _, err := p.expect('{'); err != nil {
		return nil, err
	}
	b := &ast.Block{Pos: pos}
	for p.tok.Kind != '}' {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	p.advance() // consume '}'
	return b, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	switch p.tok.Kind {
	case token.KwConst:
		return p.parseDecl()
	case token.KwInt:
		return p.parseDecl()
	default:
		return p.parseStmt()
	}
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	pos := p.pos()
	switch p.tok.Kind {
	case token.KwReturn:
		p.advance()
		if p.accept(';') {
			return &ast.ReturnStmt{Pos: pos}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(';'); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Pos: pos, Expr: e}, nil
	case token.KwBreak:
		p.advance()
		if _, err := p.expect(';'); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Pos: pos}, nil
	case token.KwContinue:
		p.advance()
		if _, err := p.expect(';'); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Pos: pos}, nil
	case '{':
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Pos: pos, Block: b}, nil
	case ';':
		p.advance()
		return &ast.ExprStmt{Pos: pos}, nil
	case token.KwIf:
		p.advance()
		if _, err := p.expect('('); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(')'); err != nil {
			return nil, err
		}
		then, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		var elseStmt ast.Stmt
		if p.accept(token.KwElse) {
			elseStmt, err = p.parseStmt()
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfStmt{Pos: pos, Cond: cond, Then: then, Else: elseStmt}, nil
	case token.KwWhile:
		p.advance()
		if _, err := p.expect('('); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(')'); err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}, nil
	default:
		// Either `LVal = Expr ;` or `Expr ;`. Both start with an expression;
		// disambiguate by parsing an expression and checking for a trailing
		// '=' when that expression turns out to be a bare LVal.
		return p.parseAssignOrExprStmt(pos)
	}
}

func (p *Parser) parseAssignOrExprStmt(pos ast.Pos) (ast.Stmt, error) {
	if p.tok.Kind == token.Ident && p.peekTok(1).Kind != '(' {
		lval, isAssign, err := p.tryParseAssign()
		if err != nil {
			return nil, err
		}
		if isAssign {
			rhs, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(';'); err != nil {
				return nil, err
			}
			return &ast.AssignStmt{Pos: pos, LVal: lval, Expr: rhs}, nil
		}
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(';'); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Pos: pos, Expr: e}, nil
}

// tryParseAssign parses an LVal starting at the current identifier and
// reports whether it is immediately followed by '=' (an assignment) rather
// than some other expression operator. If it is not an assignment, the
// parsed LVal is stored in pendingLVal and the caller continues with
// parseExpr, whose parsePrimary takes the pending LVal as its first operand
// instead of re-reading those tokens.
func (p *Parser) tryParseAssign() (*ast.LVal, bool, error) {
	lval, err := p.parseLVal()
	if err != nil {
		return nil, false, err
	}
	if p.tok.Kind == '=' {
		p.advance()
		return lval, true, nil
	}
	p.pendingLVal = lval
	return nil, false, nil
}

func (p *Parser) parseLVal() (*ast.LVal, error) {
	pos := p.pos()
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	lv := &ast.LVal{Pos: pos, Name: name.Val}
	for p.tok.Kind == '[' {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(']'); err != nil {
			return nil, err
		}
		lv.Indices = append(lv.Indices, idx)
	}
	return lv, nil
}
