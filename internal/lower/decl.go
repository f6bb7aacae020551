package lower

import (
	"fmt"
	"strconv"
	"strings"

	"sysyc/internal/ast"
	"sysyc/internal/koopa"
	"sysyc/internal/symtab"
)

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

func (c *Context) evalDims(dims []ast.Expr) []int {
	out := make([]int, len(dims))
	for i, e := range dims {
		out[i] = c.foldConst(e)
	}
	return out
}

// subshapeFor implements the SysY initializer alignment rule (spec.md
// §4.2.7): the subshape for a nested aggregate at position pos is the
// largest suffix of dims whose product evenly divides pos, except that at
// position 0 it is always every dimension but the outermost.
func (c *Context) subshapeFor(dims []int, pos int) []int {
	n := len(dims)
	if n <= 1 {
		return dims
	}
	if pos%dims[n-1] != 0 {
		c.fatal("ill-formed array initializer: element at position %d does not align to any dimension boundary", pos)
	}
	k := 1
	for k < n-1 {
		grown := product(dims[n-k-1:])
		if pos == 0 || pos%grown == 0 {
			k++
		} else {
			break
		}
	}
	return dims[n-k:]
}

// flattenInit elaborates init against dims into a row-major slice of length
// product(dims); positions left nil are implicit zeros.
func (c *Context) flattenInit(init ast.InitVal, dims []int) []ast.Expr {
	out := make([]ast.Expr, product(dims))
	c.elaborateInto(init, dims, out)
	return out
}

func (c *Context) elaborateInto(init ast.InitVal, dims []int, out []ast.Expr) {
	agg, ok := init.(*ast.Aggregate)
	if !ok {
		c.fatal("array initializer must be a brace-enclosed aggregate")
		return
	}
	pos := 0
	total := len(out)
	for _, item := range agg.Items {
		if pos >= total {
			c.fatal("initializer has more elements than the declared array shape")
		}
		if nested, isAgg := item.(*ast.Aggregate); isAgg {
			sub := c.subshapeFor(dims, pos)
			n := product(sub)
			if pos+n > total {
				c.fatal("nested initializer does not align to a dimension boundary")
			}
			c.elaborateInto(nested, sub, out[pos:pos+n])
			pos += n
		} else {
			out[pos] = item.(*ast.ScalarInit).Expr
			pos++
		}
	}
}

func unflattenIndex(flat int, dims []int) []int {
	idxs := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		idxs[i] = flat % dims[i]
		flat /= dims[i]
	}
	return idxs
}

// emitLocalArrayInit stores every element of init (expression-valued or
// implicit zero) into baseAddr's array: per position, a chain of one
// `getelemptr` per dimension followed by a `store` — locals have no
// zeroinit form, so every slot is written explicitly.
func (c *Context) emitLocalArrayInit(baseAddr string, dims []int, init ast.InitVal) {
	if init == nil {
		return
	}
	flat := c.flattenInit(init, dims)
	for pos, e := range flat {
		addr := baseAddr
		for _, idx := range unflattenIndex(pos, dims) {
			addr = c.b.EmitValue(koopa.GetElemPtr(addr, strconv.Itoa(idx)))
		}
		var ref string
		if e != nil {
			ref = c.lowerExpr(e)
		} else {
			ref = "0"
		}
		c.b.EmitStmt(koopa.Store(ref, addr))
	}
}

// globalArrayLiteral folds init into the nested brace-literal text a
// global alloc takes, eliding to "zeroinit" when init is absent or every
// folded element is zero (a Supplemented Feature grounded in the C
// original: globals whose aggregate folds to all-zero skip the literal).
func (c *Context) globalArrayLiteral(dims []int, init ast.InitVal) string {
	if init == nil {
		return "zeroinit"
	}
	flat := c.flattenInit(init, dims)
	vals := make([]int, len(flat))
	allZero := true
	for i, e := range flat {
		if e != nil {
			vals[i] = c.foldConst(e)
			if vals[i] != 0 {
				allZero = false
			}
		}
	}
	if allZero {
		return "zeroinit"
	}
	return renderGlobalLiteral(vals, dims)
}

func renderGlobalLiteral(vals []int, dims []int) string {
	n := dims[0]
	rest := dims[1:]
	chunk := product(rest)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		sub := vals[i*chunk : (i+1)*chunk]
		if len(rest) == 0 {
			parts[i] = strconv.Itoa(sub[0])
		} else {
			parts[i] = renderGlobalLiteral(sub, rest)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// lowerGlobalDecl implements spec.md §4.2.7 for top-level declarations.
func (c *Context) lowerGlobalDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.ConstDecl:
		for _, def := range n.Defs {
			dims := c.evalDims(def.Dims)
			if len(dims) == 0 {
				val := c.foldConst(def.Init.(*ast.ScalarInit).Expr)
				c.syms.InsertGlobal(def.Name, symtab.Symbol{Tag: symtab.Const, Value: val, IsGlobal: true})
				continue
			}
			lit := c.globalArrayLiteral(dims, def.Init)
			c.b.Global(def.Name, fmt.Sprintf("alloc %s, %s", koopa.ArrayType("i32", dims), lit))
			c.syms.InsertGlobal(def.Name, symtab.Symbol{Tag: symtab.Array, Dims: dims, IsGlobal: true})
		}
	case *ast.VarDecl:
		for _, def := range n.Defs {
			dims := c.evalDims(def.Dims)
			if len(dims) == 0 {
				rhs := "alloc i32, zeroinit"
				if def.Init != nil {
					val := c.foldConst(def.Init.(*ast.ScalarInit).Expr)
					rhs = fmt.Sprintf("alloc i32, %d", val)
				}
				c.b.Global(def.Name, rhs)
				c.syms.InsertGlobal(def.Name, symtab.Symbol{Tag: symtab.Var, IsGlobal: true})
				continue
			}
			lit := c.globalArrayLiteral(dims, def.Init)
			c.b.Global(def.Name, fmt.Sprintf("alloc %s, %s", koopa.ArrayType("i32", dims), lit))
			c.syms.InsertGlobal(def.Name, symtab.Symbol{Tag: symtab.Array, Dims: dims, IsGlobal: true})
		}
	default:
		c.fatal("unhandled top-level declaration %T", d)
	}
}

// lowerLocalConstDecl implements spec.md §4.2.7 for a local `const`: a
// scalar folds into the symbol table with no IR emitted; an array still
// gets real storage, since Array-tagged LVals are always addressed rather
// than inlined (spec.md §4.2.4's resolution order never folds an Array).
func (c *Context) lowerLocalConstDecl(n *ast.ConstDecl) {
	scopeNum := c.syms.CurrentScopeNum()
	for _, def := range n.Defs {
		dims := c.evalDims(def.Dims)
		if len(dims) == 0 {
			val := c.foldConst(def.Init.(*ast.ScalarInit).Expr)
			c.syms.Insert(def.Name, symtab.Symbol{Tag: symtab.Const, Value: val})
			continue
		}
		local := fmt.Sprintf("%s%s", def.Name, symtab.ScopeSuffix(scopeNum))
		addr := c.b.EmitNamed(local, koopa.Alloc(koopa.ArrayType("i32", dims)))
		c.emitLocalArrayInit(addr, dims, def.Init)
		c.syms.Insert(def.Name, symtab.Symbol{Tag: symtab.Array, Dims: dims})
	}
}

// lowerLocalVarDecl implements spec.md §4.2.7 for a local `int`
// declaration, scalar or array, initialized or not.
func (c *Context) lowerLocalVarDecl(n *ast.VarDecl) {
	scopeNum := c.syms.CurrentScopeNum()
	for _, def := range n.Defs {
		dims := c.evalDims(def.Dims)
		local := fmt.Sprintf("%s%s", def.Name, symtab.ScopeSuffix(scopeNum))
		if len(dims) == 0 {
			addr := c.b.EmitNamed(local, koopa.Alloc("i32"))
			if def.Init != nil {
				ref := c.lowerExpr(def.Init.(*ast.ScalarInit).Expr)
				c.b.EmitStmt(koopa.Store(ref, addr))
			}
			c.syms.Insert(def.Name, symtab.Symbol{Tag: symtab.Var})
			continue
		}
		addr := c.b.EmitNamed(local, koopa.Alloc(koopa.ArrayType("i32", dims)))
		c.emitLocalArrayInit(addr, dims, def.Init)
		c.syms.Insert(def.Name, symtab.Symbol{Tag: symtab.Array, Dims: dims})
	}
}
