package lower

import (
	"fmt"
	"strings"

	"sysyc/internal/ast"
	"sysyc/internal/koopa"
	"sysyc/internal/symtab"
)

// paramTypeIR renders a parameter's Koopa type: "i32" for a scalar, or a
// pointer to the array of dimensions remaining after the implicit first
// decayed level (spec.md §4.2.8).
func paramTypeIR(p *ast.FuncFParam, dims []int) string {
	if !p.IsArray {
		return "i32"
	}
	if len(dims) == 0 {
		return koopa.PointerType("i32")
	}
	return koopa.PointerType(koopa.ArrayType("i32", dims))
}

// lowerFuncDef implements spec.md §4.2.8: parameter slots, then the body.
func (c *Context) lowerFuncDef(f *ast.FuncDef) {
	c.curFuncRetVoid = f.RetVoid
	c.curFuncName = f.Name
	c.terminated = false

	scopeNum := c.syms.PushScope()

	paramDims := make([][]int, len(f.Params))
	headerParts := make([]string, len(f.Params))
	for i, p := range f.Params {
		paramDims[i] = c.evalDims(p.Dims)
		headerName := fmt.Sprintf("param_%s_%d", p.Name, scopeNum)
		headerParts[i] = fmt.Sprintf("@%s: %s", headerName, paramTypeIR(p, paramDims[i]))
	}

	retType := "i32"
	if f.RetVoid {
		retType = ""
	}
	c.b.FuncOpen(f.Name, strings.Join(headerParts, ", "), retType)

	c.emitLabel(fmt.Sprintf("entry_%d", c.freshEntry()))

	for i, p := range f.Params {
		headerName := fmt.Sprintf("@param_%s_%d", p.Name, scopeNum)
		local := fmt.Sprintf("%s_%d", p.Name, scopeNum)
		if !p.IsArray {
			addr := c.b.EmitNamed(local, koopa.Alloc("i32"))
			c.b.EmitStmt(koopa.Store(headerName, addr))
			c.syms.Insert(p.Name, symtab.Symbol{Tag: symtab.Var})
			continue
		}
		addr := c.b.EmitNamed(local, koopa.Alloc(paramTypeIR(p, paramDims[i])))
		c.b.EmitStmt(koopa.Store(headerName, addr))
		c.syms.Insert(p.Name, symtab.Symbol{Tag: symtab.Pointer, Dims: paramDims[i]})
	}

	c.lowerBlockItems(f.Body.Items)

	if !c.terminated {
		if f.RetVoid {
			c.b.EmitStmt(koopa.Ret(""))
		} else {
			// Boundary behavior (spec.md §8): a function falling off its
			// end without an explicit return gets a synthesized `ret 0`.
			c.b.EmitStmt(koopa.Ret("0"))
		}
	}

	c.syms.PopScope()
	c.b.FuncClose()
}
