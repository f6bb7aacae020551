package lower

import (
	"fmt"

	"sysyc/internal/ast"
	"sysyc/internal/koopa"
	"sysyc/internal/symtab"
)

// lowerExpr lowers e and returns a reference to its value — a temporary
// "%k", per the Design Notes' resolution of "cross-child value passing":
// each lowering function returns its own result explicitly rather than
// relying on the caller to re-derive "the last temporary defined".
func (c *Context) lowerExpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.IntLit:
		return c.b.EmitValue(koopa.Int(n.Val))
	case *ast.LValExpr:
		return c.lowerLValValue(n.LVal)
	case *ast.UnaryExpr:
		return c.lowerUnary(n)
	case *ast.BinaryExpr:
		return c.lowerBinary(n)
	case *ast.CallExpr:
		return c.lowerCall(n)
	default:
		c.fatal("unhandled expression node %T", e)
		return ""
	}
}

func (c *Context) lowerUnary(n *ast.UnaryExpr) string {
	switch n.Op {
	case ast.UnPlus:
		return c.lowerExpr(n.X) // unary plus is identity (spec.md §4.2.2)
	case ast.UnMinus:
		x := c.lowerExpr(n.X)
		return c.b.EmitValue(koopa.BinOp("sub", "0", x))
	case ast.UnNot:
		x := c.lowerExpr(n.X)
		return c.b.EmitValue(koopa.BinOp("eq", x, "0"))
	default:
		c.fatal("unhandled unary operator %v", n.Op)
		return ""
	}
}

func (c *Context) lowerBinary(n *ast.BinaryExpr) string {
	switch n.Op {
	case ast.OpLAnd:
		return c.lowerShortCircuit(n, true)
	case ast.OpLOr:
		return c.lowerShortCircuit(n, false)
	default:
		// spec.md §4.2.2: the right operand is lowered first, then the
		// left; the op instruction consumes the left (the more recently
		// defined temporary) and the remembered right.
		rref := c.lowerExpr(n.R)
		lref := c.lowerExpr(n.L)
		return c.b.EmitValue(koopa.BinOp(binMnemonic(n.Op), lref, rref))
	}
}

func binMnemonic(op ast.BinOp) string {
	switch op {
	case ast.OpEq:
		return "eq"
	case ast.OpNe:
		return "ne"
	case ast.OpLt:
		return "lt"
	case ast.OpGt:
		return "gt"
	case ast.OpLe:
		return "le"
	case ast.OpGe:
		return "ge"
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "div"
	case ast.OpMod:
		return "mod"
	}
	panic("lower: unreachable binary operator")
}

// lowerShortCircuit implements spec.md §4.2.3. isAnd selects `&&` wiring;
// the `||` case swaps the branch targets.
func (c *Context) lowerShortCircuit(n *ast.BinaryExpr, isAnd bool) string {
	i := c.freshLogic()
	resultName := fmt.Sprintf("result_%d", i)
	thenLabel := fmt.Sprintf("logic_then_%d", i)
	endLabel := fmt.Sprintf("logic_end_%d", i)

	resultAddr := c.b.EmitNamed(resultName, koopa.Alloc("i32"))

	lref := c.lowerExpr(n.L)
	lnorm := c.b.EmitValue(koopa.BinOp("ne", lref, "0"))
	c.b.EmitStmt(koopa.Store(lnorm, resultAddr))
	if isAnd {
		c.b.EmitStmt(koopa.Branch(lnorm, thenLabel, endLabel))
	} else {
		c.b.EmitStmt(koopa.Branch(lnorm, endLabel, thenLabel))
	}
	c.terminated = true

	c.emitLabel(thenLabel)
	rref := c.lowerExpr(n.R)
	rnorm := c.b.EmitValue(koopa.BinOp("ne", rref, "0"))
	c.b.EmitStmt(koopa.Store(rnorm, resultAddr))
	c.b.EmitStmt(koopa.Jump(endLabel))
	c.terminated = true

	c.emitLabel(endLabel)
	return c.b.EmitValue(koopa.Load(resultAddr))
}

// lowerCall implements spec.md §4.2.8: arguments lower right-to-left so
// temporary numbering matches the binary-operand convention, but are
// listed left-to-right in the emitted call.
func (c *Context) lowerCall(n *ast.CallExpr) string {
	sym, ok := c.syms.LookupGlobal(n.Name)
	if !ok {
		c.fatal("call to undeclared function %q", n.Name)
	}
	refs := make([]string, len(n.Args))
	prevParam := c.inParamPosition
	c.inParamPosition = true
	for i := len(n.Args) - 1; i >= 0; i-- {
		refs[i] = c.lowerExpr(n.Args[i])
	}
	c.inParamPosition = prevParam

	call := koopa.Call(n.Name, refs)
	if sym.Value == 0 { // int-returning
		return c.b.EmitValue(call)
	}
	c.b.EmitStmt(call)
	return ""
}

// lowerLValValue lowers an LVal used in value (expression) position,
// implementing the resolution order of spec.md §4.2.4.
func (c *Context) lowerLValValue(lv *ast.LVal) string {
	sym, scopeNum, ok := c.syms.Lookup(lv.Name)
	if !ok {
		c.fatal("undefined identifier %q", lv.Name)
	}
	addr := "@" + lv.Name + symtab.ScopeSuffix(scopeNum)

	switch sym.Tag {
	case symtab.Const:
		if len(lv.Indices) > 0 {
			c.fatal("%q is not an array", lv.Name)
		}
		return c.b.EmitValue(koopa.Int(sym.Value))
	case symtab.Var:
		if len(lv.Indices) > 0 {
			c.fatal("%q is not an array", lv.Name)
		}
		return c.b.EmitValue(koopa.Load(addr))
	case symtab.Array:
		return c.lowerArrayLVal(addr, sym.Dims, lv.Indices)
	case symtab.Pointer:
		return c.lowerPointerLVal(addr, sym.Dims, lv.Indices)
	default:
		c.fatal("unhandled symbol tag %v", sym.Tag)
		return ""
	}
}

// lowerArrayLVal implements spec.md §4.2.4 rules 4, 6 and 7 for a symbol
// whose storage is a true (non-decayed) array.
func (c *Context) lowerArrayLVal(base string, dims []int, indices []ast.Expr) string {
	if len(indices) == 0 {
		// Rule 4: a bare array name decays unconditionally.
		return c.b.EmitValue(koopa.GetElemPtr(base, "0"))
	}
	addr, consumedAll := c.arrayAddrChain(base, dims, indices)
	if !consumedAll && c.inParamPosition {
		return c.b.EmitValue(koopa.GetElemPtr(addr, "0"))
	}
	return c.b.EmitValue(koopa.Load(addr))
}

// lowerPointerLVal implements spec.md §4.2.4 rules 5, 6 and 7 for a
// parameter array that has already decayed to a pointer.
func (c *Context) lowerPointerLVal(slotAddr string, dims []int, indices []ast.Expr) string {
	if len(indices) == 0 {
		// Rule 5: a bare pointer materializes the stored pointer value.
		return c.b.EmitValue(koopa.Load(slotAddr))
	}
	addr, consumedAll := c.pointerAddrChain(slotAddr, dims, indices)
	if !consumedAll && c.inParamPosition {
		return c.b.EmitValue(koopa.GetElemPtr(addr, "0"))
	}
	return c.b.EmitValue(koopa.Load(addr))
}

// arrayAddrChain chains getelemptr across indices applied to a true array,
// tracking the remaining-dims suffix at every step (spec.md's Supplemented
// Features, array-parameter decay bookkeeping generalized to plain arrays
// too) and reporting whether every declared dimension was consumed.
func (c *Context) arrayAddrChain(base string, dims []int, indices []ast.Expr) (addr string, consumedAll bool) {
	cur := base
	remaining := dims
	for _, idxExpr := range indices {
		idxRef := c.lowerExpr(idxExpr)
		cur = c.b.EmitValue(koopa.GetElemPtr(cur, idxRef))
		if len(remaining) > 0 {
			remaining = remaining[1:]
		}
	}
	return cur, len(remaining) == 0
}

// pointerAddrChain mirrors arrayAddrChain for a parameter array: the first
// supplied index steps through the pointer itself with getptr; any further
// indices chain getelemptr exactly as for a true array.
func (c *Context) pointerAddrChain(slotAddr string, dims []int, indices []ast.Expr) (addr string, consumedAll bool) {
	ptrVal := c.b.EmitValue(koopa.Load(slotAddr))
	idx0 := c.lowerExpr(indices[0])
	cur := c.b.EmitValue(koopa.GetPtr(ptrVal, idx0))
	remaining := dims
	for _, idxExpr := range indices[1:] {
		idxRef := c.lowerExpr(idxExpr)
		cur = c.b.EmitValue(koopa.GetElemPtr(cur, idxRef))
		if len(remaining) > 0 {
			remaining = remaining[1:]
		}
	}
	return cur, len(remaining) == 0
}

// foldConst evaluates e as a compile-time integer constant: array
// dimensions and const initializers must reduce this way. Logical `&&`/
// `||` use native short-circuit semantics here (spec.md §4.2.3's
// "compile-time constant-evaluation path"), unlike lowerShortCircuit's
// branch-based codegen for the runtime path.
func (c *Context) foldConst(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.IntLit:
		return n.Val
	case *ast.UnaryExpr:
		v := c.foldConst(n.X)
		switch n.Op {
		case ast.UnPlus:
			return v
		case ast.UnMinus:
			return -v
		case ast.UnNot:
			if v == 0 {
				return 1
			}
			return 0
		}
	case *ast.BinaryExpr:
		switch n.Op {
		case ast.OpLAnd:
			if c.foldConst(n.L) == 0 {
				return 0
			}
			if c.foldConst(n.R) != 0 {
				return 1
			}
			return 0
		case ast.OpLOr:
			if c.foldConst(n.L) != 0 {
				return 1
			}
			if c.foldConst(n.R) != 0 {
				return 1
			}
			return 0
		default:
			return foldBinOp(n.Op, c.foldConst(n.L), c.foldConst(n.R))
		}
	case *ast.LValExpr:
		if len(n.LVal.Indices) > 0 {
			c.fatal("%q cannot be indexed in a constant expression", n.LVal.Name)
		}
		sym, _, ok := c.syms.Lookup(n.LVal.Name)
		if !ok || sym.Tag != symtab.Const {
			c.fatal("%q is not a constant expression", n.LVal.Name)
		}
		return sym.Value
	case *ast.CallExpr:
		c.fatal("call to %q is not a constant expression", n.Name)
	}
	c.fatal("unhandled constant expression node %T", e)
	return 0
}

func foldBinOp(op ast.BinOp, l, r int) int {
	toBool := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case ast.OpEq:
		return toBool(l == r)
	case ast.OpNe:
		return toBool(l != r)
	case ast.OpLt:
		return toBool(l < r)
	case ast.OpGt:
		return toBool(l > r)
	case ast.OpLe:
		return toBool(l <= r)
	case ast.OpGe:
		return toBool(l >= r)
	case ast.OpAdd:
		return l + r
	case ast.OpSub:
		return l - r
	case ast.OpMul:
		return l * r
	case ast.OpDiv:
		return l / r
	case ast.OpMod:
		return l % r
	}
	panic("lower: unreachable constant binary operator")
}
