package lower

import (
	"fmt"

	"sysyc/internal/ast"
	"sysyc/internal/koopa"
	"sysyc/internal/symtab"
)

// lowerBlockScoped pushes a fresh scope, lowers every item, and pops it —
// the symbol-table lifetime the spec ties one-to-one to block entry/exit
// (spec.md §3 Invariants).
func (c *Context) lowerBlockScoped(b *ast.Block) {
	c.syms.PushScope()
	c.lowerBlockItems(b.Items)
	c.syms.PopScope()
}

// lowerBlockItems lowers a sequence of block items in the current scope,
// eliding everything once a terminator has been emitted (spec.md §4.2.6).
func (c *Context) lowerBlockItems(items []ast.BlockItem) {
	for _, item := range items {
		if c.terminated {
			return
		}
		c.lowerBlockItem(item)
	}
}

func (c *Context) lowerBlockItem(item ast.BlockItem) {
	switch n := item.(type) {
	case *ast.ConstDecl:
		c.lowerLocalConstDecl(n)
	case *ast.VarDecl:
		c.lowerLocalVarDecl(n)
	case ast.Stmt:
		c.lowerStmt(n)
	default:
		c.fatal("unhandled block item %T", item)
	}
}

func (c *Context) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		c.lowerReturn(n)
	case *ast.AssignStmt:
		c.lowerAssign(n)
	case *ast.ExprStmt:
		if n.Expr != nil {
			c.lowerExpr(n.Expr)
		}
	case *ast.BlockStmt:
		c.lowerBlockScoped(n.Block)
	case *ast.IfStmt:
		c.lowerIf(n)
	case *ast.WhileStmt:
		c.lowerWhile(n)
	case *ast.BreakStmt:
		if c.inLoop() && !c.terminated {
			c.b.EmitStmt(koopa.Jump(fmt.Sprintf("while_end_%d", c.topLoop())))
			c.terminated = true
		}
	case *ast.ContinueStmt:
		if c.inLoop() && !c.terminated {
			c.b.EmitStmt(koopa.Jump(fmt.Sprintf("while_entry_%d", c.topLoop())))
			c.terminated = true
		}
	default:
		c.fatal("unhandled statement %T", s)
	}
}

func (c *Context) lowerReturn(n *ast.ReturnStmt) {
	if n.Expr == nil {
		c.b.EmitStmt(koopa.Ret(""))
	} else {
		ref := c.lowerExpr(n.Expr)
		c.b.EmitStmt(koopa.Ret(ref))
	}
	c.terminated = true
}

// lowerAssign implements spec.md §4.2.5.
func (c *Context) lowerAssign(n *ast.AssignStmt) {
	sym, scopeNum, ok := c.syms.Lookup(n.LVal.Name)
	if !ok {
		c.fatal("undefined identifier %q", n.LVal.Name)
	}
	ref := c.lowerExpr(n.Expr)
	addr := "@" + n.LVal.Name + symtab.ScopeSuffix(scopeNum)

	switch sym.Tag {
	case symtab.Const:
		c.fatal("cannot assign to const %q", n.LVal.Name)
	case symtab.Var:
		c.b.EmitStmt(koopa.Store(ref, addr))
	case symtab.Array:
		target, _ := c.arrayAddrChain(addr, sym.Dims, n.LVal.Indices)
		c.b.EmitStmt(koopa.Store(ref, target))
	case symtab.Pointer:
		target, _ := c.pointerAddrChain(addr, sym.Dims, n.LVal.Indices)
		c.b.EmitStmt(koopa.Store(ref, target))
	default:
		c.fatal("unhandled symbol tag %v", sym.Tag)
	}
}

// lowerIf implements spec.md §4.2.6, including the Design Notes'
// resolution of the dead-code/no-`end`-label open question: the `end`
// label is only emitted when at least one arm falls through.
func (c *Context) lowerIf(n *ast.IfStmt) {
	condRef := c.lowerExpr(n.Cond)
	i := c.freshBlock()
	thenLabel := fmt.Sprintf("then_%d", i)
	endLabel := fmt.Sprintf("end_%d", i)

	if n.Else == nil {
		c.b.EmitStmt(koopa.Branch(condRef, thenLabel, endLabel))
		c.terminated = true

		c.emitLabel(thenLabel)
		c.lowerStmt(n.Then)
		if !c.terminated {
			c.b.EmitStmt(koopa.Jump(endLabel))
		}
		c.emitLabel(endLabel)
		return
	}

	elseLabel := fmt.Sprintf("else_%d", i)
	c.b.EmitStmt(koopa.Branch(condRef, thenLabel, elseLabel))
	c.terminated = true

	c.emitLabel(thenLabel)
	c.lowerStmt(n.Then)
	thenFellThrough := !c.terminated
	if thenFellThrough {
		c.b.EmitStmt(koopa.Jump(endLabel))
	}

	c.emitLabel(elseLabel)
	c.lowerStmt(n.Else)
	elseFellThrough := !c.terminated
	if elseFellThrough {
		c.b.EmitStmt(koopa.Jump(endLabel))
	}

	if !thenFellThrough && !elseFellThrough {
		// Every path through this if/else already terminates: no block
		// ever jumps to `end`, so it is never emitted (spec.md §9's
		// "termination analysis" open question, resolved explicitly
		// instead of via a pair of then_ret/else_ret flags).
		return
	}
	c.emitLabel(endLabel)
}

// lowerWhile implements spec.md §4.2.6.
func (c *Context) lowerWhile(n *ast.WhileStmt) {
	id := c.freshLoop()
	entryLabel := fmt.Sprintf("while_entry_%d", id)
	bodyLabel := fmt.Sprintf("while_body_%d", id)
	endLabel := fmt.Sprintf("while_end_%d", id)

	c.b.EmitStmt(koopa.Jump(entryLabel))
	c.terminated = true

	c.emitLabel(entryLabel)
	condRef := c.lowerExpr(n.Cond)
	c.b.EmitStmt(koopa.Branch(condRef, bodyLabel, endLabel))
	c.terminated = true

	c.emitLabel(bodyLabel)
	c.pushLoop(id)
	c.lowerStmt(n.Body)
	c.popLoop()
	if !c.terminated {
		c.b.EmitStmt(koopa.Jump(entryLabel))
	}

	c.emitLabel(endLabel)
}
