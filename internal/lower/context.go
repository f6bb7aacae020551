// Package lower is Phase A: the AST Lowerer (spec.md §4.2), the core of the
// repository. It walks an *ast.CompUnit and produces the complete Koopa IR
// text consumed by internal/koopair.
//
// The teacher threads its backend's fresh-label state through package-level
// counters (util/label.go's ListenLabel/NewLabel pair, each label type its
// own indexed slot) because its workers run concurrently and need a single
// shared label source behind a channel. This spec's Design Notes call that
// exact shape out ("global mutable counters... a faithful reimplementation
// should encapsulate these in an explicit LoweringContext") and the pipeline
// here is single-threaded anyway (spec.md §5), so Context below keeps the
// teacher's per-label-kind counter idea but owns the counters as plain
// fields instead of a shared listener goroutine.
package lower

import (
	"fmt"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/koopa"
	"sysyc/internal/symtab"
)

// loopFrame is one entry of the loop_stack (spec.md §4.2, break/continue
// targeting).
type loopFrame struct {
	id int
}

// Context is the explicit lowering state the spec's Design Notes ask for in
// place of global mutable counters: fresh-name supplies, the short-circuit
// and termination flags, and the symbol table stack, all owned by one
// value threaded through the walk.
type Context struct {
	syms *symtab.Stack
	b    *koopa.Builder

	nextBlock int
	nextLogic int
	nextLoop  int
	nextEntry int

	terminated      bool
	inParamPosition bool
	loopStack       []loopFrame

	curFuncRetVoid bool
	curFuncName    string
}

// runtimeLibrary is the fixed set of forward declarations prepended to
// every compilation (spec.md §4.5), also installed into the global symbol
// table so that calls to them resolve like any user function.
var runtimeLibrary = []struct {
	name    string
	params  string
	retType string
	retVoid bool
}{
	{"getint", "", "i32", false},
	{"getch", "", "i32", false},
	{"getarray", "*i32", "i32", false},
	{"putint", "i32", "", true},
	{"putch", "i32", "", true},
	{"putarray", "i32, *i32", "", true},
	{"starttime", "", "", true},
	{"stoptime", "", "", true},
}

// New returns a Context with the runtime library already installed in the
// global scope.
func New() *Context {
	c := &Context{syms: symtab.New(), b: koopa.NewBuilder()}
	for _, f := range runtimeLibrary {
		tag := 0
		if f.retVoid {
			tag = 1
		}
		c.syms.InsertGlobal(f.name, symtab.Symbol{Tag: symtab.Func, Value: tag, IsGlobal: true})
	}
	return c
}

// Lower runs Phase A over the full translation unit and returns the
// emitted Koopa IR text.
func Lower(cu *ast.CompUnit) string {
	c := New()
	c.emitRuntimeDecls()

	// Two passes: register every function's signature before lowering any
	// body, so mutually-recursive calls resolve regardless of source order
	// (spec.md §4.2.8 only constrains how a call and its callee's record
	// relate, not declaration order between functions).
	for _, f := range cu.Funcs {
		tag := 0
		if f.RetVoid {
			tag = 1
		}
		c.syms.InsertGlobal(f.Name, symtab.Symbol{Tag: symtab.Func, Value: tag, IsGlobal: true})
	}

	for _, d := range cu.Decls {
		c.lowerGlobalDecl(d)
	}
	for _, f := range cu.Funcs {
		c.lowerFuncDef(f)
	}
	return c.b.String()
}

func (c *Context) emitRuntimeDecls() {
	for _, f := range runtimeLibrary {
		ret := f.retType
		if ret == "" {
			c.b.Decl(fmt.Sprintf("@%s(%s)", f.name, f.params))
		} else {
			c.b.Decl(fmt.Sprintf("@%s(%s): %s", f.name, f.params, ret))
		}
	}
}

// freshBlock, freshLogic, freshLoop, freshEntry hand out the independent
// label-kind counters the spec's §4.2 state list calls next_block,
// next_logic, next_loop and next_entry.
func (c *Context) freshBlock() int { n := c.nextBlock; c.nextBlock++; return n }
func (c *Context) freshLogic() int { n := c.nextLogic; c.nextLogic++; return n }
func (c *Context) freshLoop() int  { n := c.nextLoop; c.nextLoop++; return n }
func (c *Context) freshEntry() int { n := c.nextEntry; c.nextEntry++; return n }

// inLoop reports whether break/continue currently have a target.
func (c *Context) inLoop() bool { return len(c.loopStack) > 0 }

func (c *Context) pushLoop(id int) { c.loopStack = append(c.loopStack, loopFrame{id: id}) }
func (c *Context) popLoop()        { c.loopStack = c.loopStack[:len(c.loopStack)-1] }
func (c *Context) topLoop() int    { return c.loopStack[len(c.loopStack)-1].id }

// emitLabel starts a new basic block and clears the terminated flag: a
// fresh label always begins un-terminated.
func (c *Context) emitLabel(name string) {
	c.b.Label(name)
	c.terminated = false
}

func (c *Context) fatal(format string, args ...interface{}) {
	diag.Fatal("lower: "+format, args...)
}
