// Package codegen lowers the Python subset accepted by package parser to
// LLVM IR for 8-bit AVR boards.
//
// A CodeGen is one compilation unit. It owns the module, the global scope
// and the function table; nothing is shared between units, so independent
// units may be compiled on separate goroutines.
package codegen

import (
	"errors"
	"io"
	"log"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/rheehot/dsp/diagnostic"
	"github.com/rheehot/dsp/parser"
)

// initFuncName holds top-level statements; a user `setup` calls it first.
const initFuncName = "__dsp_init"

// CodeGen struct
type CodeGen struct {
	module      *ir.Module
	target      Target
	globals     *Scope
	functions   *FuncTable
	defs        map[*parser.FunctionStmt]*Signature
	ops         OperatorLowerer
	strictArity bool
	logger      *log.Logger
	diags       *diagnostic.Diagnostics

	init *ir.Func
	top  *Frame

	ifCounter     int
	whileCounter  int
	returnCounter int
	stringCounter int
}

// Frame is the lowering context of one function body. The top-level
// frame belongs to the init function and has no local scope.
type Frame struct {
	fn          *ir.Func
	sig         *Signature // nil outside a function body
	locals      *Scope
	globalNames map[string]bool
	entry       *ir.Block
	block       *ir.Block
}

func (f *Frame) inFunction() bool { return f.sig != nil }

// Locals returns the function-local scope, or nil at top level.
func (f *Frame) Locals() *Scope { return f.locals }

// Block returns the block instructions are currently appended to.
func (f *Frame) Block() *ir.Block { return f.block }

type Option func(*CodeGen)

func WithTarget(t Target) Option {
	return func(cg *CodeGen) { cg.target = t }
}

// WithStrictArity rejects calls whose argument count differs from the
// callee's parameter count instead of dropping the surplus.
func WithStrictArity() Option {
	return func(cg *CodeGen) { cg.strictArity = true }
}

func WithOperators(ops OperatorLowerer) Option {
	return func(cg *CodeGen) { cg.ops = ops }
}

func WithLogger(l *log.Logger) Option {
	return func(cg *CodeGen) { cg.logger = l }
}

// NewCodeGen creates a new CodeGen
func NewCodeGen(opts ...Option) *CodeGen {
	cg := &CodeGen{
		module:    ir.NewModule(),
		target:    DefaultTarget,
		globals:   NewScope(),
		functions: NewFuncTable(),
		defs:      make(map[*parser.FunctionStmt]*Signature),
		ops:       NumericOps{},
		logger:    log.New(io.Discard, "", 0),
		diags:     diagnostic.New(),
	}
	for _, opt := range opts {
		opt(cg)
	}
	cg.module.DataLayout = cg.target.DataLayout
	cg.module.TargetTriple = cg.target.Triple
	cg.declareBuiltins()

	cg.init = cg.module.NewFunc(initFuncName, types.Void)
	cg.init.Linkage = enum.LinkageInternal
	entry := cg.init.NewBlock("entry")
	cg.top = &Frame{fn: cg.init, entry: entry, block: entry}
	return cg
}

func (cg *CodeGen) Module() *ir.Module                   { return cg.module }
func (cg *CodeGen) Target() Target                       { return cg.target }
func (cg *CodeGen) Globals() *Scope                      { return cg.globals }
func (cg *CodeGen) Functions() *FuncTable                { return cg.functions }
func (cg *CodeGen) Diagnostics() *diagnostic.Diagnostics { return cg.diags }

// TopFrame is the frame top-level statements are lowered in.
func (cg *CodeGen) TopFrame() *Frame { return cg.top }

// NewFrame opens a function body for sig: an entry block and an empty
// local scope.
func (cg *CodeGen) NewFrame(sig *Signature) *Frame {
	entry := sig.Func.NewBlock("entry")
	return &Frame{
		fn:          sig.Func,
		sig:         sig,
		locals:      NewScope(),
		globalNames: make(map[string]bool),
		entry:       entry,
		block:       entry,
	}
}

// LowerExpr lowers expr in frame f.
func (cg *CodeGen) LowerExpr(f *Frame, expr parser.Expr) (Value, error) {
	return cg.genExpr(f, expr)
}

// Generate lowers a parsed module. Each failing statement is recorded in
// Diagnostics and lowering continues with the next one; if anything
// failed the module is not returned.
func (cg *CodeGen) Generate(stmts []parser.Stmt) (*ir.Module, error) {
	for _, stmt := range stmts {
		if s, ok := stmt.(*parser.FunctionStmt); ok {
			if err := cg.declareFunction(s); err != nil {
				cg.report(err)
			}
		}
	}

	for _, stmt := range stmts {
		if s, ok := stmt.(*parser.FunctionStmt); ok {
			cg.genFunction(s)
			continue
		}
		if err := cg.genStmt(cg.top, stmt); err != nil {
			cg.report(err)
		}
	}
	if cg.top.block.Term == nil {
		cg.top.block.NewRet(nil)
	}

	if cg.diags.HasErrors() {
		cg.logger.Printf("lowering failed with %d error(s)", cg.diags.ErrorCount())
		return nil, cg.diags.Err()
	}
	cg.logger.Printf("lowered %d function(s), %d global(s) for %s", len(cg.defs), cg.globals.Len(), cg.target.Board)
	return cg.module, nil
}

func (cg *CodeGen) report(err error) {
	var e *Error
	if errors.As(err, &e) {
		cg.diags.Add(e.Pos.Line, e.Pos.Col, err)
		return
	}
	cg.diags.Add(0, 0, err)
}
