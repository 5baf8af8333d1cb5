// The compiler package contains the driver that ties the scanner,
// symbol tables, parser, and code emitter into a single compilation:
//
//  1. Open the assembler output file derived from the source path.
//  2. Run the parser over the whole source, which drives the scanner
//     and emitter directly; there is no intermediate form.
//  3. Close the output file and report whatever diagnostics were
//     accumulated along the way.
//
// Grounded on a New/SetDebug/Compile driver shape, retargeted from a
// three-step tokenize/translate/output pipeline to a single parsing
// pass that emits as it goes.
package compiler

import (
	"os"

	"github.com/pkg/errors"

	"github.com/go6809/cc6809/config"
	"github.com/go6809/cc6809/symtab"
)

// Compiler holds the state of one source-file compilation.
type Compiler struct {
	cfg *config.Config

	sourcePath string

	traceTokens bool
	traceSyntax bool
}

// New creates a compiler for the given source path, using cfg for the
// emitter's addressing and mangling conventions.
func New(sourcePath string, cfg *config.Config) *Compiler {
	return &Compiler{sourcePath: sourcePath, cfg: cfg}
}

// SetTokenTrace enables dumping every token as it is scanned.
func (c *Compiler) SetTokenTrace(on bool) { c.traceTokens = on }

// SetSyntaxTrace enables dumping a line for every parse event.
func (c *Compiler) SetSyntaxTrace(on bool) { c.traceSyntax = on }

// Compile reads the source file, compiles it to the derived ".asm"
// path, and returns every diagnostic reported along the way. A non-nil
// error means the source or output file could not be opened, or the
// output file could not be flushed and closed; a
// non-empty Diagnostics means syntactic or semantic problems were
// reported but compilation ran to completion regardless.
func (c *Compiler) Compile() (*Diagnostics, error) {
	source, err := os.ReadFile(c.sourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open source file %q", c.sourcePath)
	}

	diags := &Diagnostics{}

	syms := symtab.NewSymbolTable(c.cfg.SymbolTable.ExternCapacity, c.cfg.SymbolTable.LocalCapacity)
	emit := NewEmitter(c.cfg)
	if err := emit.OpenOutput(c.sourcePath); err != nil {
		return nil, errors.Wrapf(err, "cannot open output file for %q", c.sourcePath)
	}

	parser := NewParser(string(source), syms, emit, diags)
	parser.SetTokenTrace(c.traceTokens)
	parser.SetSyntaxTrace(c.traceSyntax)
	parser.Parse()

	if err := emit.CloseOutput(); err != nil {
		return diags, errors.Wrapf(err, "cannot close output file for %q", c.sourcePath)
	}

	return diags, nil
}
