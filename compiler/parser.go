// parser.go is the recursive-descent parser. It holds one token of
// lookahead and drives the symbol table and code emitter directly from
// each reduction — there is no intermediate tree.
//
// Grounded on a one-token-lookahead compiler.go (New/SetDebug/Compile
// shape) and gmofishsauce-y4/asm's declaration-driven parsing; the
// grammar and code shapes themselves come from the language being
// compiled, not from either example.
package compiler

import (
	"fmt"

	"github.com/go6809/cc6809/casetable"
	"github.com/go6809/cc6809/lexer"
	"github.com/go6809/cc6809/loopstack"
	"github.com/go6809/cc6809/symtab"
	"github.com/go6809/cc6809/token"
)

// Parser walks a source file exactly once, emitting assembly as it
// goes. Two symbol tables, the code emitter, and the label counter
// together form the compilation context threaded through every parse
// function, rather than being kept as package-level globals.
type Parser struct {
	lex *lexer.Lexer

	syms  *symtab.SymbolTable
	emit  *Emitter
	diags *Diagnostics

	cur  token.Token
	peek token.Token

	traceTokens bool
	traceSyntax bool

	loops    *loopstack.Stack[loopstack.LoopContext]
	switches []*casetable.Table

	inFunction      bool
	funcName        string
	funcIsVoid      bool
	funcReturnLabel int
	funcHasRegister bool
	nextParamOffset int
	nextAutoOffset  int
}

// NewParser returns a parser ready to consume source, emitting through
// emit and recording declarations in syms. Diagnostics are appended to
// diags rather than returned, matching the report-and-continue model.
func NewParser(source string, syms *symtab.SymbolTable, emit *Emitter, diags *Diagnostics) *Parser {
	p := &Parser{
		lex:   lexer.New(source),
		syms:  syms,
		emit:  emit,
		diags: diags,
		loops: loopstack.New[loopstack.LoopContext](),
	}
	p.advance()
	p.advance()
	return p
}

// SetTokenTrace enables printing every token as it is consumed.
func (p *Parser) SetTokenTrace(on bool) { p.traceTokens = on }

// SetSyntaxTrace enables printing a line for every parse event.
func (p *Parser) SetSyntaxTrace(on bool) { p.traceSyntax = on }

func (p *Parser) trace(format string, args ...any) {
	if p.traceSyntax {
		fmt.Printf("parse: "+format+"\n", args...)
	}
}

// advance pulls the next token from the scanner into peek, shifting the
// old peek into cur.
func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
	if p.traceTokens {
		fmt.Printf("token: %s %q\n", p.peek.Type, p.peek.Lexeme)
	}
}

// expect reports a syntax error and leaves the lookahead untouched if
// cur is not ty; otherwise it advances past it and returns true.
func (p *Parser) expect(ty token.Type, context string) bool {
	if p.cur.Type != ty {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected %q %s, found %q", ty, context, p.cur.Lexeme)
		return false
	}
	p.advance()
	return true
}

// Parse consumes the entire source, compiling one top-level declaration
// at a time until end-of-input.
func (p *Parser) Parse() {
	for p.cur.Type != token.EOF {
		p.parseDeclaration()
	}
}

// baseType maps a type keyword to its symtab.Type. ok is false if cur is
// not a recognised type keyword.
func (p *Parser) baseType() (symtab.Type, bool) {
	switch p.cur.Type {
	case token.SIGNED, token.UNSIGNED, token.SHORT, token.LONG, token.VOLATILE:
		// Modifiers: consumed, then the base type underneath is read
		// the same way and combined with them (signed and volatile
		// leave it unchanged).
		unsigned := p.cur.Type == token.UNSIGNED
		long := p.cur.Type == token.LONG
		short := p.cur.Type == token.SHORT
		p.advance()
		base, ok := p.baseType()
		if !ok {
			return symtab.Int, false
		}
		switch {
		case short && base == symtab.UInt, unsigned && base == symtab.Short:
			return symtab.UShort, true
		case short:
			return symtab.Short, true
		case long && base == symtab.UInt, unsigned && base == symtab.Long:
			return symtab.ULong, true
		case long:
			return symtab.Long, true
		case unsigned && base == symtab.Char:
			return symtab.UChar, true
		case unsigned:
			return symtab.UInt, true
		}
		return base, true
	case token.CHARKW:
		return symtab.Char, true
	case token.INTKW:
		return symtab.Int, true
	case token.FLOATKW:
		return symtab.Float, true
	case token.DOUBLE:
		return symtab.Double, true
	case token.VOID:
		return symtab.Void, true
	}
	return symtab.Int, false
}

// parsePointerLevel consumes zero or more '*' and returns the count.
func (p *Parser) parsePointerLevel() int {
	level := 0
	for p.cur.Type == token.STAR {
		level++
		p.advance()
	}
	return level
}

// sizeForFrame returns the frame-slot size in bytes for a symbol of the
// given type/pointer-level, rounding byte-sized scalars up to 2 for
// alignment the way non-byte locals already are.
func sizeForFrame(ty symtab.Type, pLevel int) int {
	if pLevel > 0 {
		return 2
	}
	switch ty {
	case symtab.Char, symtab.UChar:
		return 2
	case symtab.Double:
		return 8
	case symtab.Long, symtab.ULong, symtab.Float:
		return 4
	default:
		return 2
	}
}

// parseDeclaration parses one top-level declaration: a bare ';', or a
// type followed by a declarator and its tail (scalar, array, or
// function).
func (p *Parser) parseDeclaration() {
	if p.cur.Type == token.SEMI {
		p.advance()
		return
	}

	ty, ok := p.baseType()
	if !ok {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a type keyword at file scope, found %q", p.cur.Lexeme)
		p.advance()
		return
	}
	p.advance()

	pLevel := p.parsePointerLevel()

	if p.cur.Type != token.IDENT {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected an identifier in declaration")
		return
	}
	name := p.cur.Lexeme
	p.advance()

	switch p.cur.Type {
	case token.LPAREN:
		p.parseFunction(name, ty, pLevel)
	case token.LBRACKET:
		p.parseFileArray(name, ty, pLevel)
	case token.ASSIGN:
		p.advance()
		value, fvalue := p.parseConstInitializer()
		p.expect(token.SEMI, "after declaration")
		p.declareExternScalar(name, ty, pLevel, value, fvalue)
	case token.SEMI:
		p.advance()
		p.declareExternScalar(name, ty, pLevel, 0, 0)
	default:
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected '(', '[', '=' or ';' in declaration")
	}
}

// parseConstInitializer parses a const_expr used as a scalar
// initialiser: either a constant integer expression or a plain
// floating-point literal.
func (p *Parser) parseConstInitializer() (int64, float64) {
	if p.cur.Type == token.FLOAT {
		v := p.cur.FloatValue
		p.advance()
		return 0, v
	}
	return p.parseConstIntExpr(), 0
}

func (p *Parser) declareExternScalar(name string, ty symtab.Type, pLevel int, value int64, fvalue float64) {
	sym := symtab.Symbol{Name: name, StorageClass: symtab.Extern, Type: ty, PLevel: pLevel, Label: symtab.NoLabel}
	stored, added := p.syms.AddExtern(sym)
	if !added {
		p.diags.Report(KindRedeclaration, name, "%q already declared at file scope", name)
		return
	}
	p.emit.EmitExternScalar(stored, value, fvalue, declComment(stored, value, fvalue))
}

func declComment(sym *symtab.Symbol, value int64, fvalue float64) string {
	kind := sym.Type.String()
	if sym.IsPointer() {
		kind += " *"
	}
	if sym.Type == symtab.Float || sym.Type == symtab.Double {
		return fmt.Sprintf("%s %s = %v", kind, sym.Name, fvalue)
	}
	return fmt.Sprintf("%s %s = %d", kind, sym.Name, value)
}

// parseFileArray parses the array form of decl_tail: '[' const_int_expr
// ']' ';'. Arrays have no initialiser syntax, so storage is always
// reserved uninitialised.
func (p *Parser) parseFileArray(name string, ty symtab.Type, pLevel int) {
	p.advance() // '['
	count := p.parseConstIntExpr()
	p.expect(token.RBRACKET, "closing an array declarator")
	p.expect(token.SEMI, "after an array declaration")

	sym := symtab.Symbol{Name: name, StorageClass: symtab.Extern, Type: ty, PLevel: pLevel, Label: symtab.NoLabel}
	stored, added := p.syms.AddExtern(sym)
	if !added {
		p.diags.Report(KindRedeclaration, name, "%q already declared at file scope", name)
		return
	}

	elemSize := ty.Size()
	if pLevel > 0 {
		elemSize = 2
	}
	p.emit.EmitReserveBytes(p.emit.cfg.Emitter.NamePrefix+name, elemSize*int(count), fmt.Sprintf("%s %s[%d]", ty, name, count))
}

// parseParamList parses '(' param_list ')', installing each parameter
// into the local table at a positive frame offset and advancing
// p.nextParamOffset past each one.
func (p *Parser) parseParamList() {
	p.expect(token.LPAREN, "opening a parameter list")

	if p.cur.Type == token.VOID && p.peek.Type == token.RPAREN {
		p.advance()
		p.advance()
		return
	}

	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
		readOnly := false
		if p.cur.Type == token.CONST {
			readOnly = true
			p.advance()
		}
		ty, ok := p.baseType()
		if !ok {
			p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a parameter type")
			p.advance()
			continue
		}
		p.advance()
		pLevel := p.parsePointerLevel()

		if p.cur.Type != token.IDENT {
			p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a parameter name")
			return
		}
		name := p.cur.Lexeme
		p.advance()

		size := sizeForFrame(ty, pLevel)
		sym := symtab.Symbol{
			Name: name, StorageClass: symtab.Auto, Type: ty, PLevel: pLevel,
			Label: symtab.NoLabel, FPOffset: p.nextParamOffset, ReadOnly: readOnly,
		}
		p.nextParamOffset += size
		if _, added := p.syms.AddLocal(sym); !added {
			p.diags.Report(KindRedeclaration, name, "parameter %q already declared", name)
		}

		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.RPAREN, "closing a parameter list")
}

// parseFunction parses the proto-or-def tail of a function declarator:
// '(' param_list ')' ( ';' | block ).
func (p *Parser) parseFunction(name string, ty symtab.Type, pLevel int) {
	sym := symtab.Symbol{Name: name, StorageClass: symtab.Extern, Type: ty, PLevel: pLevel, Label: symtab.NoLabel, ReadOnly: true}
	p.syms.AddExtern(sym) // a repeated prototype/definition pair is not a redeclaration error

	p.syms.ForgetLocals()
	p.nextParamOffset = 2 // return address occupies the first two bytes above the frame pointer
	p.nextAutoOffset = 0
	p.funcHasRegister = false

	p.parseParamList()

	if p.cur.Type == token.SEMI {
		p.advance() // prototype only; nothing to emit
		return
	}

	if p.cur.Type != token.LBRACE {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected ';' or a function body")
		return
	}

	p.inFunction = true
	p.funcName = name
	p.funcIsVoid = ty == symtab.Void && pLevel == 0
	p.funcReturnLabel = p.emit.AllocateLabel("return")

	p.parseFunctionBody()

	p.emit.EmitFunctionExit(p.funcReturnLabel, p.funcHasRegister)
	p.emit.FlushStringConstants()
	p.syms.ForgetLocals()
	p.inFunction = false
}

// parseFunctionBody parses '{' { local_decl } { statement } '}',
// emitting the function entry only once every auto's frame slot has
// been sized by walking the local declarations first — matching a
// single pass by reserving frame space lazily: locals are declared
// before any statement, so by the time the first statement is emitted
// the total auto size is already known.
func (p *Parser) parseFunctionBody() {
	p.expect(token.LBRACE, "opening a function body")

	for p.isLocalDeclStart() {
		p.parseLocalDecl()
	}

	p.emit.EmitFunctionEntry(p.funcName, -p.nextAutoOffset, p.funcHasRegister)

	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		p.parseStatement()
	}
	p.expect(token.RBRACE, "closing a function body")
}

// isLocalDeclStart reports whether the current token can start a
// local_decl: an optional storage class or const, then a type keyword.
func (p *Parser) isLocalDeclStart() bool {
	switch p.cur.Type {
	case token.STATIC, token.AUTO, token.REGISTER, token.CONST:
		return true
	case token.CHARKW, token.INTKW, token.FLOATKW, token.DOUBLE, token.VOID,
		token.SIGNED, token.UNSIGNED, token.SHORT, token.LONG, token.VOLATILE:
		return true
	}
	return false
}

// parseLocalDecl parses local_decl := [storage_class | 'const'] type
// {'*'} identifier ';'.
func (p *Parser) parseLocalDecl() {
	storageClass := symtab.Auto
	readOnly := false

	switch p.cur.Type {
	case token.STATIC:
		storageClass = symtab.Static
		p.advance()
	case token.AUTO:
		p.advance()
	case token.REGISTER:
		storageClass = symtab.Register
		p.advance()
	case token.CONST:
		readOnly = true
		p.advance()
	}

	ty, ok := p.baseType()
	if !ok {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a type in local declaration")
		p.advance()
		return
	}
	p.advance()
	pLevel := p.parsePointerLevel()

	if storageClass == symtab.Register {
		allowed := pLevel == 0 && (ty == symtab.Char || ty == symtab.Int)
		if p.funcHasRegister || !allowed {
			storageClass = symtab.Auto
		} else {
			p.funcHasRegister = true
		}
	}

	if p.cur.Type != token.IDENT {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected an identifier in local declaration")
		return
	}
	name := p.cur.Lexeme
	p.advance()
	p.expect(token.SEMI, "after a local declaration")

	sym := symtab.Symbol{Name: name, StorageClass: storageClass, Type: ty, PLevel: pLevel, Label: symtab.NoLabel, ReadOnly: readOnly}

	switch storageClass {
	case symtab.Static:
		sym.Label = p.emit.AllocateLabel("static-local")
		stored, added := p.syms.AddLocal(sym)
		if !added {
			p.diags.Report(KindRedeclaration, name, "%q already declared in this scope", name)
			return
		}
		p.emit.EmitStaticScalar(stored, 0, 0, declComment(stored, 0, 0))
	case symtab.Register:
		if _, added := p.syms.AddLocal(sym); !added {
			p.diags.Report(KindRedeclaration, name, "%q already declared in this scope", name)
		}
	default:
		size := sizeForFrame(ty, pLevel)
		p.nextAutoOffset += size
		sym.FPOffset = -p.nextAutoOffset
		if _, added := p.syms.AddLocal(sym); !added {
			p.diags.Report(KindRedeclaration, name, "%q already declared in this scope", name)
		}
	}
}

// parseStatement parses one statement production and emits its code.
func (p *Parser) parseStatement() {
	switch p.cur.Type {
	case token.RETURN:
		p.parseReturn()
	case token.IF:
		p.parseIf()
	case token.WHILE:
		p.parseWhile()
	case token.DO:
		p.parseDoWhile()
	case token.FOR:
		p.parseFor()
	case token.SWITCH:
		p.parseSwitch()
	case token.BREAK:
		p.parseBreak()
	case token.CONTINUE:
		p.parseContinue()
	case token.GOTO:
		p.parseGoto()
	case token.LBRACE:
		p.parseCompound()
	default:
		p.parseExpressionStatement()
	}
}

func (p *Parser) parseCompound() {
	p.advance() // '{'
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		p.parseStatement()
	}
	p.expect(token.RBRACE, "closing a compound statement")
}

func (p *Parser) parseReturn() {
	p.advance() // 'return'
	p.trace("return")

	hasExpr := p.cur.Type != token.SEMI
	if hasExpr {
		p.parseExpression()
	}

	switch {
	case hasExpr && p.funcIsVoid:
		p.diags.Report(KindSemantic, p.funcName, "return with a value in a void function")
	case !hasExpr && !p.funcIsVoid:
		p.diags.Report(KindSemantic, p.funcName, "return without a value in a non-void function")
	}

	p.expect(token.SEMI, "after a return statement")
	p.emit.EmitJump(p.funcReturnLabel)
}

func (p *Parser) parseIf() {
	p.advance() // 'if'
	p.expect(token.LPAREN, "after 'if'")
	p.parseExpression()
	p.expect(token.RPAREN, "closing the 'if' condition")

	elseLabel := p.emit.AllocateLabel("else")
	p.emit.EmitCompareIntConstant(0)
	p.emit.EmitBranchIfEqual(elseLabel)

	p.parseStatement()

	if p.cur.Type == token.ELSE {
		endifLabel := p.emit.AllocateLabel("endif")
		p.emit.EmitJump(endifLabel)
		p.emit.EmitLabel(elseLabel)

		p.advance() // 'else'
		p.parseStatement()

		p.emit.EmitLabel(endifLabel)
		return
	}

	p.emit.EmitLabel(elseLabel)
}

func (p *Parser) parseWhile() {
	p.advance() // 'while'
	continueLabel := p.emit.AllocateLabel("continue")
	bottomLabel := p.emit.AllocateLabel("bottom")

	p.emit.EmitLabel(continueLabel)
	p.expect(token.LPAREN, "after 'while'")
	p.parseExpression()
	p.expect(token.RPAREN, "closing the 'while' condition")
	p.emit.EmitCompareIntConstant(0)
	p.emit.EmitBranchIfEqual(bottomLabel)

	p.loops.Push(loopstack.LoopContext{BreakLabel: bottomLabel, ContinueLabel: continueLabel, HasContinue: true})
	p.parseStatement()
	p.loops.Pop()

	p.emit.EmitJump(continueLabel)
	p.emit.EmitLabel(bottomLabel)
}

func (p *Parser) parseDoWhile() {
	p.advance() // 'do'
	topLabel := p.emit.AllocateLabel("top")
	continueLabel := p.emit.AllocateLabel("continue")
	bottomLabel := p.emit.AllocateLabel("bottom")

	p.emit.EmitLabel(topLabel)

	p.loops.Push(loopstack.LoopContext{BreakLabel: bottomLabel, ContinueLabel: continueLabel, HasContinue: true})
	p.parseStatement()
	p.loops.Pop()

	p.expect(token.WHILE, "after a 'do' body")
	p.emit.EmitLabel(continueLabel)
	p.expect(token.LPAREN, "after 'while'")
	p.parseExpression()
	p.expect(token.RPAREN, "closing the 'do/while' condition")
	p.expect(token.SEMI, "after a 'do/while' statement")

	p.emit.EmitCompareIntConstant(0)
	p.emit.EmitBranchNotEqual(topLabel)
	p.emit.EmitLabel(bottomLabel)
}

func (p *Parser) parseFor() {
	p.advance() // 'for'
	p.expect(token.LPAREN, "after 'for'")

	testLabel := p.emit.AllocateLabel("test")
	bottomLabel := p.emit.AllocateLabel("bottom")
	stmtLabel := p.emit.AllocateLabel("statement")
	continueLabel := p.emit.AllocateLabel("continue")

	if p.cur.Type != token.SEMI {
		p.parseExpression()
	}
	p.expect(token.SEMI, "after the 'for' initialiser")

	p.emit.EmitLabel(testLabel)
	if p.cur.Type != token.SEMI {
		p.parseExpression()
	}
	p.expect(token.SEMI, "after the 'for' condition")
	p.emit.EmitCompareIntConstant(0)
	p.emit.EmitBranchIfEqual(bottomLabel)
	p.emit.EmitJump(stmtLabel)

	p.emit.EmitLabel(continueLabel)
	if p.cur.Type != token.RPAREN {
		p.parseExpression()
	}
	p.expect(token.RPAREN, "closing the 'for' header")
	p.emit.EmitJump(testLabel)

	p.emit.EmitLabel(stmtLabel)
	p.loops.Push(loopstack.LoopContext{BreakLabel: bottomLabel, ContinueLabel: continueLabel, HasContinue: true})
	p.parseStatement()
	p.loops.Pop()

	p.emit.EmitJump(continueLabel)
	p.emit.EmitLabel(bottomLabel)
}

func (p *Parser) parseSwitch() {
	p.advance() // 'switch'
	p.expect(token.LPAREN, "after 'switch'")
	p.parseExpression()
	p.expect(token.RPAREN, "closing the 'switch' expression")

	tableLabel := p.emit.AllocateLabel("jump-table")
	bottomLabel := p.emit.AllocateLabel("bottom")

	p.emit.EmitJump(tableLabel)

	cases := casetable.New()
	p.switches = append(p.switches, cases)

	continueLabel := 0
	hasContinue := false
	if ctx, ok := p.loops.Top(); ok {
		continueLabel, hasContinue = ctx.ContinueLabel, ctx.HasContinue
	}
	p.loops.Push(loopstack.LoopContext{BreakLabel: bottomLabel, ContinueLabel: continueLabel, HasContinue: hasContinue})

	p.expect(token.LBRACE, "opening a 'switch' body")
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		p.parseSwitchItem(cases)
	}
	p.expect(token.RBRACE, "closing a 'switch' body")

	p.loops.Pop()
	p.switches = p.switches[:len(p.switches)-1]

	p.emit.EmitJump(bottomLabel)
	p.emit.EmitLabel(tableLabel)

	for _, c := range cases.Cases() {
		p.emit.EmitCompareIntConstant(c.Value)
		p.emit.EmitBranchIfEqual(c.Label)
	}
	if def, ok := cases.Default(); ok {
		p.emit.EmitJump(def.Label)
	}

	p.emit.EmitLabel(bottomLabel)
}

// parseSwitchItem parses one labeled_item: a 'case' or 'default' label,
// or an ordinary statement belonging to the most recently seen label.
func (p *Parser) parseSwitchItem(cases *casetable.Table) {
	switch p.cur.Type {
	case token.CASE:
		p.advance()
		value := p.parseConstIntExpr()
		p.expect(token.COLON, "after a 'case' label")
		label := p.emit.AllocateLabel("case")
		cases.AddCase(value, label)
		p.emit.EmitLabel(label)
	case token.DEFAULT:
		p.advance()
		p.expect(token.COLON, "after 'default'")
		label := p.emit.AllocateLabel("default")
		if _, ok := cases.AddDefault(label); !ok {
			p.diags.Report(KindSemantic, "default", "multiple 'default' labels in one switch")
			return
		}
		p.emit.EmitLabel(label)
	default:
		p.parseStatement()
	}
}

func (p *Parser) parseBreak() {
	p.advance()
	p.expect(token.SEMI, "after 'break'")

	ctx, ok := p.loops.Top()
	if !ok {
		p.diags.Report(KindSemantic, "break", "'break' outside any loop or switch")
		return
	}
	p.emit.EmitJump(ctx.BreakLabel)
}

func (p *Parser) parseContinue() {
	p.advance()
	p.expect(token.SEMI, "after 'continue'")

	ctx, ok := p.loops.Top()
	if !ok || !ctx.HasContinue {
		p.diags.Report(KindSemantic, "continue", "'continue' outside any loop")
		return
	}
	p.emit.EmitJump(ctx.ContinueLabel)
}

// parseGoto parses 'goto' identifier ';' but emits no target code; the
// identifier is consumed and otherwise ignored.
func (p *Parser) parseGoto() {
	p.advance() // 'goto'
	if p.cur.Type != token.IDENT {
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a label name after 'goto'")
		return
	}
	target := p.cur.Lexeme
	p.advance()
	p.expect(token.SEMI, "after 'goto'")
	p.diags.Report(KindIncomplete, target, "'goto %s' parsed but no target code is emitted", target)
}

func (p *Parser) parseExpressionStatement() {
	p.parseExpression()
	p.expect(token.SEMI, "after an expression statement")
}

// parseExpression parses one of the statement-level expression forms
// and leaves its value in the primary accumulator.
func (p *Parser) parseExpression() {
	switch p.cur.Type {
	case token.LPAREN:
		p.advance()
		p.parseExpression()
		p.expect(token.RPAREN, "closing a parenthesised expression")
	case token.INT:
		p.emit.EmitLoadImmediate(p.cur.IntValue)
		p.advance()
	case token.STRING:
		sc := p.emit.NewStringConstant(p.cur.Lexeme, p.cur.Bytes)
		p.emit.EmitLoadLabelAddress(sc.Label)
		p.advance()
	case token.IDENT:
		p.parseIdentifierExpression()
	default:
		p.diags.Report(KindSyntax, p.cur.Lexeme, "expected an expression, found %q", p.cur.Lexeme)
		p.advance()
	}
}

// parseIdentifierExpression parses the four identifier-led forms: load,
// inc/dec, assignment, and call.
func (p *Parser) parseIdentifierExpression() {
	name := p.cur.Lexeme
	p.advance()

	sym := p.syms.Lookup(name)
	if sym == nil && p.cur.Type != token.LPAREN {
		p.diags.Report(KindUndeclared, name, "%q used but never declared", name)
	}

	switch p.cur.Type {
	case token.INC, token.DEC:
		amount := 1
		if p.cur.Type == token.DEC {
			amount = -1
		}
		p.advance()
		if sym == nil {
			return
		}
		if sym.ReadOnly {
			p.diags.Report(KindSemantic, name, "increment/decrement of read-only symbol %q", name)
			return
		}
		p.emit.LoadScalar(sym)
		if sym.Size() == 1 && amount != 1 && amount != -1 {
			p.diags.Report(KindIncomplete, name, "increment/decrement of a byte by more than one")
			return
		}
		p.emit.EmitIncScalar(sym, amount)
	case token.ASSIGN:
		p.advance()
		p.parseExpression()
		if sym == nil {
			return
		}
		if sym.ReadOnly {
			p.diags.Report(KindSemantic, name, "assignment to read-only symbol %q", name)
			return
		}
		p.emit.StoreScalar(sym)
	case token.LPAREN:
		p.parseCallArguments(name)
	default:
		if sym != nil {
			p.emit.LoadScalar(sym)
		}
	}
}

// parseCallArguments parses '(' [expression {',' expression}] ')',
// pushing each argument's value before the call and cleaning up the
// stack afterward.
func (p *Parser) parseCallArguments(name string) {
	p.advance() // '('

	bytesPushed := 0
	if p.cur.Type != token.RPAREN {
		for {
			p.parseExpression()
			p.emit.EmitPushAccumulator()
			bytesPushed += 2

			if p.cur.Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RPAREN, "closing a call's argument list")

	p.emit.EmitCallFunction(name)
	p.emit.EmitStackCleanup(bytesPushed)
}

// parseConstIntExpr parses const_int_expr, a left-fold over the five
// arithmetic operators evaluated during parsing, left to right.
func (p *Parser) parseConstIntExpr() int64 {
	value := p.parseConstAtom()

	for {
		var op token.Type
		switch p.cur.Type {
		case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
			op = p.cur.Type
		default:
			return value
		}
		p.advance()
		rhs := p.parseConstAtom()

		switch op {
		case token.PLUS:
			value += rhs
		case token.MINUS:
			value -= rhs
		case token.STAR:
			value *= rhs
		case token.SLASH:
			if rhs == 0 {
				p.diags.Report(KindSemantic, "/", "division by zero in a constant expression")
				continue
			}
			value /= rhs
		case token.PERCENT:
			if rhs == 0 {
				p.diags.Report(KindSemantic, "%", "modulus by zero in a constant expression")
				continue
			}
			value %= rhs
		}
	}
}

// parseConstAtom parses const_atom := integer-literal | '(' const_int_expr ')'.
func (p *Parser) parseConstAtom() int64 {
	switch p.cur.Type {
	case token.INT:
		v := p.cur.IntValue
		p.advance()
		return v
	case token.LPAREN:
		p.advance()
		v := p.parseConstIntExpr()
		p.expect(token.RPAREN, "closing a parenthesised constant expression")
		return v
	}
	p.diags.Report(KindSyntax, p.cur.Lexeme, "expected a constant integer expression, found %q", p.cur.Lexeme)
	p.advance()
	return 0
}
