// generator.go is the code emitter: it formats assembly lines, mints
// labels, and knows the addressing form for every storage class and
// scalar type.
//
// Grounded directly on original_source/codegen.c: Emit's column layout
// ("        %-4s %-32s ; %s\n"), AllocLabel/EmitLabel's "l%04d" label
// form, EmitFunctionEntry/EmitFunctionExit's pshs/tfr/leas prologue and
// tfr/puls/rts epilogue, and the float/double byte-swap in
// EmitStaticFloat/EmitStaticDouble — reached here via
// encoding/binary.BigEndian instead of indexing a C union's bytes.
package compiler

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go6809/cc6809/config"
	"github.com/go6809/cc6809/symtab"
)

// StringConstant is one entry in a function's per-function string
// buffer: a fresh static label, the original lexeme (for the comment
// trailer), and the decoded byte sequence including its terminating
// zero.
type StringConstant struct {
	Label  int
	Lexeme string
	Bytes  []byte
}

// Emitter is the single writer of the assembler output stream for one
// compilation. It owns the label counter and the per-function string
// buffer; the two symbol tables live in the Parser instead, since the
// emitter only ever addresses symbols it is handed.
type Emitter struct {
	cfg       *config.Config
	out       *bufio.Writer
	file      *os.File
	nextLabel int
	strings   []StringConstant
}

// NewEmitter returns an Emitter configured from cfg. Call OpenOutput
// before emitting anything.
func NewEmitter(cfg *config.Config) *Emitter {
	return &Emitter{cfg: cfg}
}

// outputPath derives the assembler output path from the source path by
// replacing the final '.' suffix with ".asm".
func outputPath(sourcePath string) string {
	if idx := strings.LastIndex(sourcePath, "."); idx >= 0 {
		return sourcePath[:idx] + ".asm"
	}
	return sourcePath + ".asm"
}

// OpenOutput opens the assembler output file derived from sourcePath and
// writes the fixed preamble: the origin directives, the appEntry jump to
// the mangled "main", and the three run-time library stubs.
func (e *Emitter) OpenOutput(sourcePath string) error {
	f, err := os.Create(outputPath(sourcePath))
	if err != nil {
		return err
	}
	e.file = f
	e.out = bufio.NewWriter(f)

	fmt.Fprintf(e.out, "        setdp 0\n")
	fmt.Fprintf(e.out, "        org   %s\n", e.cfg.Emitter.OriginAddress)
	fmt.Fprintf(e.out, "appEntry jmp  %smain\n", e.cfg.Emitter.NamePrefix)

	e.emitDecl("vduchar", "jmp", fmt.Sprintf("[%s]", e.cfg.Runtime.CharOutAddress), "character-output stub")
	e.emitDecl("vdustr", "jmp", fmt.Sprintf("[%s]", e.cfg.Runtime.StrOutAddress), "string-output stub")
	e.emitDecl("getchar", "jmp", fmt.Sprintf("[%s]", e.cfg.Runtime.CharInAddress), "character-input stub")

	return nil
}

// CloseOutput writes the end directive and flushes the output file.
func (e *Emitter) CloseOutput() error {
	fmt.Fprintf(e.out, "        end  appEntry\n")
	if err := e.out.Flush(); err != nil {
		return err
	}
	return e.file.Close()
}

// Emit writes one instruction line: eight leading columns, the
// instruction in four columns, the operand in 32 columns, then the
// comment.
func (e *Emitter) Emit(instruction, operand, comment string) {
	fmt.Fprintf(e.out, "        %-4s %-32s ; %s\n", instruction, operand, comment)
}

// emitDecl writes one declaration line: label padded to a fixed column,
// then the directive, its operand, and a trailing comment.
func (e *Emitter) emitDecl(label, directive, operand, comment string) {
	fmt.Fprintf(e.out, "%-8s%-4s %-32s ; %s\n", label, directive, operand, comment)
}

// AllocateLabel returns the next label number. purposeTag documents the
// caller's intent in call-site comments but does not affect the
// numbering; it exists so call sites read like "allocate the
// else-label" rather than a bare AllocateLabel().
func (e *Emitter) AllocateLabel(purposeTag string) int {
	e.nextLabel++
	return e.nextLabel
}

// labelName renders a label number in its canonical "l####" form.
func labelName(n int) string {
	return fmt.Sprintf("l%04d", n)
}

// EmitLabel writes a bare label line for n.
func (e *Emitter) EmitLabel(n int) {
	fmt.Fprintf(e.out, "%s\n", labelName(n))
}

// EmitFunctionEntry writes the mangled function label and its prologue:
// save the frame pointer (and the reserved register if saveRegister),
// copy the stack pointer into the frame pointer, and reserve autoBytes
// of frame space if non-zero.
func (e *Emitter) EmitFunctionEntry(name string, autoBytes int, saveRegister bool) {
	fmt.Fprintf(e.out, "%s\n", e.cfg.Emitter.NamePrefix+name)

	regs := "u"
	if saveRegister {
		regs = "u,y"
	}
	e.Emit("pshs", regs, "save frame pointer")
	e.Emit("tfr", "s,u", "set frame pointer")
	if autoBytes != 0 {
		e.Emit("leas", fmt.Sprintf("-%d,s", autoBytes), "reserve locals")
	}
}

// EmitFunctionExit writes the function's single return label and its
// epilogue: restore the stack pointer from the frame pointer, restore
// the saved frame pointer (and register), and return.
func (e *Emitter) EmitFunctionExit(returnLabel int, saveRegister bool) {
	e.EmitLabel(returnLabel)
	e.Emit("tfr", "u,s", "restore stack pointer")

	regs := "u"
	if saveRegister {
		regs = "u,y"
	}
	e.Emit("puls", regs, "restore frame pointer")
	e.Emit("rts", "", "return")
}

// address renders the addressing operand for a non-register symbol.
func (e *Emitter) address(sym *symtab.Symbol) string {
	switch sym.StorageClass {
	case symtab.Extern:
		return e.cfg.Emitter.NamePrefix + sym.Name
	case symtab.Static:
		return labelName(sym.Label)
	default: // Auto or a parameter, both frame-pointer relative
		return fmt.Sprintf("%d,u", sym.FPOffset)
	}
}

// LoadScalar emits code to load sym's value into the accumulator that
// fits its size: B/D for byte/word types (with sign or zero extension
// for char/uchar), the 32-bit Q-register for long/float. double is
// faithfully carried over as "incomplete": only the high 32 bits load.
func (e *Emitter) LoadScalar(sym *symtab.Symbol) {
	if sym.StorageClass == symtab.Register {
		e.Emit("tfr", "y,d", fmt.Sprintf("load register variable %s", sym.Name))
		return
	}

	addr := e.address(sym)
	switch {
	case sym.IsPointer():
		e.Emit("ldd", addr, fmt.Sprintf("load %s", sym.Name))
	case sym.Type == symtab.Char:
		e.Emit("ldb", addr, fmt.Sprintf("load %s", sym.Name))
		e.Emit("sex", "", "sign-extend to D")
	case sym.Type == symtab.UChar:
		e.Emit("ldb", addr, fmt.Sprintf("load %s", sym.Name))
		e.Emit("clra", "", "zero-extend to D")
	case sym.Type == symtab.Long, sym.Type == symtab.ULong, sym.Type == symtab.Float:
		e.Emit("ldq", addr, fmt.Sprintf("load %s", sym.Name))
	case sym.Type == symtab.Double:
		e.Emit("ldq", addr, fmt.Sprintf("load high half of %s (low half not implemented)", sym.Name))
	default:
		e.Emit("ldd", addr, fmt.Sprintf("load %s", sym.Name))
	}
}

// StoreScalar emits code to store the accumulator into sym's storage.
func (e *Emitter) StoreScalar(sym *symtab.Symbol) {
	if sym.StorageClass == symtab.Register {
		e.Emit("tfr", "d,y", fmt.Sprintf("store register variable %s", sym.Name))
		return
	}

	addr := e.address(sym)
	switch {
	case sym.IsPointer():
		e.Emit("std", addr, fmt.Sprintf("store %s", sym.Name))
	case sym.Type == symtab.Char, sym.Type == symtab.UChar:
		e.Emit("stb", addr, fmt.Sprintf("store %s", sym.Name))
	case sym.Type == symtab.Long, sym.Type == symtab.ULong, sym.Type == symtab.Float:
		e.Emit("stq", addr, fmt.Sprintf("store %s", sym.Name))
	case sym.Type == symtab.Double:
		low := addr + "+4"
		if sym.StorageClass != symtab.Extern && sym.StorageClass != symtab.Static {
			low = fmt.Sprintf("%d,u", sym.FPOffset+4)
		}
		e.Emit("stq", addr, fmt.Sprintf("store high half of %s", sym.Name))
		e.Emit("stq", low, fmt.Sprintf("store low half of %s", sym.Name))
	default:
		e.Emit("std", addr, fmt.Sprintf("store %s", sym.Name))
	}
}

// EmitIncScalar emits an increment/decrement of sym by amount. The
// caller (the parser) is responsible for having already rejected a
// byte inc/dec by more than one with a diagnostic; this method
// assumes amount is valid for sym's size.
func (e *Emitter) EmitIncScalar(sym *symtab.Symbol, amount int) {
	if sym.StorageClass == symtab.Register {
		e.Emit("leay", fmt.Sprintf("%d,y", amount), "inc/dec register variable")
		return
	}

	if sym.Size() == 1 {
		mnemonic := "inc"
		if amount < 0 {
			mnemonic = "dec"
		}
		e.Emit(mnemonic, e.address(sym), "byte inc/dec")
		return
	}

	e.LoadScalar(sym)
	e.Emit("addd", fmt.Sprintf("#%d", amount), "apply delta")
	e.StoreScalar(sym)
}

// EmitLoadImmediate emits a load of an immediate integer value into the
// primary accumulator, for an integer-literal expression.
func (e *Emitter) EmitLoadImmediate(value int64) {
	e.Emit("ldd", fmt.Sprintf("#%d", value), "load immediate")
}

// EmitLoadLabelAddress emits a load of a compiler-minted label's address
// into the primary accumulator, for a string-literal expression.
func (e *Emitter) EmitLoadLabelAddress(label int) {
	e.Emit("ldd", "#"+labelName(label), "load string address")
}

// EmitPushAccumulator pushes the primary accumulator onto the hardware
// stack, for each argument of a function call in turn.
func (e *Emitter) EmitPushAccumulator() {
	e.Emit("pshs", "d", "push argument")
}

// EmitBranchIfEqual emits a long branch to label taken when the
// accumulator compared zero.
func (e *Emitter) EmitBranchIfEqual(label int) {
	e.Emit("lbeq", labelName(label), "branch if zero")
}

// EmitBranchNotEqual emits a long branch to label taken when the
// accumulator compared nonzero.
func (e *Emitter) EmitBranchNotEqual(label int) {
	e.Emit("lbne", labelName(label), "branch if nonzero")
}

// EmitJump emits an unconditional jump to label.
func (e *Emitter) EmitJump(label int) {
	e.Emit("jmp", labelName(label), "jump")
}

// EmitCallFunction emits a subroutine call to the mangled name.
func (e *Emitter) EmitCallFunction(name string) {
	e.Emit("jsr", e.cfg.Emitter.NamePrefix+name, fmt.Sprintf("call %s", name))
}

// EmitStackCleanup adjusts the stack by bytes after a call, discarding
// the pushed arguments.
func (e *Emitter) EmitStackCleanup(bytes int) {
	if bytes == 0 {
		return
	}
	e.Emit("leas", fmt.Sprintf("%d,s", bytes), "clean up arguments")
}

// EmitCompareIntConstant emits a compare of the accumulator against an
// immediate value.
func (e *Emitter) EmitCompareIntConstant(value int64) {
	e.Emit("cmpd", fmt.Sprintf("#%d", value), "compare")
}

// floatBytes returns the big-endian IEEE-754 binary32 bytes of v.
func floatBytes(v float64) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(float32(v)))
	return b
}

// doubleBytes returns the big-endian IEEE-754 binary64 bytes of v.
func doubleBytes(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func hexByteList(bs []byte) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprintf("$%02x", b)
	}
	return strings.Join(parts, ",")
}

// emitScalarDecl emits one storage directive for sym's initial value:
// fcb for byte-sized scalars, fdb for 16-bit, fqb for 32-bit, and a
// single fcb line listing the big-endian IEEE-754 bytes for
// float/double. label is the already-mangled or already-"l####" name
// the caller wants used (EmitStaticScalar and EmitExternScalar differ
// only in which label they pass).
func (e *Emitter) emitScalarDecl(label string, sym *symtab.Symbol, intValue int64, floatValue float64, comment string) {
	switch {
	case sym.IsPointer():
		e.emitDecl(label, "fdb", fmt.Sprintf("%d", intValue), comment)
	case sym.Type == symtab.Char, sym.Type == symtab.UChar:
		e.emitDecl(label, "fcb", fmt.Sprintf("%d", intValue), comment)
	case sym.Type == symtab.Short, sym.Type == symtab.UShort, sym.Type == symtab.Int, sym.Type == symtab.UInt:
		e.emitDecl(label, "fdb", fmt.Sprintf("%d", intValue), comment)
	case sym.Type == symtab.Long, sym.Type == symtab.ULong:
		e.emitDecl(label, "fqb", fmt.Sprintf("%d", intValue), comment)
	case sym.Type == symtab.Float:
		e.emitDecl(label, "fcb", hexByteList(floatBytes(floatValue)), comment)
	case sym.Type == symtab.Double:
		e.emitDecl(label, "fcb", hexByteList(doubleBytes(floatValue)), comment)
	default:
		e.emitDecl(label, "fdb", fmt.Sprintf("%d", intValue), comment)
	}
}

// EmitStaticScalar emits a static-storage declaration addressed by
// sym.Label.
func (e *Emitter) EmitStaticScalar(sym *symtab.Symbol, intValue int64, floatValue float64, comment string) {
	e.emitScalarDecl(labelName(sym.Label), sym, intValue, floatValue, comment)
}

// EmitExternScalar emits a file-scope declaration addressed by the
// mangled name.
func (e *Emitter) EmitExternScalar(sym *symtab.Symbol, intValue int64, floatValue float64, comment string) {
	e.emitScalarDecl(e.cfg.Emitter.NamePrefix+sym.Name, sym, intValue, floatValue, comment)
}

// EmitReserveBytes emits an uninitialised storage declaration of size
// bytes, for an array declared with no initialiser.
func (e *Emitter) EmitReserveBytes(label string, size int, comment string) {
	e.emitDecl(label, "rmb", fmt.Sprintf("%d", size), comment)
}

const charsPerLine = 7

// NewStringConstant allocates a fresh static label for a string literal
// and buffers its decoded bytes; call FlushStringConstants at function
// end to emit them and reset the buffer.
func (e *Emitter) NewStringConstant(lexeme string, bytes []byte) StringConstant {
	sc := StringConstant{Label: e.AllocateLabel("string"), Lexeme: lexeme, Bytes: bytes}
	e.strings = append(e.strings, sc)
	return sc
}

// EmitStaticCharArray emits sc's byte sequence as hex byte directives,
// at most charsPerLine bytes per line; the first line's comment carries
// the original lexeme.
func (e *Emitter) EmitStaticCharArray(sc StringConstant) {
	label := labelName(sc.Label)

	for i := 0; i < len(sc.Bytes); i += charsPerLine {
		end := i + charsPerLine
		if end > len(sc.Bytes) {
			end = len(sc.Bytes)
		}
		lbl := ""
		comment := ""
		if i == 0 {
			lbl = label
			comment = sc.Lexeme
		}
		e.emitDecl(lbl, "fcb", hexByteList(sc.Bytes[i:end]), comment)
	}
}

// FlushStringConstants emits every buffered string constant and resets
// the buffer. Called at the end of each function body: string
// constants are scoped to the function that references them rather
// than collected globally.
func (e *Emitter) FlushStringConstants() {
	for _, sc := range e.strings {
		e.EmitStaticCharArray(sc)
	}
	e.strings = nil
}
