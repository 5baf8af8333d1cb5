package compiler

import (
	"os"
	"strings"
	"testing"

	"github.com/go6809/cc6809/config"
	"github.com/go6809/cc6809/symtab"
)

func newTestEmitter(t *testing.T) (*Emitter, string) {
	t.Helper()
	cfg := config.DefaultConfig()
	e := NewEmitter(cfg)

	dir := t.TempDir()
	src := dir + "/input.c"
	if err := e.OpenOutput(src); err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	return e, dir + "/input.asm"
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return string(b)
}

func TestOpenOutputPreamble(t *testing.T) {
	e, path := newTestEmitter(t)
	if err := e.CloseOutput(); err != nil {
		t.Fatalf("CloseOutput: %v", err)
	}

	out := readAll(t, path)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if !strings.Contains(lines[0], "setdp 0") {
		t.Errorf("expected first line to set dp, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "org") {
		t.Errorf("expected second line to set origin, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "appEntry") || !strings.Contains(lines[2], "_main") {
		t.Errorf("expected appEntry jump to _main, got %q", lines[2])
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "end") || !strings.Contains(last, "appEntry") {
		t.Errorf("expected closing end directive, got %q", last)
	}
}

func TestLabelNamesAreSequentialAndUnique(t *testing.T) {
	e, _ := newTestEmitter(t)

	a := e.AllocateLabel("else")
	b := e.AllocateLabel("endif")
	if a == b {
		t.Fatalf("expected distinct labels, got %d and %d", a, b)
	}
	if labelName(a) != "l0001" || labelName(b) != "l0002" {
		t.Errorf("unexpected label names: %s, %s", labelName(a), labelName(b))
	}
}

func TestEmitColumnFormat(t *testing.T) {
	e, path := newTestEmitter(t)
	e.Emit("lbeq", "l0003", "branch if zero")
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "        lbeq l0003") {
		t.Errorf("expected instruction line with fixed columns, got %q", out)
	}
	if !strings.Contains(out, "; branch if zero") {
		t.Errorf("expected comment trailer, got %q", out)
	}
}

func TestFunctionEntryAndExitBalance(t *testing.T) {
	e, path := newTestEmitter(t)

	ret := e.AllocateLabel("return")
	e.EmitFunctionEntry("main", 4, false)
	e.EmitFunctionExit(ret, false)
	e.CloseOutput()

	out := readAll(t, path)
	if strings.Count(out, "pshs") != strings.Count(out, "puls") {
		t.Errorf("expected balanced push/pop, got:\n%s", out)
	}
	if !strings.Contains(out, "_main\n") {
		t.Errorf("expected mangled function label, got:\n%s", out)
	}
	if !strings.Contains(out, "rts") {
		t.Errorf("expected a return instruction, got:\n%s", out)
	}
}

func TestFunctionEntryReservesRegisterWhenRequested(t *testing.T) {
	e, path := newTestEmitter(t)

	e.EmitFunctionEntry("f", 0, true)
	e.EmitFunctionExit(e.AllocateLabel("return"), true)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "pshs u,y") {
		t.Errorf("expected the reserved register saved alongside the frame pointer, got:\n%s", out)
	}
	if !strings.Contains(out, "puls u,y") {
		t.Errorf("expected the reserved register restored alongside the frame pointer, got:\n%s", out)
	}
}

func TestFloatBytesAreBigEndian(t *testing.T) {
	// 1.0f is 0x3F800000
	got := floatBytes(1.0)
	want := []byte{0x3F, 0x80, 0x00, 0x00}
	if string(got) != string(want) {
		t.Errorf("expected %x, got %x", want, got)
	}
}

func TestDoubleBytesAreBigEndian(t *testing.T) {
	// 1.0 is 0x3FF0000000000000
	got := doubleBytes(1.0)
	want := []byte{0x3F, 0xF0, 0, 0, 0, 0, 0, 0}
	if string(got) != string(want) {
		t.Errorf("expected %x, got %x", want, got)
	}
}

func TestAddressDispatchesOnStorageClass(t *testing.T) {
	e, _ := newTestEmitter(t)

	extern := &symtab.Symbol{Name: "count", StorageClass: symtab.Extern, Type: symtab.Int}
	if got := e.address(extern); got != "_count" {
		t.Errorf("extern address: got %q", got)
	}

	static := &symtab.Symbol{Name: "total", StorageClass: symtab.Static, Type: symtab.Int, Label: 7}
	if got := e.address(static); got != "l0007" {
		t.Errorf("static address: got %q", got)
	}

	auto := &symtab.Symbol{Name: "i", StorageClass: symtab.Auto, Type: symtab.Int, FPOffset: -2}
	if got := e.address(auto); got != "-2,u" {
		t.Errorf("auto address: got %q", got)
	}
}

func TestLoadScalarCharSignExtends(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "c", StorageClass: symtab.Auto, Type: symtab.Char, FPOffset: -1}
	e.LoadScalar(sym)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "ldb") || !strings.Contains(out, "sex") {
		t.Errorf("expected a byte load followed by sign-extend, got:\n%s", out)
	}
}

func TestLoadScalarUCharZeroExtends(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "c", StorageClass: symtab.Auto, Type: symtab.UChar, FPOffset: -1}
	e.LoadScalar(sym)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "ldb") || !strings.Contains(out, "clra") {
		t.Errorf("expected a byte load followed by zero-extend, got:\n%s", out)
	}
}

func TestLoadScalarDoubleOnlyLoadsHighHalf(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "d", StorageClass: symtab.Extern, Type: symtab.Double}
	e.LoadScalar(sym)
	e.CloseOutput()

	out := readAll(t, path)
	if strings.Count(out, "ldq") != 1 {
		t.Errorf("expected exactly one load for a double, got:\n%s", out)
	}
}

func TestStoreScalarDoubleStoresBothHalves(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "d", StorageClass: symtab.Extern, Type: symtab.Double}
	e.StoreScalar(sym)
	e.CloseOutput()

	out := readAll(t, path)
	if strings.Count(out, "stq") != 2 {
		t.Errorf("expected two quad stores for a double, got:\n%s", out)
	}
}

func TestRegisterVariableUsesReservedIndexRegister(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "i", StorageClass: symtab.Register, Type: symtab.Int}
	e.LoadScalar(sym)
	e.StoreScalar(sym)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "tfr  y,d") {
		t.Errorf("expected a transfer from the reserved register, got:\n%s", out)
	}
	if !strings.Contains(out, "tfr  d,y") {
		t.Errorf("expected a transfer into the reserved register, got:\n%s", out)
	}
}

func TestEmitIncScalarByteUsesIncDec(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "c", StorageClass: symtab.Auto, Type: symtab.Char, FPOffset: -1}

	e.EmitIncScalar(sym, 1)
	e.EmitIncScalar(sym, -1)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "inc") || !strings.Contains(out, "dec") {
		t.Errorf("expected byte inc and dec instructions, got:\n%s", out)
	}
}

func TestEmitIncScalarWordUsesLoadAddStore(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "i", StorageClass: symtab.Auto, Type: symtab.Int, FPOffset: -2}

	e.EmitIncScalar(sym, 1)
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "addd") {
		t.Errorf("expected a load/add-immediate/store sequence, got:\n%s", out)
	}
}

func TestEmitStaticCharArrayChunksAtSevenBytesPerLine(t *testing.T) {
	e, path := newTestEmitter(t)
	sc := e.NewStringConstant(`"hello there"`, []byte("hello there\x00"))
	e.EmitStaticCharArray(sc)
	e.CloseOutput()

	out := readAll(t, path)
	fcbLines := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "fcb") {
			fcbLines++
		}
	}
	// 12 bytes ("hello there\0") at 7 per line needs two directive lines.
	if fcbLines != 2 {
		t.Errorf("expected 2 fcb lines for 12 bytes, got %d:\n%s", fcbLines, out)
	}
	if !strings.Contains(out, `; "hello there"`) {
		t.Errorf("expected the first line to carry the original lexeme, got:\n%s", out)
	}
}

func TestFlushStringConstantsResetsBuffer(t *testing.T) {
	e, path := newTestEmitter(t)
	e.NewStringConstant(`"a"`, []byte("a\x00"))
	e.FlushStringConstants()
	if len(e.strings) != 0 {
		t.Errorf("expected the string buffer to be empty after flush, got %d entries", len(e.strings))
	}
	e.CloseOutput()
	readAll(t, path)
}

func TestEmitStaticScalarEncodesFloatAsHexBytes(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "pi", StorageClass: symtab.Static, Type: symtab.Float, Label: 1}
	e.EmitStaticScalar(sym, 0, 1.0, "float pi = 1.0")
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "$3f,$80,$00,$00") {
		t.Errorf("expected the big-endian hex bytes of 1.0f, got:\n%s", out)
	}
}

func TestEmitExternScalarUsesMangledName(t *testing.T) {
	e, path := newTestEmitter(t)
	sym := &symtab.Symbol{Name: "total", StorageClass: symtab.Extern, Type: symtab.Int}
	e.EmitExternScalar(sym, 42, 0, "int total = 42")
	e.CloseOutput()

	out := readAll(t, path)
	if !strings.Contains(out, "_total") {
		t.Errorf("expected a mangled external name, got:\n%s", out)
	}
	if !strings.Contains(out, "fdb  42") {
		t.Errorf("expected a word directive with the initial value, got:\n%s", out)
	}
}
