package compiler

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go6809/cc6809/config"
	"github.com/go6809/cc6809/symtab"
)

func parseSource(t *testing.T, source string) (string, *Diagnostics, *symtab.SymbolTable) {
	t.Helper()

	cfg := config.DefaultConfig()
	diags := &Diagnostics{}
	syms := symtab.NewSymbolTable(cfg.SymbolTable.ExternCapacity, cfg.SymbolTable.LocalCapacity)
	emit := NewEmitter(cfg)

	dir := t.TempDir()
	path := dir + "/input.c"
	require.NoError(t, emit.OpenOutput(path), "OpenOutput")

	p := NewParser(source, syms, emit, diags)
	p.Parse()

	require.NoError(t, emit.CloseOutput(), "CloseOutput")

	b, err := os.ReadFile(path[:len(path)-2] + ".asm")
	require.NoError(t, err, "reading output")
	return string(b), diags, syms
}

func TestConstIntExprLeftToRight(t *testing.T) {
	out, diags, syms := parseSource(t, "int a[10-2*3];")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	sym := syms.LookupExtern("a")
	require.NotNil(t, sym, "expected 'a' to be declared")

	// 10-2*3 folds left to right as (10-2)*3 = 24, not 10-(2*3) = 4.
	assert.Contains(t, out, "rmb  48", "expected a 24-element array of 2-byte ints (48 bytes)")
}

func TestConstIntExprArraySize(t *testing.T) {
	out, diags, syms := parseSource(t, "char buf[7];")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	sym := syms.LookupExtern("buf")
	require.NotNil(t, sym, "expected 'buf' to be declared")
	assert.Contains(t, out, "rmb  7")
}

func TestFunctionWithParametersDeclaresLocals(t *testing.T) {
	_, diags, _ := parseSource(t, "int add(int a, int b){ a; return b; }")
	assert.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)
}

func TestForLoopEmitsFourLabelsAndThreeJumps(t *testing.T) {
	out, diags, _ := parseSource(t, "void f(void){ int i; for(i=0;i;i--) i; }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)
	assert.GreaterOrEqual(t, strings.Count(out, "jmp  l"), 3, "expected at least 3 unconditional jumps in a for loop")
}

func TestDoWhileUsesBranchNotEqual(t *testing.T) {
	out, diags, _ := parseSource(t, "void f(void){ int i; do { i--; } while(i); }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)
	assert.Contains(t, out, "lbne", "expected a branch-not-equal closing the do/while")
}

func TestIfElseEmitsOneConditionalBranch(t *testing.T) {
	out, diags, _ := parseSource(t, "int x; void f(void){ if (x) x = 1; else x = 2; }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)
	assert.Equal(t, 1, strings.Count(out, "lbeq"), "expected exactly one conditional branch for the if")
}

func TestIfWithoutElseEmitsNoEndifJump(t *testing.T) {
	out, diags, _ := parseSource(t, "int x; void f(void){ if (x) x = 1; }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)
	assert.Equal(t, 0, strings.Count(out, "jmp  l"), "expected no endif jump without an else branch")
}

func TestAssignmentToConstIsReported(t *testing.T) {
	_, diags, _ := parseSource(t, "void f(void){ const int x; x = 1; }")
	require.True(t, diags.HasErrors(), "expected a diagnostic assigning to a read-only local")
}

func TestRegisterBudgetIsOnePerFunction(t *testing.T) {
	out, diags, _ := parseSource(t, "void f(void){ register int a; register int b; a; b; }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	// Only the first register local should load via the reserved index
	// register; the second silently demotes to auto rather than being
	// rejected.
	assert.Equal(t, 1, strings.Count(out, "tfr  y,d"), "expected exactly one register-variable load")
}

func TestFunctionCallPushesAndCleansUpArguments(t *testing.T) {
	out, diags, _ := parseSource(t, "void g(int x); void f(void){ g(1); }")
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	assert.Contains(t, out, "pshs d", "expected the argument pushed before the call")
	assert.Contains(t, out, "jsr", "expected a subroutine call")
	assert.Contains(t, out, "leas 2,s", "expected the stack cleaned up by the pushed byte count")
}
