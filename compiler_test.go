package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, source string) (GCPtr[*Function], error) {
	t.Helper()
	heap := NewHeap()
	interner := NewInterner(heap)
	t.Cleanup(interner.Close)
	return Compile(source, heap, interner)
}

func TestCompileValidProgram(t *testing.T) {
	_, err := compileSource(t, `print 1 + 2;`)
	require.NoError(t, err)
}

func TestCompileDuplicateLocalIsError(t *testing.T) {
	_, err := compileSource(t, `{ var a = 1; var a = 2; }`)
	require.Error(t, err)
	var errs CompileErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs[0].Message, "already declared")
}

func TestCompileReturnOutsideFunctionIsError(t *testing.T) {
	_, err := compileSource(t, `return 1;`)
	require.Error(t, err)
	var errs CompileErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs[0].Message, "top-level")
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	_, err := compileSource(t, `print this;`)
	require.Error(t, err)
}

func TestCompileSuperOutsideClassIsError(t *testing.T) {
	_, err := compileSource(t, `print super.foo;`)
	require.Error(t, err)
}

func TestCompileClassInheritingFromItselfIsError(t *testing.T) {
	_, err := compileSource(t, `class Oops < Oops {}`)
	require.Error(t, err)
}

// TestCompileRecoversAfterBadFunctionSignature exercises the panic/
// recover unwind through a nested function-compiler frame: the bad
// signature aborts mid-function, and compilation of the next top-level
// statement must not be corrupted by the abandoned frame.
func TestCompileRecoversAfterBadFunctionSignature(t *testing.T) {
	_, err := compileSource(t, `
		fun broken(
		print "still compiles";
	`)
	require.Error(t, err)
	var errs CompileErrors
	require.ErrorAs(t, err, &errs)
	assert.GreaterOrEqual(t, len(errs), 1)
}

func TestCompileReportsMultipleErrorsViaRecovery(t *testing.T) {
	_, err := compileSource(t, `
		var a = ;
		var b = ;
		print a;
	`)
	require.Error(t, err)
	var errs CompileErrors
	require.ErrorAs(t, err, &errs)
	assert.GreaterOrEqual(t, len(errs), 2)
}

func TestCompileErrorMessageFormat(t *testing.T) {
	_, err := compileSource(t, `return 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[Line 1]")
}
