package golox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMStackOverflow(t *testing.T) {
	var out strings.Builder
	opts := RunOptions{Config: NewConfig(), Out: &out, ErrOut: &out}
	err := Run(`
		fun recurse() {
			return recurse();
		}
		recurse();
	`, opts)
	require.Error(t, err)
	var rerr RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Stack overflow")
}

func TestVMCallArityMismatch(t *testing.T) {
	var out strings.Builder
	opts := RunOptions{Config: NewConfig(), Out: &out, ErrOut: &out}
	err := Run(`
		fun f(a, b) { return a + b; }
		f(1);
	`, opts)
	require.Error(t, err)
	var rerr RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Expected 2 arguments")
}

func TestVMGarbageCollectionDuringExecution(t *testing.T) {
	var out strings.Builder
	cfg := NewConfig()
	cfg.SetBool("vm.stress_gc", true)
	opts := RunOptions{Config: cfg, Out: &out, ErrOut: &out}

	err := Run(`
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				return i;
			}
			return count;
		}
		var c = makeCounter();
		var last = 0;
		var n = 0;
		while (n < 50) {
			last = c();
			n = n + 1;
		}
		print last;
	`, opts)
	require.NoError(t, err)
	assert.Equal(t, "50\n", out.String())
}

func TestVMFieldsShadowNothing(t *testing.T) {
	var out strings.Builder
	opts := RunOptions{Config: NewConfig(), Out: &out, ErrOut: &out}
	err := Run(`
		class Box {}
		var b = Box();
		b.value = 42;
		print b.value;
	`, opts)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
}

func TestVMCallingNonCallableIsRuntimeError(t *testing.T) {
	var out strings.Builder
	opts := RunOptions{Config: NewConfig(), Out: &out, ErrOut: &out}
	err := Run(`
		var notAFunction = 1;
		notAFunction();
	`, opts)
	require.Error(t, err)
	assert.Equal(t, 70, ExitCode(err))
}
