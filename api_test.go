package golox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCapture(t *testing.T, source string) (string, error) {
	t.Helper()
	var out strings.Builder
	opts := RunOptions{Config: NewConfig(), Out: &out, ErrOut: &out}
	err := Run(source, opts)
	return out.String(), err
}

func TestRunArithmetic(t *testing.T) {
	out, err := runCapture(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestRunStringConcatenation(t *testing.T) {
	out, err := runCapture(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestRunStringInterningEquality(t *testing.T) {
	out, err := runCapture(t, `
		var a = "hello";
		var b = "he" + "llo";
		print a == b;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestRunClosures(t *testing.T) {
	out, err := runCapture(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				print i;
			}
			return count;
		}
		var counter = makeCounter();
		counter();
		counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestRunRecursion(t *testing.T) {
	out, err := runCapture(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestRunClassesAndInheritance(t *testing.T) {
	out, err := runCapture(t, `
		class Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				print this.name + " makes a noise.";
			}
		}
		class Dog < Animal {
			speak() {
				super.speak();
				print this.name + " barks.";
			}
		}
		var d = Dog("Rex");
		d.speak();
	`)
	require.NoError(t, err)
	assert.Equal(t, "Rex makes a noise.\nRex barks.\n", out)
}

func TestRunUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := runCapture(t, `print nope;`)
	require.Error(t, err)
	var rerr RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 70, ExitCode(err))
}

func TestRunTypeMismatchIsRuntimeError(t *testing.T) {
	_, err := runCapture(t, `print 1 + "two";`)
	require.Error(t, err)
	assert.Equal(t, 70, ExitCode(err))
}

func TestRunDuplicateLocalIsCompileError(t *testing.T) {
	_, err := runCapture(t, `
		{
			var a = 1;
			var a = 2;
		}
	`)
	require.Error(t, err)
	assert.Equal(t, 65, ExitCode(err))
}

func TestRunSuccessExitCodeIsZero(t *testing.T) {
	_, err := runCapture(t, `print "ok";`)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
}
