package golox

import (
	"errors"
	"fmt"
)

// errTooManyConstants and errJumpTooLarge are internal compiler-limit
// errors surfaced to the user as CompileErrors; they never escape
// chunk.go on their own.
var (
	errTooManyConstants = errors.New("Too many constants in one chunk.")
	errJumpTooLarge     = errors.New("Too much code to jump over.")
)

// CompileError is one diagnostic produced while compiling source text:
// a scanner error (bad token) or a compiler error (bad grammar,
// resolution failure, arity overflow, ...). Uniform rendering matches
// the uniform "[Line N] Error at "lexeme": message" format.
type CompileError struct {
	Line    int
	Lexeme  string
	AtEOF   bool
	Message string
}

func (e CompileError) Error() string {
	if e.AtEOF {
		return fmt.Sprintf("[Line %d] Error at end: %s", e.Line, e.Message)
	}
	if e.Lexeme == "" {
		return fmt.Sprintf("[Line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[Line %d] Error at \"%s\": %s", e.Line, e.Lexeme, e.Message)
}

// CompileErrors collects every diagnostic recorded during one compile
// pass (the compiler recovers at statement boundaries and keeps
// reporting). The overall compile fails if this slice
// is non-empty.
type CompileErrors []CompileError

func (es CompileErrors) Error() string {
	if len(es) == 0 {
		return "no errors"
	}
	msg := es[0].Error()
	for _, e := range es[1:] {
		msg += "\n" + e.Error()
	}
	return msg
}

// RuntimeError is a single uniformly-formatted runtime failure: a type
// mismatch, an undefined reference, a bad call target, and so on.
// RuntimeErrors unwind the whole VM.Interpret call; they are not catchable by
// the language.
type RuntimeError struct {
	Line    int
	Lexeme  string
	Message string

	// StackTrace is the "[line N] in <function>" frame
	// trace, a supplemental diagnostic mirroring what other bytecode
	// interpreters print on an uncaught error.
	// It is never part of Error()'s output, so tests asserting on the
	// uniform one-line message keep working regardless of call depth.
	StackTrace string
}

func (e RuntimeError) Error() string {
	if e.Lexeme == "" {
		return fmt.Sprintf("[Line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[Line %d] Error at \"%s\": %s", e.Line, e.Lexeme, e.Message)
}

// ExitCode maps an error returned by Interpret to the process
// exit-code policy: 0 success, 65 compile error, 70 runtime error, 64
// usage error (decided by the CLI, not here).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var rerr RuntimeError
	if errors.As(err, &rerr) {
		return 70
	}
	return 65
}
