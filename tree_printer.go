package golox

import "strings"

// FormatFunc lets a single printer body serve both a plain-text and a
// color-highlighted rendering: callers pass a no-op formatter for the
// former and one that wraps input in ANSI codes keyed by token for the
// latter (see debug.go's disassembler).
type FormatFunc[T any] func(input string, token T) string

var literalSanitizer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	string('\n'), `\n`,
	string('\r'), `\r`,
	string('\t'), `\t`,
)

// escapeLiteral renders control characters in a string constant safely
// for disassembly output.
func escapeLiteral(s string) string {
	return literalSanitizer.Replace(s)
}
