package golox

import (
	"fmt"
	"strings"

	"github.com/motts-golox/golox/ascii"
)

// asmToken classifies a disassembled fragment for highlighting:
// comments, operators, operands and literals each get their own color.
type asmToken int

const (
	asmNone asmToken = iota
	asmComment
	asmOperator
	asmOperand
	asmLiteral
)

var asmTheme = map[asmToken]string{
	asmNone:     ascii.Reset,
	asmComment:  ascii.DefaultTheme.Comment,
	asmOperator: ascii.DefaultTheme.Operator,
	asmOperand:  ascii.DefaultTheme.Operand,
	asmLiteral:  ascii.DefaultTheme.Literal,
}

func plainFormat(input string, _ asmToken) string { return input }

func highlightFormat(input string, token asmToken) string {
	return ascii.Color(asmTheme[token], "%s", input)
}

// DisassembleChunk renders every instruction in c as plain text, under
// a banner naming the function it belongs to, then recurses into every
// nested function constant under its own "## <name> chunk" banner.
func DisassembleChunk(name string, c *Chunk) string {
	return disassembleChunk(name, c, plainFormat)
}

// HighlightDisassembleChunk is the same rendering with ANSI highlighting,
// used by the CLI's --debug flag (whether or not stdout is a terminal).
func HighlightDisassembleChunk(name string, c *Chunk) string {
	return disassembleChunk(name, c, highlightFormat)
}

func disassembleChunk(name string, c *Chunk, format FormatFunc[asmToken]) string {
	var b strings.Builder
	disassembleChunkInto(&b, name, c, format, make(map[*Function]bool))
	return b.String()
}

func disassembleChunkInto(b *strings.Builder, name string, c *Chunk, format FormatFunc[asmToken], seen map[*Function]bool) {
	fmt.Fprintf(b, "%s\n", format(fmt.Sprintf("== %s ==", name), asmComment))
	for offset := 0; offset < c.Len(); {
		line, next := disassembleInstruction(c, offset, format)
		b.WriteString(line)
		b.WriteByte('\n')
		offset = next
	}

	for _, k := range c.Constants() {
		fnPtr, ok := As[*Function](k.AsObject())
		if !ok {
			continue
		}
		fn := fnPtr.Get()
		if seen[fn] {
			continue
		}
		seen[fn] = true
		b.WriteByte('\n')
		disassembleChunkInto(b, fmt.Sprintf("## %s chunk", functionString(fn)), &fn.Chunk, format, seen)
	}
}

func disassembleInstruction(c *Chunk, offset int, format FormatFunc[asmToken]) (string, int) {
	var b strings.Builder
	fmt.Fprint(&b, format(fmt.Sprintf("%04d ", offset), asmComment))

	if offset > 0 && c.TokenAt(offset).Line == c.TokenAt(offset-1).Line {
		fmt.Fprint(&b, format("   | ", asmComment))
	} else {
		fmt.Fprint(&b, format(fmt.Sprintf("%4d ", c.TokenAt(offset).Line), asmComment))
	}

	op := OpCode(c.Code()[offset])
	b.WriteString(format(op.String(), asmOperator))

	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod:
		k := c.Code()[offset+1]
		fmt.Fprintf(&b, " %s %s", format(fmt.Sprintf("%d", k), asmOperand),
			format("'"+escapeLiteral(c.Constants()[k].String())+"'", asmLiteral))
		return b.String(), offset + 2

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		slot := c.Code()[offset+1]
		fmt.Fprintf(&b, " %s", format(fmt.Sprintf("%d", slot), asmOperand))
		return b.String(), offset + 2

	case OpInvoke, OpSuperInvoke:
		k := c.Code()[offset+1]
		argc := c.Code()[offset+2]
		fmt.Fprintf(&b, " %s %s (%s args)",
			format(fmt.Sprintf("%d", k), asmOperand),
			format("'"+escapeLiteral(c.Constants()[k].String())+"'", asmLiteral),
			format(fmt.Sprintf("%d", argc), asmOperand))
		return b.String(), offset + 3

	case OpJump, OpJumpIfFalse:
		delta := int(c.Code()[offset+1])<<8 | int(c.Code()[offset+2])
		fmt.Fprintf(&b, " %s -> %s",
			format(fmt.Sprintf("%d", offset), asmOperand),
			format(fmt.Sprintf("%d", offset+3+delta), asmOperand))
		return b.String(), offset + 3

	case OpLoop:
		delta := int(c.Code()[offset+1])<<8 | int(c.Code()[offset+2])
		fmt.Fprintf(&b, " %s -> %s",
			format(fmt.Sprintf("%d", offset), asmOperand),
			format(fmt.Sprintf("%d", offset+3-delta), asmOperand))
		return b.String(), offset + 3

	case OpClosure:
		k := c.Code()[offset+1]
		fmt.Fprintf(&b, " %s %s", format(fmt.Sprintf("%d", k), asmOperand),
			format("'"+escapeLiteral(c.Constants()[k].String())+"'", asmLiteral))
		next := offset + 2
		if fnPtr, ok := As[*Function](c.Constants()[k].AsObject()); ok {
			for i := 0; i < fnPtr.Get().UpvalueCount; i++ {
				isLocal := c.Code()[next]
				index := c.Code()[next+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(&b, "\n%s %s %s",
					format(fmt.Sprintf("%04d      |", next), asmComment),
					format(kind, asmComment),
					format(fmt.Sprintf("%d", index), asmOperand))
				next += 2
			}
		}
		return b.String(), next

	default:
		return b.String(), offset + 1
	}
}

// traceInstruction prints the current value stack followed by the next
// instruction about to execute, the vm.trace_execution debug knob's
// entire contract.
func (vm *VM) traceInstruction() {
	var stackStr strings.Builder
	stackStr.WriteString("          ")
	for _, v := range vm.stack {
		fmt.Fprintf(&stackStr, "[ %s ]", v.String())
	}
	fmt.Fprintln(vm.opts.Out, stackStr.String())

	line, _ := disassembleInstruction(vm.chunk(), vm.frame().ip, plainFormat)
	fmt.Fprintln(vm.opts.Out, line)
}
