package golox

import "encoding/binary"

// Chunk is the compiled bytecode body of one function: a flat byte
// array of opcodes and inline operands, a constant pool, and a
// per-byte source map used for diagnostics. Every code byte has a
// corresponding source-map entry.
type Chunk struct {
	code       []byte
	constants  []Value
	sourceMap  []Token
}

// Code is read-only access to the emitted bytecode.
func (c *Chunk) Code() []byte { return c.code }

// Constants is read-only access to the constant pool.
func (c *Chunk) Constants() []Value { return c.constants }

// TokenAt returns the source-map entry for byte offset ip, used to
// format "[Line N] ... at "lexeme"" diagnostics.
func (c *Chunk) TokenAt(ip int) Token { return c.sourceMap[ip] }

func (c *Chunk) Len() int { return len(c.code) }

func (c *Chunk) writeByte(b byte, tok Token) int {
	c.code = append(c.code, b)
	c.sourceMap = append(c.sourceMap, tok)
	return len(c.code) - 1
}

func (c *Chunk) writeOp(op OpCode, tok Token) int { return c.writeByte(byte(op), tok) }

// addConstant appends value to the constant pool and returns its index.
// Indices must fit in a u8, matching
// a 256-constants-per-chunk limit.
func (c *Chunk) addConstant(v Value) (int, error) {
	if len(c.constants) >= 256 {
		return 0, errTooManyConstants
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1, nil
}

// EmitSimple emits a single-byte opcode with no operand.
func (c *Chunk) EmitSimple(op OpCode, tok Token) {
	c.writeOp(op, tok)
}

// EmitByteOperand emits an opcode followed by a single raw byte
// operand (get/set local, get/set upvalue, call argc).
func (c *Chunk) EmitByteOperand(op OpCode, operand byte, tok Token) {
	c.writeOp(op, tok)
	c.writeByte(operand, tok)
}

// EmitConstant adds v to the constant pool and emits OpConstant
// referencing it.
func (c *Chunk) EmitConstant(v Value, tok Token) error {
	idx, err := c.addConstant(v)
	if err != nil {
		return err
	}
	c.writeOp(OpConstant, tok)
	c.writeByte(byte(idx), tok)
	return nil
}

// EmitNamedConstant is used by the get/set_property, get_super, class,
// and method opcodes, all of which carry a u8 constant-pool index
// naming a string.
func (c *Chunk) EmitNamedConstant(op OpCode, nameIdx byte, tok Token) {
	c.writeOp(op, tok)
	c.writeByte(nameIdx, tok)
}

// EmitInvoke emits the fused property-get-and-call opcodes (invoke /
// super_invoke), which carry both a name index and an argument count.
func (c *Chunk) EmitInvoke(op OpCode, nameIdx byte, argCount byte, tok Token) {
	c.writeOp(op, tok)
	c.writeByte(nameIdx, tok)
	c.writeByte(argCount, tok)
}

// StringConstant interns name into the constant pool as a string Value
// and returns its index, deduplicating identical names (used for named
// variables and property/method names).
func (c *Chunk) StringConstant(interner *Interner, name string) (byte, error) {
	strPtr := interner.Get(name)
	for i, existing := range c.constants {
		if existing.IsObject() {
			if s, ok := existing.AsString(); ok && Equal(s, strPtr) {
				return byte(i), nil
			}
		}
	}
	idx, err := c.addConstant(ObjectOf(strPtr))
	if err != nil {
		return 0, err
	}
	return byte(idx), nil
}

// JumpPatch is a handle returned by EmitJump, remembering where the
// forward-jump's 2-byte operand lives so it can be backpatched once the
// target address is known.
type JumpPatch struct {
	operandAt int
}

// EmitJump emits a jump opcode (OpJump or OpJumpIfFalse) with a
// placeholder 2-byte operand and returns a patch handle.
func (c *Chunk) EmitJump(op OpCode, tok Token) JumpPatch {
	c.writeOp(op, tok)
	at := c.writeByte(0xff, tok)
	c.writeByte(0xff, tok)
	return JumpPatch{operandAt: at}
}

// PatchJump resolves a forward jump to the current end of the chunk,
// writing the big-endian byte distance into the reserved operand.
func (p JumpPatch) PatchJump(c *Chunk) error {
	delta := len(c.code) - (p.operandAt + 2)
	if delta > 0xffff {
		return errJumpTooLarge
	}
	binary.BigEndian.PutUint16(c.code[p.operandAt:p.operandAt+2], uint16(delta))
	return nil
}

// EmitLoop emits a backward jump (OpLoop) from the current position to
// loopStart, computed on the spot rather than backpatched.
func (c *Chunk) EmitLoop(loopStart int, tok Token) error {
	c.writeOp(OpLoop, tok)
	at := len(c.code)
	delta := (at + 2) - loopStart
	if delta > 0xffff {
		return errJumpTooLarge
	}
	c.writeByte(byte(delta>>8), tok)
	c.writeByte(byte(delta), tok)
	return nil
}

// EmitClosure emits OpClosure referencing the function constant at
// fnIdx followed by one (isLocal, index) pair per captured upvalue.
func (c *Chunk) EmitClosure(fnIdx byte, upvalues []compilerUpvalue, tok Token) {
	c.writeOp(OpClosure, tok)
	c.writeByte(fnIdx, tok)
	for _, uv := range upvalues {
		if uv.isLocal {
			c.writeByte(1, tok)
		} else {
			c.writeByte(0, tok)
		}
		c.writeByte(byte(uv.index), tok)
	}
}
