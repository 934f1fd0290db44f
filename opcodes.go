package golox

// OpCode is a single bytecode instruction tag. Operand widths are fixed
// per opcode and documented alongside each constant; see chunk.go for
// the emit helpers that encode them and vm_stack.go for the read
// helpers that decode them.
type OpCode byte

const (
	OpConstant OpCode = iota // u8 k: push constants[k]
	OpNil                    // push nil
	OpTrue                   // push true
	OpFalse                  // push false
	OpPop                    // discard top

	OpGetLocal    // u8 slot
	OpSetLocal    // u8 slot
	OpGetGlobal   // u8 k (name)
	OpSetGlobal   // u8 k (name)
	OpDefineGlobal // u8 k (name)
	OpGetUpvalue  // u8 slot
	OpSetUpvalue  // u8 slot
	OpGetProperty // u8 k (name)
	OpSetProperty // u8 k (name)
	OpGetSuper    // u8 k (name)

	OpEqual
	OpGreater
	OpLess

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	OpJump        // u16 delta
	OpJumpIfFalse // u16 delta
	OpLoop        // u16 delta

	OpCall        // u8 argc
	OpInvoke      // u8 k (name), u8 argc
	OpSuperInvoke // u8 k (name), u8 argc
	OpClosure     // u8 k (fn), then upvalueCount*(u8 isLocal, u8 index)
	OpCloseUpvalue
	OpReturn

	OpClass   // u8 k (name)
	OpInherit
	OpMethod // u8 k (name)

	opCodeCount
)

var opCodeNames = [opCodeCount]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

func (op OpCode) String() string {
	if int(op) < 0 || int(op) >= int(opCodeCount) {
		return "OP_UNKNOWN"
	}
	return opCodeNames[op]
}
