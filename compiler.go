package golox

import "strconv"

// Precedence orders the binary/call operators from loosest to
// tightest binding.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment // =
	PrecOr         // or
	PrecAnd        // and
	PrecEquality   // == !=
	PrecComparison // < > <= >=
	PrecTerm       // + -
	PrecFactor     // * /
	PrecUnary      // ! -
	PrecCall       // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules [int(TokenContinue) + 1]parseRule

func init() {
	rules[TokenLeftParen] = parseRule{(*Compiler).grouping, (*Compiler).call, PrecCall}
	rules[TokenDot] = parseRule{nil, (*Compiler).dot, PrecCall}
	rules[TokenMinus] = parseRule{(*Compiler).unary, (*Compiler).binary, PrecTerm}
	rules[TokenPlus] = parseRule{nil, (*Compiler).binary, PrecTerm}
	rules[TokenSlash] = parseRule{nil, (*Compiler).binary, PrecFactor}
	rules[TokenStar] = parseRule{nil, (*Compiler).binary, PrecFactor}
	rules[TokenBang] = parseRule{(*Compiler).unary, nil, PrecNone}
	rules[TokenBangEqual] = parseRule{nil, (*Compiler).binary, PrecEquality}
	rules[TokenEqualEqual] = parseRule{nil, (*Compiler).binary, PrecEquality}
	rules[TokenGreater] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[TokenGreaterEqual] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[TokenLess] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[TokenLessEqual] = parseRule{nil, (*Compiler).binary, PrecComparison}
	rules[TokenIdentifier] = parseRule{(*Compiler).variable, nil, PrecNone}
	rules[TokenString] = parseRule{(*Compiler).string, nil, PrecNone}
	rules[TokenNumber] = parseRule{(*Compiler).number, nil, PrecNone}
	rules[TokenAnd] = parseRule{nil, (*Compiler).and_, PrecAnd}
	rules[TokenOr] = parseRule{nil, (*Compiler).or_, PrecOr}
	rules[TokenFalse] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[TokenNil] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[TokenTrue] = parseRule{(*Compiler).literal, nil, PrecNone}
	rules[TokenSuper] = parseRule{(*Compiler).super_, nil, PrecNone}
	rules[TokenThis] = parseRule{(*Compiler).this_, nil, PrecNone}
}

func getRule(t TokenType) *parseRule { return &rules[t] }

// funcType distinguishes the top-level script from nested functions,
// methods, and initializers, each of which changes how slot 0 and the
// default return behave.
type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
	funcTypeMethod
	funcTypeInitializer
)

type local struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

type compilerUpvalue struct {
	index   int
	isLocal bool
}

// funcCompiler is one frame in the compiler's stack of in-progress
// functions (a stack of function compilers). The
// Function it builds is heap-allocated up front so the compiler's
// root-marking callback can keep it (and everything reachable from its
// growing constant pool) alive across any collection triggered mid-
// compile.
type funcCompiler struct {
	enclosing *funcCompiler
	function  GCPtr[*Function]
	funcType  funcType

	locals     []local
	scopeDepth int
	upvalues   []compilerUpvalue
}

type classCompiler struct {
	enclosing     *classCompiler
	name          Token
	hasSuperclass bool
}

// Compiler is the single-pass Pratt compiler: it scans tokens on
// demand, emits bytecode into the current function compiler's chunk,
// and resolves locals/upvalues/globals as it goes. There is no AST.
type Compiler struct {
	scanner  *Scanner
	heap     *Heap
	interner *Interner

	previous Token
	current  Token

	errors    []CompileError
	panicMode bool

	fc *funcCompiler
	cc *classCompiler

	// lastCompiledUpvalues is a one-shot handoff from endFuncCompiler to
	// the `fun`/method declaration that just closed it: the
	// upvalue-capture metadata needed to emit OpClosure's trailing
	// operand pairs.
	lastCompiledUpvalues []compilerUpvalue
}

type compilePanic struct{ err CompileError }

// Compile compiles source into a top-level script Function. It always
// returns every diagnostic recorded, even on success (there are none in
// that case); callers check len(errs) == 0 or treat the returned
// CompileErrors as the error.
func Compile(source string, heap *Heap, interner *Interner) (GCPtr[*Function], error) {
	c := &Compiler{
		scanner:  NewScanner(source),
		heap:     heap,
		interner: interner,
	}

	detach := heap.OnMarkRoots(func() {
		for fc := c.fc; fc != nil; fc = fc.enclosing {
			heap.Mark(fc.function.Obj())
		}
	})
	defer detach()

	c.pushFuncCompiler(funcTypeScript, Token{Lexeme: ""})

	c.advance()
	for !c.check(TokenEOF) {
		c.declaration()
	}

	fn := c.endFuncCompiler(c.current)

	if len(c.errors) > 0 {
		return fn, CompileErrors(c.errors)
	}
	return fn, nil
}

// --- token stream helpers ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Type != TokenError {
			break
		}
		c.errorAtCurrentNoPanic(c.current.Lexeme)
	}
	// A scanner error only latches panicMode long enough to collapse a
	// run of bad characters into a single diagnostic; once a real token
	// resumes, later errors must still be reported.
	c.panicMode = false
}

func (c *Compiler) check(t TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t TokenType, message string) Token {
	if c.current.Type == t {
		tok := c.current
		c.advance()
		return tok
	}
	c.errorAtCurrent(message)
	return c.current
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

// errorAt panics with a compilePanic, unwinding to the nearest
// recover in Compile's declaration loop, where synchronize() resumes
// scanning at the next statement boundary (error
// recovery).
func (c *Compiler) errorAt(tok Token, message string) {
	ce := c.makeError(tok, message)
	if c.panicMode {
		return
	}
	panic(compilePanic{err: ce})
}

// errorAtCurrentNoPanic records a scanner error without unwinding,
// used while advancing past TokenError tokens so a run of bad
// characters doesn't abort the whole advance() call.
func (c *Compiler) errorAtCurrentNoPanic(message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	// A TokenError's lexeme is the message itself, so it is not repeated
	// as an "at" location: scanner errors render as "[Line N] Error: msg".
	ce := c.makeError(c.current, message)
	ce.Lexeme = ""
	c.errors = append(c.errors, ce)
}

func (c *Compiler) makeError(tok Token, message string) CompileError {
	return CompileError{Line: tok.Line, Lexeme: tok.Lexeme, AtEOF: tok.Type == TokenEOF, Message: message}
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != TokenEOF {
		if c.previous.Type == TokenSemicolon {
			return
		}
		switch c.current.Type {
		case TokenClass, TokenFun, TokenVar, TokenFor, TokenIf, TokenWhile, TokenPrint, TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emit helpers (delegate to the current function compiler's chunk) ---

func (c *Compiler) chunk() *Chunk { return &c.fc.function.Get().Chunk }

func (c *Compiler) emitSimple(op OpCode) { c.chunk().EmitSimple(op, c.previous) }

func (c *Compiler) emitByteOperand(op OpCode, operand byte) {
	c.chunk().EmitByteOperand(op, operand, c.previous)
}

func (c *Compiler) emitConstant(v Value) {
	if err := c.chunk().EmitConstant(v, c.previous); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitNamedConstant(op OpCode, nameIdx byte) {
	c.chunk().EmitNamedConstant(op, nameIdx, c.previous)
}

func (c *Compiler) emitInvoke(op OpCode, nameIdx, argc byte) {
	c.chunk().EmitInvoke(op, nameIdx, argc, c.previous)
}

func (c *Compiler) emitJump(op OpCode) JumpPatch { return c.chunk().EmitJump(op, c.previous) }

func (c *Compiler) patchJump(p JumpPatch) {
	if err := p.PatchJump(c.chunk()); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	if err := c.chunk().EmitLoop(loopStart, c.previous); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitReturn() {
	if c.fc.funcType == funcTypeInitializer {
		c.emitByteOperand(OpGetLocal, 0)
	} else {
		c.emitSimple(OpNil)
	}
	c.emitSimple(OpReturn)
}

func (c *Compiler) identifierConstant(name string) byte {
	idx, err := c.chunk().StringConstant(c.interner, name)
	if err != nil {
		c.error(err.Error())
	}
	return idx
}

// --- function-compiler stack ---

func (c *Compiler) pushFuncCompiler(ft funcType, nameTok Token) {
	var name GCPtr[*String]
	if ft != funcTypeScript {
		name = c.interner.Get(nameTok.Lexeme)
	}

	fn := Make(c.heap, &Function{Name: name})
	fc := &funcCompiler{enclosing: c.fc, function: fn, funcType: ft}

	// Slot 0 is reserved for the callee (script/function) or `this`
	// (method/initializer); it can never be referenced by name at the
	// top level, hence the empty name for the function/script case.
	slot0 := local{depth: 0}
	if ft == funcTypeFunction || ft == funcTypeScript {
		slot0.name = ""
	} else {
		slot0.name = "this"
	}
	fc.locals = append(fc.locals, slot0)

	c.fc = fc
}

func (c *Compiler) endFuncCompiler(atTok Token) GCPtr[*Function] {
	c.previous = atTok
	c.emitReturn()
	fn := c.fc.function
	upvalues := c.fc.upvalues
	c.fc = c.fc.enclosing
	c.lastCompiledUpvalues = upvalues
	return fn
}

func (c *Compiler) addLocal(name Token) {
	if len(c.fc.locals) >= 256 {
		c.errorAt(name, "Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, local{name: name.Lexeme, depth: -1})
}

func (c *Compiler) declareVariable(name Token) {
	if c.fc.scopeDepth == 0 {
		return
	}
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		l := c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.errorAt(name, "Variable with this name already declared in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) byte {
	nameTok := c.consume(TokenIdentifier, errMsg)
	c.declareVariable(nameTok)
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(nameTok.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitByteOperand(OpDefineGlobal, global)
}

func resolveLocal(c *Compiler, fc *funcCompiler, name Token) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name.Lexeme {
			if fc.locals[i].depth == -1 {
				c.errorAt(name, "Cannot read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func addUpvalue(c *Compiler, fc *funcCompiler, index int, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, compilerUpvalue{index: index, isLocal: isLocal})
	fc.function.Get().UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}

func resolveUpvalue(c *Compiler, fc *funcCompiler, name Token) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := resolveLocal(c, fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, fc, local, true)
	}
	if up := resolveUpvalue(c, fc.enclosing, name); up != -1 {
		return addUpvalue(c, fc, up, false)
	}
	return -1
}

// --- scopes ---

func (c *Compiler) beginScope() { c.fc.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	for len(c.fc.locals) > 0 && c.fc.locals[len(c.fc.locals)-1].depth > c.fc.scopeDepth {
		if c.fc.locals[len(c.fc.locals)-1].isCaptured {
			c.emitSimple(OpCloseUpvalue)
		} else {
			c.emitSimple(OpPop)
		}
		c.fc.locals = c.fc.locals[:len(c.fc.locals)-1]
	}
}

// --- expressions ---

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) number(canAssign bool) {
	v, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(Number(v))
}

func (c *Compiler) string(canAssign bool) {
	lexeme := c.previous.Lexeme
	contents := lexeme[1 : len(lexeme)-1]
	c.emitConstant(ObjectOf(c.interner.Get(contents)))
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(TokenRightParen, "Expected ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case TokenBang:
		c.emitSimple(OpNot)
	case TokenMinus:
		c.emitSimple(OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)
	switch opType {
	case TokenBangEqual:
		c.emitSimple(OpEqual)
		c.emitSimple(OpNot)
	case TokenEqualEqual:
		c.emitSimple(OpEqual)
	case TokenGreater:
		c.emitSimple(OpGreater)
	case TokenGreaterEqual:
		c.emitSimple(OpLess)
		c.emitSimple(OpNot)
	case TokenLess:
		c.emitSimple(OpLess)
	case TokenLessEqual:
		c.emitSimple(OpGreater)
		c.emitSimple(OpNot)
	case TokenPlus:
		c.emitSimple(OpAdd)
	case TokenMinus:
		c.emitSimple(OpSubtract)
	case TokenStar:
		c.emitSimple(OpMultiply)
	case TokenSlash:
		c.emitSimple(OpDivide)
	}
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case TokenFalse:
		c.emitSimple(OpFalse)
	case TokenNil:
		c.emitSimple(OpNil)
	case TokenTrue:
		c.emitSimple(OpTrue)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitSimple(OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emitSimple(OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.check(TokenRightParen) {
		for {
			tok := c.current
			c.expression()
			if argCount == 255 {
				c.errorAt(tok, "Cannot have more than 255 arguments.")
			}
			argCount++
			if !c.match(TokenComma) {
				break
			}
		}
	}
	c.consume(TokenRightParen, "Expected ')' after arguments.")
	return byte(argCount)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitByteOperand(OpCall, argCount)
}

func (c *Compiler) dot(canAssign bool) {
	nameTok := c.consume(TokenIdentifier, "Expected property name after '.'.")
	name := c.identifierConstant(nameTok.Lexeme)

	switch {
	case canAssign && c.match(TokenEqual):
		c.expression()
		c.emitNamedConstant(OpSetProperty, name)
	case c.match(TokenLeftParen):
		argCount := c.argumentList()
		c.emitInvoke(OpInvoke, name, argCount)
	default:
		c.emitNamedConstant(OpGetProperty, name)
	}
}

func (c *Compiler) namedVariable(name Token, canAssign bool) {
	var getOp, setOp OpCode
	arg := resolveLocal(c, c.fc, name)
	if arg != -1 {
		getOp, setOp = OpGetLocal, OpSetLocal
	} else if arg = resolveUpvalue(c, c.fc, name); arg != -1 {
		getOp, setOp = OpGetUpvalue, OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name.Lexeme))
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && c.match(TokenEqual) {
		c.expression()
		c.emitByteOperand(setOp, byte(arg))
	} else {
		c.emitByteOperand(getOp, byte(arg))
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.previous, canAssign) }

func syntheticToken(text string) Token { return Token{Type: TokenIdentifier, Lexeme: text} }

func (c *Compiler) super_(canAssign bool) {
	if c.cc == nil {
		c.error("Cannot use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.error("Cannot use 'super' in a class with no superclass.")
	}

	c.consume(TokenDot, "Expected '.' after 'super'.")
	nameTok := c.consume(TokenIdentifier, "Expected superclass method name.")
	name := c.identifierConstant(nameTok.Lexeme)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitInvoke(OpSuperInvoke, name, argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitNamedConstant(OpGetSuper, name)
	}
}

func (c *Compiler) this_(canAssign bool) {
	if c.cc == nil {
		c.error("Cannot use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

// --- statements ---

func (c *Compiler) declaration() {
	// savedFc/savedCc are restored on panic recovery: a panic raised
	// while a nested function/class compiler is pushed (e.g. a bad
	// function signature) would otherwise leave c.fc/c.cc pointing at an
	// abandoned frame that never reached endFuncCompiler.
	savedFc, savedCc := c.fc, c.cc

	defer func() {
		if r := recover(); r != nil {
			cp, ok := r.(compilePanic)
			if !ok {
				panic(r)
			}
			c.fc, c.cc = savedFc, savedCc
			c.panicMode = true
			c.errors = append(c.errors, cp.err)
			c.synchronize()
		}
	}()

	switch {
	case c.match(TokenClass):
		c.classDeclaration()
	case c.match(TokenFun):
		c.funDeclaration()
	case c.match(TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
}

func (c *Compiler) statement() {
	tok := c.current
	switch {
	case c.match(TokenPrint):
		c.printStatement()
	case c.match(TokenFor):
		c.forStatement()
	case c.match(TokenIf):
		c.ifStatement()
	case c.match(TokenReturn):
		c.returnStatement(tok)
	case c.match(TokenWhile):
		c.whileStatement()
	case c.match(TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(TokenRightBrace) && !c.check(TokenEOF) {
		c.declaration()
	}
	c.consume(TokenRightBrace, "Expected '}' after block.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after expression.")
	c.emitSimple(OpPop)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expected ';' after value.")
	c.emitSimple(OpPrint)
}

func (c *Compiler) returnStatement(tok Token) {
	if c.fc.funcType == funcTypeScript {
		c.errorAt(tok, "Cannot return from top-level code.")
	}
	if c.match(TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.fc.funcType == funcTypeInitializer {
		c.errorAt(tok, "Cannot return a value from an initializer.")
	}
	c.expression()
	c.consume(TokenSemicolon, "Expected ';' after return value.")
	c.emitSimple(OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(TokenLeftParen, "Expected '(' after 'if'.")
	c.expression()
	c.consume(TokenRightParen, "Expected ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitSimple(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitSimple(OpPop)

	if c.match(TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Len()

	c.consume(TokenLeftParen, "Expected '(' after 'while'.")
	c.expression()
	c.consume(TokenRightParen, "Expected ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitSimple(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitSimple(OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(TokenLeftParen, "Expected '(' after 'for'.")

	switch {
	case c.match(TokenSemicolon):
		// no initializer
	case c.match(TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Len()

	exitJump := -1
	var exitPatch JumpPatch
	if !c.match(TokenSemicolon) {
		c.expression()
		c.consume(TokenSemicolon, "Expected ';' after loop condition.")
		exitPatch = c.emitJump(OpJumpIfFalse)
		exitJump = 0
		c.emitSimple(OpPop)
	}

	if !c.match(TokenRightParen) {
		bodyJump := c.emitJump(OpJump)
		incrementStart := c.chunk().Len()
		c.expression()
		c.emitSimple(OpPop)
		c.consume(TokenRightParen, "Expected ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitPatch)
		c.emitSimple(OpPop)
	}

	c.endScope()
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(TokenEqual) {
		c.expression()
	} else {
		c.emitSimple(OpNil)
	}
	c.consume(TokenSemicolon, "Expected ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) function(ft funcType, nameTok Token) {
	c.pushFuncCompiler(ft, nameTok)
	c.beginScope()

	c.consume(TokenLeftParen, "Expected '(' after function name.")
	if !c.check(TokenRightParen) {
		for {
			fn := c.fc.function.Get()
			fn.Arity++
			if fn.Arity > 255 {
				c.errorAt(c.current, "Cannot have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(TokenComma) {
				break
			}
		}
	}
	c.consume(TokenRightParen, "Expected ')' after parameters.")

	c.consume(TokenLeftBrace, "Expected '{' before function body.")
	c.block()

	fn := c.endFuncCompiler(c.previous)
	upvalues := c.lastCompiledUpvalues

	idx, err := c.chunk().addConstant(ObjectOf(fn))
	if err != nil {
		c.error(err.Error())
	}
	c.chunk().EmitClosure(byte(idx), upvalues, c.previous)
}

func (c *Compiler) funDeclaration() {
	nameTok := c.current
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(funcTypeFunction, nameTok)
	c.defineVariable(global)
}

func (c *Compiler) method() {
	nameTok := c.consume(TokenIdentifier, "Expected method name.")
	constant := c.identifierConstant(nameTok.Lexeme)

	ft := funcTypeMethod
	if nameTok.Lexeme == "init" {
		ft = funcTypeInitializer
	}
	c.function(ft, nameTok)
	c.emitNamedConstant(OpMethod, constant)
}

func (c *Compiler) classDeclaration() {
	className := c.consume(TokenIdentifier, "Expected class name.")
	nameConstant := c.identifierConstant(className.Lexeme)
	c.declareVariable(className)

	c.emitNamedConstant(OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: c.cc, name: className}
	c.cc = cc

	if c.match(TokenLess) {
		superclassTok := c.consume(TokenIdentifier, "Expected superclass name.")
		c.namedVariable(superclassTok, false)

		if superclassTok.Lexeme == className.Lexeme {
			c.errorAt(superclassTok, "A class cannot inherit from itself.")
		}

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitSimple(OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(TokenLeftBrace, "Expected '{' before class body.")
	for !c.check(TokenRightBrace) && !c.check(TokenEOF) {
		c.method()
	}
	c.consume(TokenRightBrace, "Expected '}' after class body.")
	c.emitSimple(OpPop)

	if cc.hasSuperclass {
		c.endScope()
	}

	c.cc = c.cc.enclosing
}
