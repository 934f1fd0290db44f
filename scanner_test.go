package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(source string) []Token {
	s := NewScanner(source)
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func TestScannerPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){},.-+;/*! != = == < <= > >=")
	types := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenComma, TokenDot, TokenMinus, TokenPlus, TokenSemicolon,
		TokenSlash, TokenStar, TokenBang, TokenBangEqual, TokenEqual,
		TokenEqualEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual,
		TokenEOF,
	}, types)
}

func TestScannerKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("class fun foo")
	require.Len(t, toks, 4)
	assert.Equal(t, TokenClass, toks[0].Type)
	assert.Equal(t, TokenFun, toks[1].Type)
	assert.Equal(t, TokenIdentifier, toks[2].Type)
	assert.Equal(t, "foo", toks[2].Lexeme)
}

func TestScannerNumbers(t *testing.T) {
	toks := scanAll("123 4.56 7.")
	require.Len(t, toks, 4)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "4.56", toks[1].Lexeme)
	// trailing dot not followed by a digit is not part of the number
	assert.Equal(t, "7", toks[2].Lexeme)
	assert.Equal(t, TokenDot, toks[3].Type)
}

func TestScannerStringsAndLineTracking(t *testing.T) {
	toks := scanAll("\"hello\"\n\"world\"")
	require.Len(t, toks, 3)
	assert.Equal(t, `"hello"`, toks[0].Lexeme)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, `"world"`, toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScannerUnterminatedString(t *testing.T) {
	toks := scanAll(`"unterminated`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokenError, toks[0].Type)
}

func TestScannerCommentsAreSkipped(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScannerExhaustedScannerKeepsReturningEOF(t *testing.T) {
	s := NewScanner("")
	first := s.Next()
	second := s.Next()
	assert.Equal(t, TokenEOF, first.Type)
	assert.Equal(t, TokenEOF, second.Type)
}
