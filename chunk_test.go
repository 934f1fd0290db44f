package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmitSimpleAndByteOperand(t *testing.T) {
	var c Chunk
	tok := Token{Line: 1}
	c.EmitSimple(OpNil, tok)
	c.EmitByteOperand(OpGetLocal, 3, tok)

	assert.Equal(t, []byte{byte(OpNil), byte(OpGetLocal), 3}, c.Code())
}

func TestChunkEmitConstant(t *testing.T) {
	var c Chunk
	tok := Token{Line: 1}
	require.NoError(t, c.EmitConstant(Number(42), tok))
	assert.Equal(t, []byte{byte(OpConstant), 0}, c.Code())
	assert.Equal(t, Number(42), c.Constants()[0])
}

func TestChunkTooManyConstants(t *testing.T) {
	var c Chunk
	tok := Token{Line: 1}
	for i := 0; i < 256; i++ {
		require.NoError(t, c.EmitConstant(Number(float64(i)), tok))
	}
	assert.ErrorIs(t, c.EmitConstant(Number(999), tok), errTooManyConstants)
}

func TestChunkJumpPatch(t *testing.T) {
	var c Chunk
	tok := Token{Line: 1}
	patch := c.EmitJump(OpJumpIfFalse, tok)
	c.EmitSimple(OpPop, tok)
	c.EmitSimple(OpPop, tok)
	require.NoError(t, patch.PatchJump(&c))

	delta := int(c.Code()[1])<<8 | int(c.Code()[2])
	assert.Equal(t, 2, delta)
}

func TestChunkEmitLoop(t *testing.T) {
	var c Chunk
	tok := Token{Line: 1}
	loopStart := c.Len()
	c.EmitSimple(OpPop, tok)
	require.NoError(t, c.EmitLoop(loopStart, tok))

	delta := int(c.Code()[2])<<8 | int(c.Code()[3])
	assert.Equal(t, 4, delta)
}

func TestChunkStringConstantDeduplicates(t *testing.T) {
	h := NewHeap()
	in := NewInterner(h)
	defer in.Close()

	var c Chunk
	idx1, err := c.StringConstant(in, "name")
	require.NoError(t, err)
	idx2, err := c.StringConstant(in, "name")
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)
	assert.Len(t, c.Constants(), 1)
}

func TestChunkSourceMapTracksEveryByte(t *testing.T) {
	var c Chunk
	c.EmitByteOperand(OpGetLocal, 1, Token{Line: 5})
	assert.Equal(t, 5, c.TokenAt(0).Line)
	assert.Equal(t, 5, c.TokenAt(1).Line)
}
