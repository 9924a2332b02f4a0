package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tf(tokens []TokenFreq) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[string(t.Token)] = t.Freq
	}
	return out
}

func TestTokensLatinWord(t *testing.T) {
	toks := Tokens([]byte("Hello World"), false)
	m := tf(toks)
	require.Contains(t, m, "hello")
	require.Contains(t, m, "world")
	assert.Equal(t, 1, m["hello"])
}

func TestTokensLatinTooShortDropped(t *testing.T) {
	toks := Tokens([]byte("a b cd"), false)
	m := tf(toks)
	assert.NotContains(t, m, "a")
	assert.NotContains(t, m, "b")
	assert.Contains(t, m, "cd")
}

func TestTokensLatinTruncatesAtMaxKey(t *testing.T) {
	long := make([]byte, 0, 40)
	for i := 0; i < 40; i++ {
		long = append(long, 'x')
	}
	toks := Tokens(long, false)
	require.Len(t, toks, 1)
	assert.Len(t, toks[0].Token, MaxKey)
}

func TestTokensBig5ThreeCharRun(t *testing.T) {
	// Three consecutive Big5 pairs: two overlapping bigrams plus the
	// trailing single character, per the reference algorithm's rolling
	// window plus end-of-run epilogue.
	data := []byte{0xA4, 0xA4, 0xA4, 0xE5, 0xB5, 0xD8}
	toks := Tokens(data, false)
	m := tf(toks)

	assert.Equal(t, 1, m[string([]byte{0xA4, 0xA4, 0xA4, 0xE5})])
	assert.Equal(t, 1, m[string([]byte{0xA4, 0xE5, 0xB5, 0xD8})])
	assert.Equal(t, 1, m[string([]byte{0xB5, 0xD8, 0x21, 0x21})])
	assert.NotContains(t, m, string([]byte{0xA4, 0xA4, 0x21, 0x21}))
}

func TestTokensBig5LoneCharacter(t *testing.T) {
	data := []byte{0xA4, 0xA4}
	toks := Tokens(data, false)
	m := tf(toks)
	require.Len(t, m, 1)
	assert.Equal(t, 1, m[string([]byte{0xA4, 0xA4, 0x21, 0x21})])
}

func TestTokensQueryModeSuppressesTrailingSingle(t *testing.T) {
	data := []byte{0xA4, 0xA4, 0xA4, 0xE5}
	full := tf(Tokens(data, false))
	q := tf(Tokens(data, true))
	assert.Contains(t, full, string([]byte{0xA4, 0xE5, 0x21, 0x21}))
	assert.NotContains(t, q, string([]byte{0xA4, 0xE5, 0x21, 0x21}))
}

func TestTokensStopsAtNul(t *testing.T) {
	data := []byte{'a', 'b', 0, 'c', 'd'}
	m := tf(Tokens(data, false))
	assert.NotContains(t, m, "cd")
}

func TestIsLatinAndIsBig5Predicates(t *testing.T) {
	assert.True(t, IsLatin([]byte("golang")))
	assert.False(t, IsLatin([]byte("Golang")))
	assert.True(t, IsBig5Bigram([]byte{0xA4, 0xA4, 0xA4, 0xE5}))
	assert.True(t, IsSingleChar([]byte{0xA4, 0xA4, 0x21, 0x21}))
	assert.False(t, IsSingleChar([]byte{0xA4, 0xA4, 0xA4, 0xE5}))
}
