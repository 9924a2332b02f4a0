// Package parser turns mixed Big5/Latin byte streams into the ordered
// token multiset the rest of the index is built on.
//
// The algorithm is a straight line scan translated from OurNet::FuzzyIndex's
// C extract_words(): no allocation-heavy tree walk, no callbacks into
// global state, just a function from bytes to an ordered slice of
// (token, frequency) pairs.
package parser

import "sort"

// MaxKey bounds the byte length of a Latin token (the C parser's MAXKEY).
const MaxKey = 32

// singleCharacterEnabled mirrors the reference build's
// PARSE_SINGLE_CHARACTER compile flag, left on in the reference design.
const singleCharacterEnabled = true

// TokenFreq is one entry of the parser's output: a token key and how many
// times it occurred in the input.
type TokenFreq struct {
	Token []byte
	Freq  int
}

// Tokens extracts the ordered token->frequency multiset from data.
//
// query selects query-time behavior: a lone Big5 character is not
// re-emitted as a single-character token when it already took part in a
// bigram, keeping query token counts from being inflated by characters
// that are already covered by a bigram match.
//
// Tokens is pure: its output depends only on data and query. Bytes after
// a 0x00 are never scanned, matching the reference parser's
// null-terminated-string convention; callers are not required to
// null-terminate their input, Tokens simply stops early if it finds one.
func Tokens(data []byte, query bool) []TokenFreq {
	counts := make(map[string]int)
	add := func(tok []byte) { counts[string(tok)]++ }

	n := len(data)
	p := 0
	for p < n && data[p] != 0 {
		switch b0 := data[p]; {
		case b0 > 0xA0:
			p = scanBig5(data, p, n, query, add)
		case isAlnum(b0):
			p = scanLatin(data, p, n, add)
		default:
			p++
		}
	}
	return sortedTokens(counts)
}

// wordAt reports whether data[i] starts a full Big5 character (its lead
// byte is > 0xA3), guarding against reading past the buffer or a
// trailing byte the pair would need but doesn't have.
func wordAt(data []byte, i, n int) bool {
	return i >= 0 && i+1 < n && data[i] != 0 && data[i] > 0xA3
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// scanBig5 processes one Big5 lead-byte candidate at p (data[p] > 0xA0),
// emitting rolling bigrams and/or a single-character token, and returns
// the index to resume scanning from.
func scanBig5(data []byte, p, n int, query bool, add func([]byte)) int {
	lead := p
	p += 2
	if !wordAt(data, p, n) {
		// The next pair isn't itself a full Big5 character: the lead
		// pair stands alone, if it qualifies as one.
		if wordAt(data, lead, n) {
			add(singleToken(data, lead))
		}
		return p
	}

	if wordAt(data, lead, n) {
		add(bigram(data, lead))
	}
	for {
		p += 2
		if !wordAt(data, p, n) {
			break
		}
		add(bigram(data, p-2))
	}

	if singleCharacterEnabled {
		alreadyBigrammed := query && wordAt(data, p-4, n)
		if !alreadyBigrammed {
			add(singleToken(data, p-2))
		}
	}
	return p
}

// scanLatin scans an ASCII alphanumeric run starting at p, lowercasing it
// and truncating to MaxKey bytes, and returns the index just past it.
func scanLatin(data []byte, p, n int, add func([]byte)) int {
	start := p
	buf := make([]byte, 0, MaxKey)
	for p < n && isAlnum(data[p]) {
		c := data[p]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if len(buf) < MaxKey {
			buf = append(buf, c)
		}
		p++
	}
	if p-start >= 2 {
		add(buf)
	}
	return p
}

// bigram copies the 4-byte token formed by the two consecutive Big5 pairs
// starting at i.
func bigram(data []byte, i int) []byte {
	out := make([]byte, 4)
	copy(out, data[i:i+4])
	return out
}

// singleToken copies the pair at i and pads it into the 4-byte
// single-character token shape (trailing 0x21 0x21).
func singleToken(data []byte, i int) []byte {
	out := [4]byte{data[i], data[i+1], 0x21, 0x21}
	return out[:]
}

func sortedTokens(counts map[string]int) []TokenFreq {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]TokenFreq, len(keys))
	for i, k := range keys {
		out[i] = TokenFreq{Token: []byte(k), Freq: counts[k]}
	}
	return out
}

// IsBig5Bigram reports whether tok has the 4-byte Big5-bigram shape:
// both pairs have a lead byte >= 0xA4.
func IsBig5Bigram(tok []byte) bool {
	return len(tok) == 4 && tok[0] >= 0xA4 && tok[2] >= 0xA4
}

// IsSingleChar reports whether tok is a single-character padded token
// (a Big5 pair followed by the 0x21 0x21 sentinel).
func IsSingleChar(tok []byte) bool {
	return len(tok) == 4 && tok[0] >= 0xA4 && tok[2] == 0x21 && tok[3] == 0x21
}

// IsLatin reports whether tok is a lowercase ASCII alphanumeric run.
func IsLatin(tok []byte) bool {
	if len(tok) < 2 || len(tok) > MaxKey {
		return false
	}
	for _, c := range tok {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
