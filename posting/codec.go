// Package posting converts the parser's token multiset into the packed
// key/value records the store persists, and decodes those records back
// during query evaluation.
package posting

import (
	"errors"

	"github.com/gitpan/OurNet-FuzzyIndex/parser"
)

// FreqCap is the maximum frequency a triple can record; higher counts
// are clamped rather than overflowing the single frequency byte.
const FreqCap = 0xA3

// LatinTrail is the sentinel trailing pair recorded for Latin tokens,
// distinguishing them from a real Big5 trailing pair.
var LatinTrail = [2]byte{' ', ' '}

// SingleCharTrail is the trailing pair a padded single-character token
// carries; it doubles as the "leading-pair-only" marker the query
// evaluator looks for.
var SingleCharTrail = [2]byte{0x21, 0x21}

// ErrCorrupt is returned when a stored value is too short or its triple
// stream doesn't align to whole 3-byte groups.
var ErrCorrupt = errors.New("posting: corrupt value")

// Record is one packed key/value pair: a store key (a 2-byte Big5
// leading pair, or a Latin token) and the packed value ready for a Store
// put or, unprefixed by a document id, for in-process query matching.
type Record struct {
	Key   []byte
	Value []byte
}

// Clamp caps freq at FreqCap so it fits in one byte.
func Clamp(freq int) byte {
	if freq > FreqCap {
		return FreqCap
	}
	if freq < 0 {
		return 0
	}
	return byte(freq)
}

// Encode packs the parser's ordered token map into records: one per
// contiguous run of Big5 tokens (bigrams and single-character tokens
// alike) sharing a leading pair, and one per Latin token. delim is
// embedded verbatim at the front of every value; the caller (the index
// engine) prepends a document id ahead of it for on-disk postings, or
// leaves it off for an in-process query value.
//
// Encode assumes tokens is already in ascending bytewise order, which is
// what parser.Tokens produces; that ordering is what makes the
// leading-pair runs contiguous.
func Encode(tokens []parser.TokenFreq, delim [4]byte) []Record {
	var records []Record
	var lead []byte
	var buf []byte

	flush := func() {
		if lead != nil {
			records = append(records, Record{Key: lead, Value: buf})
			lead, buf = nil, nil
		}
	}

	for _, t := range tokens {
		if parser.IsLatin(t.Token) {
			flush()
			v := make([]byte, 0, 4+2+1)
			v = append(v, delim[:]...)
			v = append(v, LatinTrail[:]...)
			v = append(v, Clamp(t.Freq))
			records = append(records, Record{Key: append([]byte(nil), t.Token...), Value: v})
			continue
		}

		// Big5 bigram or single-character token: both are 4 bytes,
		// [lead(2)][trail(2)].
		tokLead := t.Token[0:2]
		trail := t.Token[2:4]
		if lead == nil || tokLead[0] != lead[0] || tokLead[1] != lead[1] {
			flush()
			lead = append([]byte(nil), tokLead...)
			buf = append([]byte(nil), delim[:]...)
		}
		buf = append(buf, trail[0], trail[1], Clamp(t.Freq))
	}
	flush()

	return records
}

// EncodeQueryForm is Encode under the name the query path uses: the same
// grouped record shape, consumed in-process instead of persisted.
func EncodeQueryForm(tokens []parser.TokenFreq, delim [4]byte) []Record {
	return Encode(tokens, delim)
}

// Triple is one trailing-pair/frequency unit inside a posting value.
type Triple struct {
	Trail [2]byte
	Freq  byte
}

// Value is a decoded posting value: an optional document id (present for
// on-disk postings, absent for in-process query values), the embedded
// delim, and the ordered triples that followed it.
type Value struct {
	HasID bool
	ID    uint32
	Delim [4]byte
	Trip  []Triple
}

// headerLen returns the byte offset triples start at: 8 for on-disk
// postings (4-byte id + 4-byte delim), 4 for query-side values (delim
// only, no id).
func headerLen(hasID bool) int {
	if hasID {
		return 8
	}
	return 4
}

// Decode splits a packed posting value into its id (if hasID), delim and
// triple stream. It returns ErrCorrupt if the value is shorter than its
// header or the trailing bytes don't form whole 3-byte triples.
func Decode(value []byte, hasID bool) (Value, error) {
	h := headerLen(hasID)
	if len(value) < h {
		return Value{}, ErrCorrupt
	}
	if (len(value)-h)%3 != 0 {
		return Value{}, ErrCorrupt
	}

	var v Value
	v.HasID = hasID
	off := 0
	if hasID {
		v.ID = uint32(value[0])<<24 | uint32(value[1])<<16 | uint32(value[2])<<8 | uint32(value[3])
		off = 4
	}
	copy(v.Delim[:], value[off:off+4])
	off += 4

	for off < len(value) {
		var t Triple
		t.Trail[0] = value[off]
		t.Trail[1] = value[off+1]
		t.Freq = value[off+2]
		v.Trip = append(v.Trip, t)
		off += 3
	}
	return v, nil
}

// DocID extracts just the 4-byte big-endian document id prefix from an
// on-disk posting value, matching the query evaluator's `seq = m[0..4]`
// step without needing a full Decode.
func DocID(value []byte) (uint32, error) {
	if len(value) < 4 {
		return 0, ErrCorrupt
	}
	return uint32(value[0])<<24 | uint32(value[1])<<16 | uint32(value[2])<<8 | uint32(value[3]), nil
}

// PutID prepends a 4-byte big-endian document id to a codec-produced
// value, turning a query-shaped record into the on-disk posting value
// the store persists.
func PutID(id uint32, value []byte) []byte {
	out := make([]byte, 4+len(value))
	out[0] = byte(id >> 24)
	out[1] = byte(id >> 16)
	out[2] = byte(id >> 8)
	out[3] = byte(id)
	copy(out[4:], value)
	return out
}

// IsMarker reports whether a triple's trailing pair is the
// single-character marker "!!" (0x21 0x21), which the query evaluator
// scores by total matched-value length rather than by term frequency.
func IsMarker(trail [2]byte) bool {
	return trail == SingleCharTrail
}

// IsLatinTriple reports whether a triple's trailing pair is the Latin
// sentinel "  ".
func IsLatinTriple(trail [2]byte) bool {
	return trail == LatinTrail
}
