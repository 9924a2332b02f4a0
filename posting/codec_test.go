package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpan/OurNet-FuzzyIndex/parser"
)

func TestEncodeGroupsByLeadingPair(t *testing.T) {
	tokens := []parser.TokenFreq{
		{Token: []byte{0xA4, 0xA4, 0xA4, 0xE5}, Freq: 2},
		{Token: []byte{0xA4, 0xA4, 0x21, 0x21}, Freq: 1},
		{Token: []byte("golang"), Freq: 3},
	}
	delim := [4]byte{1, 2, 3, 4}
	recs := Encode(tokens, delim)
	require.Len(t, recs, 2)

	assert.Equal(t, []byte{0xA4, 0xA4}, recs[0].Key)
	assert.Equal(t, delim[:], recs[0].Value[0:4])
	assert.Equal(t, byte(0xA4), recs[0].Value[4])
	assert.Equal(t, byte(0xE5), recs[0].Value[5])
	assert.Equal(t, byte(2), recs[0].Value[6])
	assert.Equal(t, byte(0x21), recs[0].Value[7])
	assert.Equal(t, byte(0x21), recs[0].Value[8])
	assert.Equal(t, byte(1), recs[0].Value[9])

	assert.Equal(t, []byte("golang"), recs[1].Key)
	assert.Equal(t, LatinTrail[:], recs[1].Value[4:6])
	assert.Equal(t, byte(3), recs[1].Value[6])
}

func TestClampCapsFrequency(t *testing.T) {
	assert.Equal(t, byte(FreqCap), Clamp(9999))
	assert.Equal(t, byte(5), Clamp(5))
	assert.Equal(t, byte(0), Clamp(-1))
}

func TestDecodeRoundTripsWithID(t *testing.T) {
	tokens := []parser.TokenFreq{
		{Token: []byte{0xB0, 0xEA, 0xA4, 0xA4}, Freq: 1},
	}
	delim := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	recs := Encode(tokens, delim)
	require.Len(t, recs, 1)

	onDisk := PutID(42, recs[0].Value)
	v, err := Decode(onDisk, true)
	require.NoError(t, err)
	assert.True(t, v.HasID)
	assert.Equal(t, uint32(42), v.ID)
	assert.Equal(t, delim, v.Delim)
	require.Len(t, v.Trip, 1)
	assert.Equal(t, [2]byte{0xA4, 0xA4}, v.Trip[0].Trail)
	assert.Equal(t, byte(1), v.Trip[0].Freq)

	id, err := DocID(onDisk)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)
}

func TestDecodeQueryFormHasNoID(t *testing.T) {
	tokens := []parser.TokenFreq{
		{Token: []byte{0xB0, 0xEA, 0x21, 0x21}, Freq: 1},
	}
	delim := [4]byte{0, 0, 0, 0}
	recs := Encode(tokens, delim)
	v, err := Decode(recs[0].Value, false)
	require.NoError(t, err)
	assert.False(t, v.HasID)
	require.Len(t, v.Trip, 1)
	assert.True(t, IsMarker(v.Trip[0].Trail))
}

func TestDecodeRejectsCorruptValue(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, false)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decode([]byte{1, 2, 3, 4, 5}, false)
	assert.ErrorIs(t, err, ErrCorrupt)
}
