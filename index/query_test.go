package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpan/OurNet-FuzzyIndex/store"
)

func TestQueryFuzzyMissReturnsEmpty(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Insert("a", []byte("hello hello world"))
	require.NoError(t, err)

	scores, err := e.Query([]byte("missing"), FUZZY, nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestQueryFuzzyMatchIsPositive(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Insert("a", []byte("hello hello world"))
	require.NoError(t, err)

	scores, err := e.Query([]byte("hello"), FUZZY, nil)
	require.NoError(t, err)
	require.Contains(t, scores, id)
	assert.Greater(t, scores[id], 0)
}

func TestQueryNotWithEmptyPriorIsEmpty(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Insert("a", []byte("hello world"))
	require.NoError(t, err)

	scores, err := e.Query([]byte("hello"), NOT, nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestQueryNotDeletesFromPrior(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Insert("a", []byte("hello world"))
	require.NoError(t, err)

	prior := map[uint32]int{id: 500, 999: 10}
	scores, err := e.Query([]byte("hello"), NOT, prior)
	require.NoError(t, err)
	assert.NotContains(t, scores, id)
	assert.Contains(t, scores, uint32(999))
}

func TestQueryExactConjunctionNarrows(t *testing.T) {
	e := newTestEngine(t)
	id1, err := e.Insert("d1", []byte("alpha beta"))
	require.NoError(t, err)
	id2, err := e.Insert("d2", []byte("alpha gamma"))
	require.NoError(t, err)

	afterAlpha, err := e.Query([]byte("alpha"), EXACT, nil)
	require.NoError(t, err)
	assert.Contains(t, afterAlpha, id1)
	assert.Contains(t, afterAlpha, id2)

	afterBoth, err := e.Query([]byte("alpha beta"), EXACT, nil)
	require.NoError(t, err)
	assert.Contains(t, afterBoth, id1)
	assert.NotContains(t, afterBoth, id2)
}

func TestQueryExactShortCircuitsOnNoMatch(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Insert("d1", []byte("alpha beta"))
	require.NoError(t, err)

	scores, err := e.Query([]byte("alpha nomatch"), EXACT, nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestQueryPartBonusesNonMatches(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Insert("d1", []byte("alpha beta"))
	require.NoError(t, err)

	// "nomatchxx" shares no key at all with the document: "alpha"
	// matching seeds the candidate, then "nomatchxx" is a whole-token
	// miss that still owes it the PART bonus.
	scores, err := e.Query([]byte("alpha nomatchxx"), PART, nil)
	require.NoError(t, err)
	require.Contains(t, scores, id)
	assert.Greater(t, scores[id], 0)
}

// TestQueryPartWholeTokenMissBonusesAccumulatedCandidates exercises spec
// scenario 5: a query token with no match in any document still adds
// 50/words to every candidate already accumulated, not just the docs
// this token happened to touch.
func TestQueryPartWholeTokenMissBonusesAccumulatedCandidates(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Insert("d1", []byte("alpha beta"))
	require.NoError(t, err)

	afterAlpha, err := e.Query([]byte("alpha"), PART, nil)
	require.NoError(t, err)
	require.Contains(t, afterAlpha, id)
	beforeMiss := afterAlpha[id]

	afterMiss, err := e.Query([]byte("nomatchxx"), PART, afterAlpha)
	require.NoError(t, err)
	require.Contains(t, afterMiss, id)
	assert.Greater(t, afterMiss[id], beforeMiss, "a whole-token miss must still bonus a prior candidate")
}

func TestQueryPartBonusesSharedLeadingPairMiss(t *testing.T) {
	e := newTestEngine(t)
	// Doc bigram: leading pair A4A4, trailing pair A4E5.
	id, err := e.Insert("d1", []byte{0xA4, 0xA4, 0xA4, 0xE5})
	require.NoError(t, err)

	// Query bigram shares the leading pair A4A4 but a different
	// trailing pair (B0EA): the leading-pair key matches (matched is
	// non-empty) but the specific triple is absent, exercising the PART
	// miss bonus rather than a total store miss.
	scores, err := e.Query([]byte{0xA4, 0xA4, 0xB0, 0xEA}, PART, nil)
	require.NoError(t, err)
	require.Contains(t, scores, id)
	assert.Greater(t, scores[id], 0)
}

func TestQueryUsesShardWhenRoutingEnabled(t *testing.T) {
	primary := store.NewMemory()
	router := NewRouter(4, 1, 2)
	shards := map[int]store.Store{1: store.NewMemory(), 2: store.NewMemory()}
	for i, s := range shards {
		router.Attach(i, s)
	}
	e, err := New(primary, router, Options{})
	require.NoError(t, err)

	id, err := e.Insert("word", []byte("golang"))
	require.NoError(t, err)

	// "golang"[1] == 'o' == 0x6f; 0x6f % 4 == 3, out of [1,2]: dropped
	// entirely and unqueryable.
	scores, err := e.Query([]byte("golang"), FUZZY, nil)
	require.NoError(t, err)
	assert.NotContains(t, scores, id)

	// A word whose second byte routes into [1,2] round-trips.
	id2, err := e.Insert("word2", []byte("hi"))
	require.NoError(t, err)
	// "hi"[1] == 'i' == 0x69; 0x69 % 4 == 1, in range.
	scores2, err := e.Query([]byte("hi"), FUZZY, nil)
	require.NoError(t, err)
	assert.Contains(t, scores2, id2)
}

func TestRouterWraparoundDisablesRouting(t *testing.T) {
	r := NewRouter(4, 0, 4)
	assert.False(t, r.Enabled())
}

func TestRouterZeroSubcountDisabled(t *testing.T) {
	r := NewRouter(0, 0, 0)
	assert.False(t, r.Enabled())
}
