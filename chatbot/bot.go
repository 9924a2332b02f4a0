// Package chatbot adapts the index engine into the conversational
// question/answer surface spec §6 describes: synonym substitution,
// avoid-list filtering, and a random fallback when nothing matches.
package chatbot

import (
	"math/rand"
	"regexp"
	"sort"

	"github.com/gitpan/OurNet-FuzzyIndex/index"
)

// sentinel is the two-byte marker the adapter appends to query text
// before handing it to the engine, per spec §6, guaranteeing a
// terminating token that stabilizes the final group boundary.
var sentinel = []byte{0xA4, 0x3F}

// Synonym is one caller-configured regex substitution applied to input
// text before it's indexed or queried.
type Synonym struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Bot is the chatbot adapter: it consumes an index.Engine only through
// Insert/Query/GetKey/IDCount.
type Bot struct {
	engine    *index.Engine
	synonyms  []Synonym
	fallbacks []string
	rng       *rand.Rand
}

// Open wraps an already-constructed engine as a Bot. Open takes no
// writable flag of its own: AddEntry on a Bot whose engine is read-only
// returns index.ErrReadOnly from the engine itself.
func Open(engine *index.Engine, fallbacks []string, synonyms []Synonym, rng *rand.Rand) *Bot {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Bot{engine: engine, synonyms: synonyms, fallbacks: fallbacks, rng: rng}
}

func (b *Bot) substitute(text string) string {
	for _, s := range b.synonyms {
		text = s.Pattern.ReplaceAllString(text, s.Replacement)
	}
	return text
}

// scoredKey pairs a candidate document id with its query score, for
// descending sort before avoid-set filtering.
type scoredKey struct {
	id    uint32
	score int
}

// Input applies synonym substitution to say, queries the engine in PART
// mode with the reference sentinel appended, and returns the first
// doc_key (by descending score) whose id is not in avoid. Input never
// returns an error: an empty match set or a query failure both fall
// back to a uniform-random pick from the configured fallback list.
func (b *Bot) Input(say string, avoid map[uint32]bool) string {
	text := append([]byte(b.substitute(say)), sentinel...)

	scores, err := b.engine.Query(text, index.PART, nil)
	if err != nil || len(scores) == 0 {
		return b.randomFallback()
	}

	ranked := make([]scoredKey, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, scoredKey{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	for _, r := range ranked {
		if avoid[r.id] {
			continue
		}
		key, ok, err := b.engine.GetKey(r.id)
		if err != nil || !ok {
			continue
		}
		return key
	}
	return b.randomFallback()
}

func (b *Bot) randomFallback() string {
	if len(b.fallbacks) == 0 {
		return ""
	}
	return b.fallbacks[b.rng.Intn(len(b.fallbacks))]
}

// NextOne reproduces the original adapter's nextone lookup: instead of
// returning the doc_key for the matched id, it wraps the id around the
// current document count and returns the key one past it. This is kept
// deliberately, not fixed, because callers built against the original
// depend on the wraparound quirk rather than the matched document.
func (b *Bot) NextOne(say string, avoid map[uint32]bool) string {
	text := append([]byte(b.substitute(say)), sentinel...)

	scores, err := b.engine.Query(text, index.PART, nil)
	if err != nil || len(scores) == 0 {
		return b.randomFallback()
	}

	ranked := make([]scoredKey, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, scoredKey{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	count := b.engine.IDCount()
	if count == 0 {
		return b.randomFallback()
	}

	for _, r := range ranked {
		if avoid[r.id] {
			continue
		}
		wrapped := (r.id % count) + 1
		key, ok, err := b.engine.GetKey(wrapped)
		if err != nil || !ok {
			continue
		}
		return key
	}
	return b.randomFallback()
}

// AddEntry inserts content as a doc_key, indexing trigger (or content
// itself when trigger is empty) as the searchable text.
func (b *Bot) AddEntry(content string, trigger string) (uint32, error) {
	indexed := trigger
	if indexed == "" {
		indexed = content
	}
	return b.engine.Insert(content, []byte(b.substitute(indexed)))
}
