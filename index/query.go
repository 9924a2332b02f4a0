package index

import (
	"fmt"
	"log"
	"time"

	"github.com/gitpan/OurNet-FuzzyIndex/parser"
	"github.com/gitpan/OurNet-FuzzyIndex/posting"
)

// Mode selects a query evaluator combinator.
type Mode int

const (
	// EXACT keeps only documents matching every query token seen so
	// far (conjunctive, monotone non-increasing across tokens).
	EXACT Mode = iota
	// FUZZY adds every match's score, ignoring documents that don't
	// match a given token.
	FUZZY
	// PART is FUZZY plus a small bonus for documents that already have
	// a score but miss a particular query token.
	PART
	// NOT removes documents that match any query token from prior.
	NOT
)

// String names a Mode for metrics labels and log lines.
func (m Mode) String() string {
	switch m {
	case EXACT:
		return "exact"
	case FUZZY:
		return "fuzzy"
	case PART:
		return "part"
	case NOT:
		return "not"
	default:
		return "unknown"
	}
}

// Query evaluates text (already assumed to be caller-prepared query
// text, sentinel appended if the caller wants one) against the engine's
// postings and returns a document score map. prior seeds the starting
// score map: for FUZZY/PART it is the running total to add onto, for
// EXACT it is the initial candidate set later tokens narrow, for NOT it
// is the set entries are deleted from. A nil prior starts from an empty
// map.
func (e *Engine) Query(text []byte, mode Mode, prior map[uint32]int) (map[uint32]int, error) {
	if e.metrics != nil {
		start := time.Now()
		defer func() { e.metrics.ObserveQuery(mode.String(), start) }()
	}

	tokens := parser.Tokens(text, true)
	records := posting.EncodeQueryForm(tokens, delim)

	score := make(map[uint32]int, len(prior))
	for k, v := range prior {
		score[k] = v
	}

	words := 0

tokenLoop:
	for _, rec := range records {
		s, skip := e.storeFor(rec.Key)
		if skip {
			continue
		}

		matched, ok, err := s.GetAll(rec.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: get %x: %v", ErrStoreIO, rec.Key, err)
		}
		if !ok {
			matched = nil
		}

		qv, err := posting.Decode(rec.Value, false)
		if err != nil {
			// Corrupt query-side value: skip this token per the
			// error-handling design (log-and-continue), never fail
			// the whole query.
			log.Printf("index: query: skipping corrupt query value for key %x: %v", rec.Key, err)
			continue
		}

		next := make(map[uint32]int)

		for _, t := range qv.Trip {
			vv := int(t.Freq)
			words += vv

			// priorCandidates is the score map's key set before this
			// token's own contribution: scenario 5's "every candidate
			// accumulated so far", snapshotted per token since score
			// keeps growing as later tokens are processed.
			var priorCandidates []uint32
			if mode == PART {
				priorCandidates = make([]uint32, 0, len(score))
				for id := range score {
					priorCandidates = append(priorCandidates, id)
				}
			}
			touched := make(map[uint32]bool)

			if posting.IsMarker(t.Trail) {
				wordcount := 0
				for _, m := range matched {
					wordcount += len(m)
				}
				for _, m := range matched {
					seq, err := posting.DocID(m)
					if err != nil {
						continue
					}
					touched[seq] = true
					scoreAdd := (len(m)*800/wordcount + 200) * vv
					applyScore(mode, score, next, seq, scoreAdd)
				}
			} else {
				wordcount := 0
				type hit struct {
					seq   uint32
					tf    int
					found bool
				}
				hits := make([]hit, 0, len(matched))
				for _, m := range matched {
					mv, err := posting.Decode(m, true)
					if err != nil {
						continue
					}
					h := hit{seq: mv.ID}
					for _, mt := range mv.Trip {
						if mt.Trail == t.Trail {
							h.found = true
							h.tf = int(mt.Freq)
							break
						}
					}
					if h.found {
						wordcount += h.tf
					}
					hits = append(hits, h)
				}
				for _, h := range hits {
					touched[h.seq] = true
					if h.found {
						scoreAdd := (h.tf*800/wordcount + 200) * vv
						applyScore(mode, score, next, h.seq, scoreAdd)
					} else if mode == PART {
						score[h.seq] += 50 / words
					}
				}
			}

			// A token that misses a candidate entirely — including the
			// whole-token-miss case where matched is empty and hits
			// never ran — still owes that candidate the PART bonus.
			if mode == PART {
				for _, id := range priorCandidates {
					if !touched[id] {
						score[id] += 50 / words
					}
				}
			}
		}

		if mode == EXACT {
			score = next
			if len(score) == 0 {
				break tokenLoop
			}
		}
	}

	if words > 1 {
		for id, v := range score {
			score[id] = v / words
		}
	}
	return score, nil
}

// applyScore applies one triple's match-present contribution to doc per
// mode; the PART match-absent bonus is applied directly by the caller
// since it needs the miss case too.
func applyScore(mode Mode, score, next map[uint32]int, doc uint32, scoreAdd int) {
	switch mode {
	case FUZZY, PART:
		score[doc] += scoreAdd
	case EXACT:
		if len(score) == 0 {
			next[doc] = scoreAdd
		} else if prior, ok := score[doc]; ok {
			next[doc] = scoreAdd + prior
		}
	case NOT:
		delete(score, doc)
	}
}
