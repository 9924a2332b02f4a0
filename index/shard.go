package index

import "github.com/gitpan/OurNet-FuzzyIndex/store"

// Router splits postings across subcount side stores by a token key's
// second byte, restricting activity to the opened [submin, submax]
// residues. When submax >= subcount, routing is disabled entirely
// rather than computed against a zero modulus — the reference
// implementation's "submod" footgun made explicit here.
type Router struct {
	subcount int
	submin   int
	submax   int
	enabled  bool
	shards   map[int]store.Store
}

// NewRouter builds a Router description without opening any shard
// stores; call Attach to wire in opened stores for [submin, submax].
func NewRouter(subcount, submin, submax int) *Router {
	enabled := subcount > 0 && submin >= 0 && submax >= submin && submax < subcount
	return &Router{
		subcount: subcount,
		submin:   submin,
		submax:   submax,
		enabled:  enabled,
		shards:   make(map[int]store.Store),
	}
}

// Enabled reports whether routing is active. A disabled router sends
// every token through the primary store.
func (r *Router) Enabled() bool { return r.enabled }

// SubCount returns the configured shard count (0 when routing was never
// configured).
func (r *Router) SubCount() int { return r.subcount }

// Attach registers an already-opened shard store for residue i. i must
// fall within [submin, submax].
func (r *Router) Attach(i int, s store.Store) {
	r.shards[i] = s
}

// Residue computes a token key's routing residue: its second byte modulo
// subcount. Callers must not call Residue on a disabled router.
func (r *Router) Residue(key []byte) int {
	if len(key) < 2 {
		return -1
	}
	return int(key[1]) % r.subcount
}

// InRange reports whether a residue falls within the opened shard range.
func (r *Router) InRange(residue int) bool {
	return residue >= r.submin && residue <= r.submax
}

// Route returns the shard store a token key should use and whether the
// key is in-range. When routing is disabled, Route always reports
// !ok — callers fall back to the primary store.
func (r *Router) Route(key []byte) (s store.Store, ok bool) {
	if !r.enabled {
		return nil, false
	}
	res := r.Residue(key)
	if !r.InRange(res) {
		return nil, false
	}
	s, has := r.shards[res]
	return s, has
}

// Shards returns every opened shard store, for sync/close fan-out.
func (r *Router) Shards() map[int]store.Store {
	return r.shards
}
