package index

import (
	"fmt"

	"github.com/gitpan/OurNet-FuzzyIndex/config"
	"github.com/gitpan/OurNet-FuzzyIndex/store"
)

// Open builds an Engine from an EngineConfig: it opens the primary store
// at cfg.Path and, when shard routing is configured, the shard stores
// cfg.Path+".0" .. cfg.Path+"."+N named after the residue they hold, for
// every residue in [cfg.SubMin, cfg.SubMax] — spec §4.5's "only shards in
// [submin, submax] are opened". PageSize is passed through to every store
// opened this way; CacheSize is divided evenly between the primary and
// the opened shards. Callers that already hold opened stores (tests,
// mainly) should use New directly instead.
func Open(cfg config.EngineConfig) (*Engine, error) {
	router := NewRouter(cfg.SubCount, cfg.SubMin, cfg.SubMax)
	cacheSize := cfg.CacheSize
	if router.Enabled() {
		cacheSize = cfg.CacheSize / (cfg.SubMax - cfg.SubMin + 2)
	}

	primary, err := store.Open(cfg.Path, cfg.ReadOnly, cfg.PageSize, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("index: open primary %s: %w", cfg.Path, err)
	}

	if router.Enabled() {
		for i := cfg.SubMin; i <= cfg.SubMax; i++ {
			shardPath := fmt.Sprintf("%s.%d", cfg.Path, i)
			shard, err := store.Open(shardPath, cfg.ReadOnly, cfg.PageSize, cacheSize)
			if err != nil {
				closeAll(primary, router)
				return nil, fmt.Errorf("index: open shard %s: %w", shardPath, err)
			}
			router.Attach(i, shard)
		}
	}

	e, err := New(primary, router, Options{
		ReadOnly: cfg.ReadOnly,
		SubCount: cfg.SubCount,
		SubMin:   cfg.SubMin,
		SubMax:   cfg.SubMax,
	})
	if err != nil {
		closeAll(primary, router)
		return nil, err
	}
	return e, nil
}

// closeAll releases the primary store and every shard already attached
// to router, best-effort, when Open fails partway through.
func closeAll(primary store.Store, router *Router) {
	_ = primary.Close()
	for _, s := range router.Shards() {
		_ = s.Close()
	}
}
