// Package index implements the disk-backed inverted-index engine: the
// posting insertion path, the multi-mode query evaluator, and the
// optional shard router that partitions postings by token key.
package index

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitpan/OurNet-FuzzyIndex/parser"
	"github.com/gitpan/OurNet-FuzzyIndex/posting"
	"github.com/gitpan/OurNet-FuzzyIndex/store"
)

// MetricsHook receives per-operation timing and outcome callbacks;
// metrics.Recorder satisfies it. A nil hook (the default) disables
// instrumentation entirely.
type MetricsHook interface {
	ObserveInsert(start time.Time, err error)
	ObserveQuery(mode string, start time.Time)
}

// shardDropCounter is an optional extension of MetricsHook; hooks that
// track dropped out-of-range shard writes (metrics.Recorder does) are
// detected with a type assertion so MetricsHook itself stays minimal.
type shardDropCounter interface {
	IncShardDrop()
}

// ActivityHook mirrors every insert/delete decision the engine makes
// into a secondary sink, independent of the primary store.
// pipeline.MySQLAuditSink satisfies this directly. A nil hook (the
// default) skips mirroring entirely.
type ActivityHook interface {
	RecordInsert(docID uint32, docKey string, at time.Time) error
	RecordDelete(docID uint32, docKey string, at time.Time) error
}

// ArchiveHook receives the raw pre-parse content behind every inserted
// document, separately from ActivityHook's audit trail.
// pipeline.MongoArchive satisfies it directly.
type ArchiveHook interface {
	Archive(docID uint32, docKey string, content []byte, recordedAt int64) error
}

const (
	metaIdxCount = "_idxcount"
	metaSubCount = "_subcount"
	metaDeleted  = "_deleted"
	docKeyLead   = 0x21 // "!"
	varPrefix    = "-"
)

// delim is the 4-byte seed value the engine prepends to every posting
// value ahead of its triples, per the reference's policy-free "    ".
var delim = [4]byte{' ', ' ', ' ', ' '}

// Options configures Engine construction. New records SubCount as
// _subcount when the primary store has none yet; SubMin and SubMax are
// not read by New. Whether routing is active is decided by the Router
// passed to New, not by these fields.
type Options struct {
	ReadOnly bool
	SubCount int
	SubMin   int
	SubMax   int
}

// Engine is the index engine: it owns a primary store plus, when
// routing is enabled, a set of shard stores, and drives insertion and
// query evaluation across them.
type Engine struct {
	mu       sync.Mutex
	primary  store.Store
	router   *Router
	readOnly bool
	idxcount uint32
	metrics  MetricsHook
	activity ActivityHook
	archiver ArchiveHook
}

// SetMetrics wires a MetricsHook (typically a *metrics.Recorder) into
// the engine; pass nil to disable instrumentation.
func (e *Engine) SetMetrics(h MetricsHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = h
}

// SetActivityHook wires an ActivityHook (typically a
// *pipeline.MySQLAuditSink) into the engine; pass nil to disable
// mirroring.
func (e *Engine) SetActivityHook(h ActivityHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activity = h
}

// SetArchiveHook wires an ArchiveHook (typically a
// *pipeline.MongoArchive) into the engine; pass nil to disable
// archiving.
func (e *Engine) SetArchiveHook(h ArchiveHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archiver = h
}

// New builds an Engine around an already-opened primary store and
// router. Shard stores, if any, must already be Attach-ed to router.
// New reads _idxcount, _subcount and _deleted from the primary store,
// initializing them when the store is freshly created and writable.
func New(primary store.Store, router *Router, opts Options) (*Engine, error) {
	if router == nil {
		router = NewRouter(0, 0, 0)
	}
	e := &Engine{primary: primary, router: router, readOnly: opts.ReadOnly}

	if raw, ok, err := primary.GetMeta([]byte(metaIdxCount)); err != nil {
		return nil, fmt.Errorf("%w: read _idxcount: %v", ErrStoreIO, err)
	} else if ok {
		e.idxcount = decodeUint32(raw)
	} else if !opts.ReadOnly {
		if err := primary.SetMeta([]byte(metaIdxCount), encodeUint32(0)); err != nil {
			return nil, fmt.Errorf("%w: init _idxcount: %v", ErrStoreIO, err)
		}
	}

	if _, ok, err := primary.GetMeta([]byte(metaSubCount)); err != nil {
		return nil, fmt.Errorf("%w: read _subcount: %v", ErrStoreIO, err)
	} else if !ok && !opts.ReadOnly {
		if err := primary.SetMeta([]byte(metaSubCount), encodeUint32(uint32(opts.SubCount))); err != nil {
			return nil, fmt.Errorf("%w: init _subcount: %v", ErrStoreIO, err)
		}
	}

	if _, ok, err := primary.GetMeta([]byte(metaDeleted)); err != nil {
		return nil, fmt.Errorf("%w: read _deleted: %v", ErrStoreIO, err)
	} else if !ok && !opts.ReadOnly {
		if err := primary.SetMeta([]byte(metaDeleted), nil); err != nil {
			return nil, fmt.Errorf("%w: init _deleted: %v", ErrStoreIO, err)
		}
	}

	return e, nil
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeUint32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func docKeyMetaKey(id uint32) []byte {
	k := make([]byte, 5)
	k[0] = docKeyLead
	binary.BigEndian.PutUint32(k[1:], id)
	return k
}

func varMetaKey(name string) []byte {
	return []byte(varPrefix + name)
}

// Insert parses data in document mode (query=false), packs the result
// into posting records, and writes each into the primary store or, when
// routing is enabled, the shard its key's second byte selects; keys
// outside the opened shard range are dropped. Insert then records the
// doc_key -> id mapping and advances _idxcount. It returns the assigned
// document id.
func (e *Engine) Insert(docKey string, data []byte) (uint32, error) {
	id, err := e.InsertTokens(docKey, parser.Tokens(data, false))
	if err != nil {
		return 0, err
	}
	if e.archiver != nil {
		if err := e.archiver.Archive(id, docKey, data, time.Now().Unix()); err != nil {
			return 0, fmt.Errorf("%w: archive insert: %v", ErrStoreIO, err)
		}
	}
	return id, nil
}

// InsertTokens is Insert for callers that already hold a parsed token
// map (spec §4.4's "content is either raw bytes OR a pre-parsed token
// map").
func (e *Engine) InsertTokens(docKey string, tokens []parser.TokenFreq) (id uint32, err error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.ObserveInsert(start, err)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return 0, ErrReadOnly
	}

	id = e.idxcount + 1
	records := posting.Encode(tokens, delim)

	for _, rec := range records {
		value := posting.PutID(id, rec.Value)
		target := e.primary
		if e.router.Enabled() {
			shard, ok := e.router.Route(rec.Key)
			if !ok {
				if d, ok := e.metrics.(shardDropCounter); ok {
					d.IncShardDrop()
				}
				continue
			}
			target = shard
		}
		if err := target.Put(rec.Key, value); err != nil {
			return 0, fmt.Errorf("%w: put %x: %v", ErrStoreIO, rec.Key, err)
		}
	}

	if err := e.primary.SetMeta(docKeyMetaKey(id), []byte(docKey)); err != nil {
		return 0, fmt.Errorf("%w: set doc key: %v", ErrStoreIO, err)
	}
	e.idxcount = id
	if err := e.primary.SetMeta([]byte(metaIdxCount), encodeUint32(id)); err != nil {
		return 0, fmt.Errorf("%w: set _idxcount: %v", ErrStoreIO, err)
	}
	if e.activity != nil {
		if err := e.activity.RecordInsert(id, docKey, start); err != nil {
			return 0, fmt.Errorf("%w: record insert: %v", ErrStoreIO, err)
		}
	}
	return id, nil
}

// GetKey returns the doc_key stored for id, if any.
func (e *Engine) GetKey(id uint32) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok, err := e.primary.GetMeta(docKeyMetaKey(id))
	if err != nil {
		return "", false, fmt.Errorf("%w: get doc key: %v", ErrStoreIO, err)
	}
	if !ok {
		return "", false, nil
	}
	return string(v), true, nil
}

// FindKey linearly scans the id space [1, idxcount] for a document whose
// stored key equals docKey, mirroring the reference's linear scan of
// `!`-keyed entries (here driven by the known id range rather than a
// raw keyspace cursor, since meta entries and posting entries share no
// common cursor format in this store).
func (e *Engine) FindKey(docKey string) (uint32, bool, error) {
	e.mu.Lock()
	idxcount := e.idxcount
	e.mu.Unlock()

	for id := uint32(1); id <= idxcount; id++ {
		got, ok, err := e.GetKey(id)
		if err != nil {
			return 0, false, err
		}
		if ok && got == docKey {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// Delete removes the doc_key -> id mapping for docKey and records the id
// as deleted. Postings are left untouched; callers that need to hide a
// deleted document's matches must filter query results themselves.
func (e *Engine) Delete(docKey string) error {
	id, ok, err := e.FindKey(docKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return e.DeleteID(id)
}

// DeleteID is Delete by document id.
func (e *Engine) DeleteID(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	raw, _, err := e.primary.GetMeta([]byte(metaDeleted))
	if err != nil {
		return fmt.Errorf("%w: read _deleted: %v", ErrStoreIO, err)
	}
	raw = append(raw, encodeUint32(id)...)
	if err := e.primary.SetMeta([]byte(metaDeleted), raw); err != nil {
		return fmt.Errorf("%w: write _deleted: %v", ErrStoreIO, err)
	}

	key, _, keyErr := e.primary.GetMeta(docKeyMetaKey(id))
	if keyErr != nil {
		return fmt.Errorf("%w: read doc key: %v", ErrStoreIO, keyErr)
	}
	if err := e.primary.Delete(docKeyMetaKey(id)); err != nil {
		return fmt.Errorf("%w: delete doc key: %v", ErrStoreIO, err)
	}
	if e.activity != nil {
		if err := e.activity.RecordDelete(id, string(key), time.Now()); err != nil {
			return fmt.Errorf("%w: record delete: %v", ErrStoreIO, err)
		}
	}
	return nil
}

// DeletedIDs returns every id recorded in the _deleted set.
func (e *Engine) DeletedIDs() ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	raw, _, err := e.primary.GetMeta([]byte(metaDeleted))
	if err != nil {
		return nil, fmt.Errorf("%w: read _deleted: %v", ErrStoreIO, err)
	}
	ids := make([]uint32, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		ids = append(ids, decodeUint32(raw[i:i+4]))
	}
	return ids, nil
}

// SetVar stores a named engine variable under its `-name` meta key.
func (e *Engine) SetVar(name string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	if err := e.primary.SetMeta(varMetaKey(name), value); err != nil {
		return fmt.Errorf("%w: set var %s: %v", ErrStoreIO, name, err)
	}
	return nil
}

// GetVar reads a named engine variable.
func (e *Engine) GetVar(name string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok, err := e.primary.GetMeta(varMetaKey(name))
	if err != nil {
		return nil, false, fmt.Errorf("%w: get var %s: %v", ErrStoreIO, name, err)
	}
	return v, ok, nil
}

// KeyEntry pairs a document id with its stored doc_key, for ListKeys.
type KeyEntry struct {
	ID  uint32
	Key string
}

// ListKeys returns every live doc_key, in ascending id order. Each entry
// carries its id; callers that only want keys can ignore the ID field.
func (e *Engine) ListKeys() ([]KeyEntry, error) {
	e.mu.Lock()
	idxcount := e.idxcount
	e.mu.Unlock()

	var out []KeyEntry
	for id := uint32(1); id <= idxcount; id++ {
		key, ok, err := e.GetKey(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, KeyEntry{ID: id, Key: key})
		}
	}
	return out, nil
}

// IDCount returns the current _idxcount value.
func (e *Engine) IDCount() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idxcount
}

// Sync flushes the primary store, then every opened shard store in
// parallel — sync is per-file I/O with no cross-shard dependency, so
// fanning it out shortens wall-clock time on a wide shard range while
// the method itself still presents the sequential API spec §5 requires.
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.primary.Sync(); err != nil {
		return fmt.Errorf("%w: sync primary: %v", ErrStoreIO, err)
	}
	var g errgroup.Group
	for i, s := range e.router.Shards() {
		i, s := i, s
		g.Go(func() error {
			if err := s.Sync(); err != nil {
				return fmt.Errorf("%w: sync shard %d: %v", ErrStoreIO, i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close syncs and closes the primary store, then every opened shard
// store in parallel.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.primary.Sync()
	if err := e.primary.Close(); err != nil {
		return fmt.Errorf("%w: close primary: %v", ErrStoreIO, err)
	}
	var g errgroup.Group
	for i, s := range e.router.Shards() {
		i, s := i, s
		g.Go(func() error {
			_ = s.Sync()
			if err := s.Close(); err != nil {
				return fmt.Errorf("%w: close shard %d: %v", ErrStoreIO, i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// storeFor returns the store a token key routes to: a shard when
// routing is enabled and the key is in range, the primary store
// otherwise, and reports whether the key should be skipped entirely
// (out-of-range under active routing).
func (e *Engine) storeFor(key []byte) (s store.Store, skip bool) {
	if !e.router.Enabled() {
		return e.primary, false
	}
	shard, ok := e.router.Route(key)
	if !ok {
		return nil, true
	}
	return shard, false
}
