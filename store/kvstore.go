package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cznic/kv"
)

var _ Store = (*KVStore)(nil)

// KVStore is a Store backed by github.com/cznic/kv, the ordered on-disk
// B-tree the reference `pipeline/kvdb.go` opens with kv.Open/kv.Create.
// cznic/kv has no notion of duplicate keys, so duplicate Put calls for
// one key are folded into a single physical record: each value is
// appended as a 4-byte big-endian length prefix followed by its payload,
// and reads split that blob back into the original sequence.
type KVStore struct {
	db       *kv.DB
	readOnly bool
	cache    *readCache
}

// Open opens (or creates, when readOnly is false and the file doesn't
// yet exist) the kv-backed store at path, following the
// OpenOrCreateKv pattern from the reference pipeline. cznic/kv's
// on-disk allocator exposes no page/cache tuning of its own, so
// pageSize and cacheSize (spec §4.3/§4.4's per-store tuning knobs) are
// applied at this layer instead, as a bounded read cache in front of
// GetAll: cacheSize caps the bytes it holds, pageSize sizes its entry
// count the way a page-oriented buffer pool would. A cacheSize of zero
// disables the cache and every read goes straight to the db; a pageSize
// of zero falls back to 4096 bytes.
func Open(path string, readOnly bool, pageSize, cacheSize int) (*KVStore, error) {
	opts := &kv.Options{}
	cache := newReadCache(pageSize, cacheSize)
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		db, err := kv.Open(path, opts)
		if err != nil {
			return nil, fmt.Errorf("store: open %s: %w", path, err)
		}
		return &KVStore{db: db, readOnly: true, cache: cache}, nil
	}

	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, fmt.Errorf("store: create %s: %w", path, err)
		}
	}
	return &KVStore{db: db, cache: cache}, nil
}

func encodeFrame(existing, value []byte) []byte {
	frame := make([]byte, 4+len(value))
	binary.BigEndian.PutUint32(frame, uint32(len(value)))
	copy(frame[4:], value)
	return append(existing, frame...)
}

func decodeFrames(raw []byte) [][]byte {
	var out [][]byte
	off := 0
	for off+4 <= len(raw) {
		n := int(binary.BigEndian.Uint32(raw[off : off+4]))
		off += 4
		if n < 0 || off+n > len(raw) {
			break
		}
		out = append(out, raw[off:off+n])
		off += n
	}
	return out
}

func (s *KVStore) ReadOnly() bool { return s.readOnly }

func (s *KVStore) Get(key []byte) ([]byte, bool, error) {
	vals, ok, err := s.GetAll(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return vals[0], true, nil
}

func (s *KVStore) GetAll(key []byte) ([][]byte, bool, error) {
	if vals, ok := s.cache.get(key); ok {
		return vals, true, nil
	}
	raw, err := s.db.Get(nil, key)
	if err != nil {
		return nil, false, fmt.Errorf("store: get %x: %w", key, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	vals := decodeFrames(raw)
	if len(vals) == 0 {
		return nil, false, nil
	}
	s.cache.put(key, vals)
	return vals, true, nil
}

func (s *KVStore) Put(key, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	raw, err := s.db.Get(nil, key)
	if err != nil {
		return fmt.Errorf("store: get %x: %w", key, err)
	}
	raw = encodeFrame(raw, value)
	if err := s.db.Set(key, raw); err != nil {
		return fmt.Errorf("store: set %x: %w", key, err)
	}
	s.cache.invalidate(key)
	return nil
}

func (s *KVStore) SetMeta(key, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.db.Set(key, value); err != nil {
		return fmt.Errorf("store: set meta %x: %w", key, err)
	}
	return nil
}

func (s *KVStore) GetMeta(key []byte) ([]byte, bool, error) {
	raw, err := s.db.Get(nil, key)
	if err != nil {
		return nil, false, fmt.Errorf("store: get meta %x: %w", key, err)
	}
	return raw, raw != nil, nil
}

func (s *KVStore) Delete(key []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.db.Delete(key); err != nil {
		return fmt.Errorf("store: delete %x: %w", key, err)
	}
	s.cache.invalidate(key)
	return nil
}

// Sync is a no-op: cznic/kv commits each Set/Delete through its
// underlying lldb allocator without exposing a separate flush call, so
// there is nothing further to force to disk here.
func (s *KVStore) Sync() error { return nil }

func (s *KVStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// kvCursor adapts a kv.Enumerator, which yields entries one Next() call
// ahead, to the Cursor interface's current-position model.
type kvCursor struct {
	enum *kv.Enumerator
	key  []byte
	vals [][]byte
	done bool
}

func newKVCursor(enum *kv.Enumerator, err error) (Cursor, error) {
	if err == io.EOF {
		return &kvCursor{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: seek: %w", err)
	}
	c := &kvCursor{enum: enum}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *kvCursor) load() error {
	k, v, err := c.enum.Next()
	if err == io.EOF {
		c.done = true
		c.key, c.vals = nil, nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: next: %w", err)
	}
	c.key = k
	c.vals = decodeFrames(v)
	return nil
}

func (c *kvCursor) Key() []byte      { return c.key }
func (c *kvCursor) Values() [][]byte { return c.vals }

func (c *kvCursor) Next() (bool, error) {
	if c.done {
		return false, nil
	}
	if err := c.load(); err != nil {
		return false, err
	}
	return !c.done, nil
}

func (s *KVStore) SeekFirst() (Cursor, error) {
	enum, err := s.db.SeekFirst()
	return newKVCursor(enum, err)
}

func (s *KVStore) Seek(target []byte) (Cursor, error) {
	enum, _, err := s.db.Seek(target)
	return newKVCursor(enum, err)
}
