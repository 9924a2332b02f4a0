package store

import (
	"bytes"
	"sort"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory Store used by index engine tests so engine
// logic can be exercised without touching disk, per the guidance to test
// the engine against the Store capability set rather than a specific
// backend.
type Memory struct {
	entries map[string][][]byte
	meta    map[string][]byte
	order   []string
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string][][]byte),
		meta:    make(map[string][]byte),
	}
}

func (m *Memory) ReadOnly() bool { return false }

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	vals, ok := m.entries[string(key)]
	if !ok || len(vals) == 0 {
		return nil, false, nil
	}
	return vals[0], true, nil
}

func (m *Memory) GetAll(key []byte) ([][]byte, bool, error) {
	vals, ok := m.entries[string(key)]
	if !ok || len(vals) == 0 {
		return nil, false, nil
	}
	out := make([][]byte, len(vals))
	copy(out, vals)
	return out, true, nil
}

func (m *Memory) Put(key, value []byte) error {
	k := string(key)
	if _, exists := m.entries[k]; !exists {
		m.order = append(m.order, k)
	}
	v := append([]byte(nil), value...)
	m.entries[k] = append(m.entries[k], v)
	return nil
}

func (m *Memory) SetMeta(key, value []byte) error {
	m.meta[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) GetMeta(key []byte) ([]byte, bool, error) {
	v, ok := m.meta[string(key)]
	return v, ok, nil
}

func (m *Memory) Delete(key []byte) error {
	k := string(key)
	if _, ok := m.entries[k]; ok {
		delete(m.entries, k)
		for i, ek := range m.order {
			if ek == k {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	delete(m.meta, k)
	return nil
}

func (m *Memory) Sync() error  { return nil }
func (m *Memory) Close() error { return nil }

func (m *Memory) sortedKeys() []string {
	keys := append([]string(nil), m.order...)
	sort.Strings(keys)
	return keys
}

type memCursor struct {
	m    *Memory
	keys []string
	pos  int
}

func (c *memCursor) Key() []byte {
	if c.pos >= len(c.keys) {
		return nil
	}
	return []byte(c.keys[c.pos])
}

func (c *memCursor) Values() [][]byte {
	if c.pos >= len(c.keys) {
		return nil
	}
	return c.m.entries[c.keys[c.pos]]
}

func (c *memCursor) Next() (bool, error) {
	c.pos++
	return c.pos < len(c.keys), nil
}

func (m *Memory) SeekFirst() (Cursor, error) {
	return &memCursor{m: m, keys: m.sortedKeys(), pos: 0}, nil
}

func (m *Memory) Seek(target []byte) (Cursor, error) {
	keys := m.sortedKeys()
	idx := sort.Search(len(keys), func(i int) bool {
		return bytes.Compare([]byte(keys[i]), target) >= 0
	})
	return &memCursor{m: m, keys: keys, pos: idx}, nil
}
