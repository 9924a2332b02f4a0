// Package store provides the ordered, duplicate-value key/value
// capability the index engine is built on: scoped puts/gets and cursor
// traversal over a persistent, on-disk ordered map.
package store

import "errors"

// ErrNotFound is returned opening a read-only store whose file is
// missing.
var ErrNotFound = errors.New("store: not found")

// ErrReadOnly is returned on any mutation attempt against a store opened
// without write permission.
var ErrReadOnly = errors.New("store: read-only")

// Store is the ordered, duplicate-value-capable key/value capability the
// index engine is built on: get, put (append a duplicate), cursor
// traversal in key order, and a separate single-valued meta slot.
//
// Duplicate values for one key are modeled as an ordered sequence the
// store returns together for that key; §9 of the design calls for
// abstracting over the concrete backing library so the engine can be
// tested against an in-memory implementation of this same interface
// (see Memory).
type Store interface {
	// Get returns the first duplicate value stored under key.
	Get(key []byte) ([]byte, bool, error)
	// GetAll returns every duplicate value stored under key, in
	// insertion order.
	GetAll(key []byte) ([][]byte, bool, error)
	// Put appends value as a new duplicate under key.
	Put(key, value []byte) error
	// SeekFirst positions a cursor at the first key in the store.
	SeekFirst() (Cursor, error)
	// Seek positions a cursor at the first key >= target.
	Seek(target []byte) (Cursor, error)
	// SetMeta replaces the single value stored under a meta key.
	SetMeta(key, value []byte) error
	// GetMeta returns the single value stored under a meta key.
	GetMeta(key []byte) ([]byte, bool, error)
	// Delete removes every duplicate value under key. The index
	// engine only ever uses this for meta-key bookkeeping (removing a
	// `!id` document-key entry); postings are never deleted this way.
	Delete(key []byte) error
	// ReadOnly reports whether the store rejects mutations.
	ReadOnly() bool
	// Sync flushes buffered writes to durable storage.
	Sync() error
	// Close releases the store's resources. Close calls Sync first.
	Close() error
}

// Cursor walks a Store in ascending key order, one key at a time, with
// all of that key's duplicate values available together.
type Cursor interface {
	// Key returns the key at the cursor's current position. Key
	// returns nil once the cursor is exhausted.
	Key() []byte
	// Values returns every duplicate value at the current position,
	// in insertion order.
	Values() [][]byte
	// Next advances the cursor and reports whether a further entry
	// exists.
	Next() (bool, error)
}
