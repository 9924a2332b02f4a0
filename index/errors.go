package index

import (
	"errors"

	"github.com/gitpan/OurNet-FuzzyIndex/posting"
	"github.com/gitpan/OurNet-FuzzyIndex/store"
)

// Error kinds from the engine's error handling design: NotFound and
// ReadOnly are the store package's own sentinels (open/mutate
// failures), StoreIO wraps any other backing-store failure, and Corrupt
// is the posting codec's own sentinel, surfaced unchanged so callers can
// errors.Is against a single set regardless of which layer produced it.
var (
	ErrNotFound = store.ErrNotFound
	ErrReadOnly = store.ErrReadOnly
	ErrCorrupt  = posting.ErrCorrupt
)

// ErrStoreIO wraps an underlying store failure that isn't NotFound,
// ReadOnly, or Corrupt.
var ErrStoreIO = errors.New("index: store i/o error")
