package kv

import (
	"sync"
)

// Backend bundles the store with the mutex that serializes load-modify-save
// cycles. The documents are whole-collection JSON blobs, so concurrent
// writers in the same process must take turns; cross-process writers are out
// of scope for this backend.
type Backend struct {
	store Store
	mu    sync.Mutex
}

func NewBackend(store Store) *Backend {
	if store == nil {
		panic("store cannot be nil")
	}
	return &Backend{store: store}
}
