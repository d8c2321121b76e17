// Package kv defines the key-value store contract every persistence
// backend implements. The contract is deliberately narrow and mirrors an
// eventually consistent store: no transactions, no read-after-write
// guarantee, and prefix listings that return one bounded page.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("key not found")

// Page is one bounded slice of a prefix listing. Complete reports whether
// the page reached the end of the key space under the prefix. Callers act
// on a single page and never chase continuations.
type Page struct {
	Keys     []string
	Complete bool
}

// Store is the persistence collaborator everything writes through. The
// key-space design has to absorb the weak guarantees: one key per event,
// best-effort counters in metadata documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string, limit int) (Page, error)
}
