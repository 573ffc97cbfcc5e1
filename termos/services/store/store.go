// Package store persists app-owned records. Records are opaque byte values
// keyed by an app-chosen namespace and key.
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get and Delete for a missing key.
var ErrNotFound = errors.New("record not found")

// Store is a namespaced key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, ns, key string, value []byte) error
	Get(ctx context.Context, ns, key string) ([]byte, error)
	// List returns the keys of ns in ascending order.
	List(ctx context.Context, ns string) ([]string, error)
	Delete(ctx context.Context, ns, key string) error
	Close() error
}

// Bucket is a Store bound to one namespace.
type Bucket struct {
	Store Store
	NS    string
}

// In returns the Bucket for ns.
func In(s Store, ns string) Bucket { return Bucket{Store: s, NS: ns} }

func (b Bucket) Put(ctx context.Context, key string, value []byte) error {
	return b.Store.Put(ctx, b.NS, key, value)
}

func (b Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.Store.Get(ctx, b.NS, key)
}

func (b Bucket) List(ctx context.Context) ([]string, error) {
	return b.Store.List(ctx, b.NS)
}

func (b Bucket) Delete(ctx context.Context, key string) error {
	return b.Store.Delete(ctx, b.NS, key)
}

// Open returns the store addressed by dsn: "" or "memory" for a Memory store,
// otherwise a SQLite database path or file: URI.
func Open(dsn string) (Store, error) {
	switch strings.TrimSpace(dsn) {
	case "", "memory", ":memory:":
		return NewMemory(), nil
	default:
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
