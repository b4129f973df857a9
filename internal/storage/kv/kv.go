// Package kv provides the localStorage-shaped persistence layer: opaque
// values stored under string keys, read and replaced whole.
package kv

import "errors"

// ErrNotFound indicates that no value is stored under the requested key.
var ErrNotFound = errors.New("kv: not found")

// Store is the persistence contract shared by all backends. Values are
// opaque byte blobs; there is no partial update and no versioning, so two
// processes writing the same key are last-write-wins.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
