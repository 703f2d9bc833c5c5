// Package repository persists the three local records (catalog, attempt
// history, active student) on top of a small key-value abstraction.
package repository

import (
	"context"
	"errors"
)

// Domain Errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrCorrupt     = errors.New("stored record is corrupt")
)

// KV is a string-keyed store of opaque JSON documents. Writes replace the
// whole value for a key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
