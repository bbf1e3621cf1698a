package storage

import (
	"context"
	"errors"
)

// KeyValueStore is the durable snapshot storage behind a cart store:
// one key per cart, value is the serialized item list. Consumers define
// this interface, not the backend implementations.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrKeyNotFound = errors.New("key not found")
