package ports

import (
	"context"
	"errors"
)

// OrdersStorageKey is the slot holding the serialized order list.
const OrdersStorageKey = "logistics-orders"

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a durable key-value slot holding opaque payloads.
type BlobStore interface {
	// Load returns ErrBlobNotFound when nothing was stored under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
}
