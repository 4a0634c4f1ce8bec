package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*BlobStore)(nil)

// BlobStore keeps blobs as plain Redis strings under a namespace prefix. Caller owns the client.
type BlobStore struct {
	client *goredis.Client
	prefix string
}

// DefaultPrefix namespaces the keys written by the blob store.
const DefaultPrefix = "pallet-labels:"

func NewBlobStore(client *goredis.Client, prefix string) *BlobStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &BlobStore{client: client, prefix: prefix}
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ports.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, nil
}

// Store writes the payload without expiry.
func (s *BlobStore) Store(ctx context.Context, key string, payload []byte) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis blob store not configured")
	}
	return nil
}
