package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*BlobStore)(nil)

// BlobStore keeps blobs in the SQLite blobs table. Caller manages DB lifecycle.
type BlobStore struct {
	db *sqlx.DB
}

func NewBlobStore(db *sqlx.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM blobs WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load %s: %w", key, err)
	}
	return payload, nil
}

func (s *BlobStore) Store(ctx context.Context, key string, payload []byte) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	const q = `
		INSERT INTO blobs (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, q, key, payload); err != nil {
		return fmt.Errorf("sqlite store %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite remove %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("sqlite blob store not configured")
	}
	return nil
}
