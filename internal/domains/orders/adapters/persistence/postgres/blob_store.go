package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*BlobStore)(nil)

// Indexer extracts the order ids contained in a payload so they can be queried in SQL.
type Indexer func(payload []byte) []string

// BlobStore persists blobs in the order_snapshots table using GORM.
type BlobStore struct {
	db      *gorm.DB
	indexer Indexer
}

type Option func(*BlobStore)

// WithIndexer fills the order_ids column on every store.
func WithIndexer(indexer Indexer) Option {
	return func(s *BlobStore) {
		s.indexer = indexer
	}
}

// NewBlobStore wires a PostgreSQL-backed blob store. Caller manages DB lifecycle; schema comes from migrations.Run.
func NewBlobStore(db *gorm.DB, opts ...Option) *BlobStore {
	s := &BlobStore{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// snapshotRecord maps one blob slot to a relational row.
type snapshotRecord struct {
	Key       string         `gorm:"primaryKey;column:key;size:128"`
	Payload   []byte         `gorm:"column:payload;type:bytea;not null"`
	OrderIDs  pq.StringArray `gorm:"column:order_ids;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;index"`
}

func (snapshotRecord) TableName() string { return "order_snapshots" }

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record snapshotRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	return record.Payload, nil
}

// Store upserts the slot.
func (s *BlobStore) Store(ctx context.Context, key string, payload []byte) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := snapshotRecord{Key: key, Payload: payload, OrderIDs: pq.StringArray{}}
	if s.indexer != nil {
		record.OrderIDs = pq.StringArray(s.indexer(payload))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"payload":    record.Payload,
				"order_ids":  record.OrderIDs,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&snapshotRecord{}, "key = ?", key).Error
}

// KeysContaining lists the slots whose last payload held the given order id.
func (s *BlobStore) KeysContaining(ctx context.Context, orderID string) ([]string, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.WithContext(ctx).Model(&snapshotRecord{}).
		Where("? = ANY(order_ids)", orderID).
		Order("key").
		Pluck("key", &keys).Error
	return keys, err
}

func (s *BlobStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres blob store not configured")
	}
	return nil
}
