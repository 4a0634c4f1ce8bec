package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema used by the postgres blob backend.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&orderSnapshotRecord{})
}

// orderSnapshotRecord mirrors the orders postgres blob store.
type orderSnapshotRecord struct {
	Key       string         `gorm:"primaryKey;column:key;size:128"`
	Payload   []byte         `gorm:"column:payload;type:bytea;not null"`
	OrderIDs  pq.StringArray `gorm:"column:order_ids;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;index"`
}

func (orderSnapshotRecord) TableName() string { return "order_snapshots" }
