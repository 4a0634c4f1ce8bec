package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

// SchemaVersion tags the envelope written by Encode.
const SchemaVersion = 1

// LegacyTimestampLayout is the zone-less day-first local layout of unversioned payloads. Encode
// writes RFC 3339 in UTC; Decode still reads both.
const LegacyTimestampLayout = "02/01/2006 15:04:05"

var ErrCorruptState = errors.New("corrupt persisted order state")

type envelope struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"savedAt"`
	Orders  []orderRecord `json:"orders"`
}

type orderRecord struct {
	ID             string          `json:"id"`
	QueueNumber    string          `json:"queueNumber"`
	StoreNumber    string          `json:"storeNumber"`
	DockNumber     string          `json:"dockNumber"`
	DeliveryDate   string          `json:"deliveryDate"`
	Boxes          int             `json:"boxes"`
	Pallets        decimal.Decimal `json:"pallets"`
	PalletsPrinted decimal.Decimal `json:"palletsPrinted"`
	Processed      bool            `json:"processed"`
	UserID         string          `json:"userId,omitempty"`
	ProcessedAt    string          `json:"processedAt,omitempty"`
	Deleted        bool            `json:"deleted,omitempty"`
	DeletedAt      string          `json:"deletedAt,omitempty"`
}

// Encode serializes the order list into a versioned envelope.
func Encode(orders []*domain.Order, savedAt time.Time) ([]byte, error) {
	env := envelope{Version: SchemaVersion, SavedAt: savedAt.UTC(), Orders: make([]orderRecord, 0, len(orders))}
	for _, order := range orders {
		env.Orders = append(env.Orders, toRecord(order))
	}
	return json.Marshal(env)
}

// Decode reads an envelope, or the bare array written before envelopes existed.
func Decode(payload []byte) ([]*domain.Order, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptState)
	}
	var records []orderRecord
	switch payload[0] {
	case '[':
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
		if env.Version != SchemaVersion {
			return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorruptState, env.Version)
		}
		records = env.Orders
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrCorruptState)
	}

	orders := make([]*domain.Order, 0, len(records))
	for i, record := range records {
		order := record.toDomain()
		if err := order.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorruptState, i, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func toRecord(o *domain.Order) orderRecord {
	return orderRecord{
		ID:             o.ID,
		QueueNumber:    o.QueueNumber,
		StoreNumber:    o.StoreNumber,
		DockNumber:     o.DockNumber,
		DeliveryDate:   o.DeliveryDate,
		Boxes:          o.Boxes,
		Pallets:        o.Pallets,
		PalletsPrinted: o.PalletsPrinted,
		Processed:      o.Processed,
		UserID:         o.UserID,
		ProcessedAt:    formatTimestamp(o.ProcessedAt),
		Deleted:        o.Deleted,
		DeletedAt:      formatTimestamp(o.DeletedAt),
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:             r.ID,
		QueueNumber:    r.QueueNumber,
		StoreNumber:    r.StoreNumber,
		DockNumber:     r.DockNumber,
		DeliveryDate:   domain.NormalizeDeliveryDate(r.DeliveryDate),
		Boxes:          r.Boxes,
		Pallets:        r.Pallets,
		PalletsPrinted: r.PalletsPrinted,
		Processed:      r.Processed,
		UserID:         r.UserID,
		ProcessedAt:    parseTimestamp(r.ProcessedAt),
		Deleted:        r.Deleted,
		DeletedAt:      parseTimestamp(r.DeletedAt),
	}
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTimestamp drops values it cannot read rather than failing the whole state.
func parseTimestamp(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.ParseInLocation(LegacyTimestampLayout, raw, time.Local)
	}
	if err != nil {
		return nil
	}
	return &t
}

// OrderIDs lists the ids held by a payload, or nil when it cannot be decoded.
func OrderIDs(payload []byte) []string {
	orders, err := Decode(payload)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	return ids
}
