package ports

import (
	"context"
	"time"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

// Service defines the order use cases exposed to adapters (inbound/driving port).
type Service interface {
	List(ctx context.Context) ([]*domain.Order, error)
	ByQueue(ctx context.Context, queueID string) ([]*domain.Order, error)
	ByStatus(ctx context.Context, status domain.StatusFilter) ([]*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ImportRows(ctx context.Context, rows []types.RawRow) (*types.ImportResult, error)
	PreviewLabels(ctx context.Context, input types.ProcessInput) ([]domain.Label, error)
	Process(ctx context.Context, input types.ProcessInput) (*types.ProcessResult, error)
	SoftDelete(ctx context.Context, id string) (*domain.Order, error)
	Restore(ctx context.Context, id string) (*domain.Order, error)
	Purge(ctx context.Context, id string) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error)
	Clear(ctx context.Context) error
	Summary(ctx context.Context) (*types.Summary, error)
}
