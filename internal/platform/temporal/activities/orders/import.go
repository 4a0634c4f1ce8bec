package orders

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	app "github.com/Apurer/pallet-labels/internal/domains/orders/application"
	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

const (
	// ImportRowsActivityName merges a parsed order sheet into the store.
	ImportRowsActivityName = "orders.activities.ImportRows"
	// PurgeDeletedActivityName removes deleted orders past their retention window.
	PurgeDeletedActivityName = "orders.activities.PurgeDeleted"
)

// PurgeDeletedInput selects deleted orders whose deletion predates CutoffUnix (seconds).
type PurgeDeletedInput struct {
	CutoffUnix int64
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// ImportRows runs the import merge. Invalid input is not retried.
func (a *Activities) ImportRows(ctx context.Context, input types.ImportInput) (*types.ImportResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order import activity not initialized", "source", input.Source)
		return nil, errors.New("order import activity not initialized")
	}
	logger.Info("ImportRows activity started", "source", input.Source, "rows", len(input.Rows))
	result, err := a.service.ImportRows(ctx, input.Rows)
	if err != nil {
		logger.Error("ImportRows activity failed", "source", input.Source, "error", err)
		if errors.Is(err, app.ErrInvalidInput) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
		}
		return nil, err
	}
	logger.Info("ImportRows activity completed", "source", input.Source,
		"added", result.Added, "duplicates", result.Duplicates, "invalid", result.Invalid)
	return result, nil
}

// PurgeDeleted drops deleted orders whose deletion predates the cutoff.
func (a *Activities) PurgeDeleted(ctx context.Context, input PurgeDeletedInput) (int, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return 0, errors.New("order purge activity not initialized")
	}
	purged, err := a.service.PurgeDeletedBefore(ctx, time.Unix(input.CutoffUnix, 0))
	if err != nil {
		logger.Error("PurgeDeleted activity failed", "error", err)
		return purged, err
	}
	logger.Info("PurgeDeleted activity completed", "purged", purged)
	return purged, nil
}
