package ports

import (
	"context"
	"time"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the orders bounded context.
type WorkflowOrchestrator interface {
	ImportOrders(ctx context.Context, input types.ImportInput) (*types.ImportResult, error)
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int, error)
}
