package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/pallet-labels/internal/platform/temporal/activities/orders"
)

var storeRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    10 * time.Second,
	MaximumAttempts:    5,
}

// RunOrderImportSequence merges one parsed sheet into the order store.
func RunOrderImportSequence(ctx workflow.Context, input types.ImportInput) (*types.ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order import sequence started", "source", input.Source, "rows", len(input.Rows))
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy:         storeRetryPolicy,
	}

	var result types.ImportResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.ImportRowsActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("order import sequence failed", "source", input.Source, "error", err)
		return nil, err
	}
	logger.Info("order import sequence completed", "source", input.Source, "added", result.Added)
	return &result, nil
}

// RunRetentionPurgeSequence purges deleted orders older than the cutoff.
func RunRetentionPurgeSequence(ctx workflow.Context, input orderactivities.PurgeDeletedInput) (int, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         storeRetryPolicy,
	}
	var purged int
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.PurgeDeletedActivityName, input).Get(ctx, &purged)
	if err != nil {
		logger.Error("retention purge sequence failed", "error", err)
		return 0, err
	}
	logger.Info("retention purge sequence completed", "purged", purged)
	return purged, nil
}
