package orders

import (
	"go.temporal.io/sdk/workflow"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/pallet-labels/internal/platform/temporal/activities/orders"
	"github.com/Apurer/pallet-labels/internal/platform/temporal/sequences"
)

const (
	// OrderImportWorkflowName is the public identifier for registering the import workflow.
	OrderImportWorkflowName = "orders.workflows.Import"
	// RetentionPurgeWorkflowName is the public identifier for registering the purge workflow.
	RetentionPurgeWorkflowName = "orders.workflows.RetentionPurge"
	// OrdersTaskQueue is the queue consumed by the worker processing order workflows.
	OrdersTaskQueue = "PALLET_ORDERS"
)

// OrderImportWorkflowInput carries a parsed sheet to merge.
type OrderImportWorkflowInput struct {
	Command types.ImportInput
	TraceID string
}

// RetentionPurgeWorkflowInput carries the purge cutoff.
type RetentionPurgeWorkflowInput struct {
	Command orderactivities.PurgeDeletedInput
	TraceID string
}

// OrderImportWorkflow merges an uploaded order sheet into the store.
func OrderImportWorkflow(ctx workflow.Context, input OrderImportWorkflowInput) (*types.ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderImportWorkflow started", withTraceID(input.TraceID, "source", input.Command.Source)...)
	result, err := sequences.RunOrderImportSequence(ctx, input.Command)
	if err != nil {
		logger.Error("OrderImportWorkflow failed", withTraceID(input.TraceID, "source", input.Command.Source, "error", err)...)
		return nil, err
	}
	logger.Info("OrderImportWorkflow completed", withTraceID(input.TraceID, "added", result.Added, "duplicates", result.Duplicates)...)
	return result, nil
}

// RetentionPurgeWorkflow removes deleted orders past retention.
func RetentionPurgeWorkflow(ctx workflow.Context, input RetentionPurgeWorkflowInput) (int, error) {
	logger := workflow.GetLogger(ctx)
	purged, err := sequences.RunRetentionPurgeSequence(ctx, input.Command)
	if err != nil {
		logger.Error("RetentionPurgeWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return 0, err
	}
	logger.Info("RetentionPurgeWorkflow completed", withTraceID(input.TraceID, "purged", purged)...)
	return purged, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
