package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/pallet-labels/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/pallet-labels/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrdersTaskQueue}
}

// ImportOrders runs the import workflow and waits for its result. Uploading the same sheet while a
// previous import of it is still running attaches to that run instead of merging twice.
func (o *TemporalOrderWorkflows) ImportOrders(ctx context.Context, input types.ImportInput) (*types.ImportResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	workflowID := buildImportWorkflowID(input)
	run, err := o.client.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{ID: workflowID, TaskQueue: o.taskQueue},
		orderworkflows.OrderImportWorkflowName,
		orderworkflows.OrderImportWorkflowInput{Command: input, TraceID: workflowTraceComponent(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result types.ImportResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PurgeDeleted runs the retention purge workflow for the given cutoff.
func (o *TemporalOrderWorkflows) PurgeDeleted(ctx context.Context, cutoff time.Time) (int, error) {
	if o == nil || o.client == nil {
		return 0, errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	run, err := o.client.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{ID: "order-retention-purge-" + traceComponent, TaskQueue: o.taskQueue},
		orderworkflows.RetentionPurgeWorkflowName,
		orderworkflows.RetentionPurgeWorkflowInput{
			Command: orderactivities.PurgeDeletedInput{CutoffUnix: cutoff.Unix()},
			TraceID: traceComponent,
		},
	)
	if err != nil {
		return 0, err
	}
	var purged int
	if err := run.Get(ctx, &purged); err != nil {
		return 0, err
	}
	return purged, nil
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

// ImportOrders delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) ImportOrders(ctx context.Context, input types.ImportInput) (*types.ImportResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.ImportRows(ctx, input.Rows)
}

// PurgeDeleted delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) PurgeDeleted(ctx context.Context, cutoff time.Time) (int, error) {
	if o == nil || o.service == nil {
		return 0, errors.New("inline order workflows not configured")
	}
	return o.service.PurgeDeletedBefore(ctx, cutoff)
}

// buildImportWorkflowID derives a stable id from the sheet contents.
func buildImportWorkflowID(input types.ImportInput) string {
	h := sha256.New()
	h.Write([]byte(input.Source))
	for _, row := range input.Rows {
		h.Write([]byte{'\n'})
		h.Write([]byte(strconv.Itoa(row.Line)))
		for _, value := range row.Values {
			h.Write([]byte{0x1f})
			h.Write([]byte(value))
		}
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("order-import-%s", hex.EncodeToString(sum[:8]))
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return "fallback-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
