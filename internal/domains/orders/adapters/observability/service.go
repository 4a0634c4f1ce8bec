package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.DiscardHandler),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()

	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ByQueue(ctx context.Context, queueID string) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ByQueue", trace.WithAttributes(attribute.String("queue.id", queueID)))
	defer span.End()

	result, err := s.inner.ByQueue(ctx, queueID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list queue orders", slog.String("queue.id", queueID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ByStatus(ctx context.Context, status domain.StatusFilter) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ByStatus", trace.WithAttributes(attribute.String("order.status", string(status))))
	defer span.End()

	result, err := s.inner.ByStatus(ctx, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders by status", slog.String("order.status", string(status)))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return result, nil
}

func (s *Service) ImportRows(ctx context.Context, rows []types.RawRow) (*types.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ImportRows", trace.WithAttributes(attribute.Int("import.rows", len(rows))))
	defer span.End()

	s.logInfo(ctx, "importing orders", slog.Int("import.rows", len(rows)))
	result, err := s.inner.ImportRows(ctx, rows)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to import orders", slog.Int("import.rows", len(rows)))
	}
	span.SetAttributes(
		attribute.Int("import.added", result.Added),
		attribute.Int("import.duplicates", result.Duplicates),
		attribute.Int("import.invalid", result.Invalid),
	)
	s.metrics.recordImported(ctx, result)
	s.logInfo(ctx, "orders imported",
		slog.Int("import.added", result.Added),
		slog.Int("import.duplicates", result.Duplicates),
		slog.Int("import.invalid", result.Invalid))
	for _, problem := range result.Problems {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "import row skipped", slog.String("problem", problem))
	}
	return result, nil
}

func (s *Service) PreviewLabels(ctx context.Context, input types.ProcessInput) ([]domain.Label, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PreviewLabels", trace.WithAttributes(batchAttributes(input)...))
	defer span.End()

	result, err := s.inner.PreviewLabels(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to preview labels", slog.String("order.id", input.OrderID))
	}
	span.SetAttributes(attribute.Int("labels.count", len(result)))
	return result, nil
}

func (s *Service) Process(ctx context.Context, input types.ProcessInput) (*types.ProcessResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Process", trace.WithAttributes(batchAttributes(input)...))
	defer span.End()

	s.logInfo(ctx, "processing batch",
		slog.String("order.id", input.OrderID),
		slog.String("user.id", input.UserID),
		slog.Int("batch.pallets", input.PalletsToProcess))
	result, err := s.inner.Process(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to process batch", slog.String("order.id", input.OrderID))
	}
	s.metrics.recordBatch(ctx, result)
	s.logInfo(ctx, "batch processed",
		slog.String("order.id", result.Order.ID),
		slog.String("pallets.printed", domain.FormatPallets(result.Order.PalletsPrinted)),
		slog.String("pallets.total", domain.FormatPallets(result.Order.Pallets)),
		slog.Bool("order.processed", result.Order.Processed))
	return result, nil
}

func (s *Service) SoftDelete(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SoftDelete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.SoftDelete(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to delete order", slog.String("order.id", id))
	}
	s.metrics.record(ctx, s.metrics.ordersDeleted)
	s.logInfo(ctx, "order deleted", slog.String("order.id", id))
	return result, nil
}

func (s *Service) Restore(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Restore", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.Restore(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to restore order", slog.String("order.id", id))
	}
	s.metrics.record(ctx, s.metrics.ordersRestored)
	s.logInfo(ctx, "order restored", slog.String("order.id", id))
	return result, nil
}

func (s *Service) Purge(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.Purge", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := s.inner.Purge(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to purge order", slog.String("order.id", id))
	}
	s.metrics.record(ctx, s.metrics.ordersPurged)
	s.logInfo(ctx, "order purged", slog.String("order.id", id))
	return nil
}

func (s *Service) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PurgeDeletedBefore", trace.WithAttributes(attribute.String("purge.cutoff", cutoff.Format(time.RFC3339))))
	defer span.End()

	purged, err := s.inner.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return purged, s.handleError(ctx, span, err, "failed to purge deleted orders", slog.Time("purge.cutoff", cutoff))
	}
	if s.metrics.ordersPurged != nil && purged > 0 {
		s.metrics.ordersPurged.Add(ctx, int64(purged))
	}
	s.logInfo(ctx, "deleted orders purged", slog.Int("purged", purged), slog.Time("purge.cutoff", cutoff))
	return purged, nil
}

func (s *Service) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.Clear")
	defer span.End()

	if err := s.inner.Clear(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to clear orders")
	}
	s.logInfo(ctx, "all orders cleared")
	return nil
}

func (s *Service) Summary(ctx context.Context) (*types.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Summary")
	defer span.End()

	result, err := s.inner.Summary(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to summarize orders")
	}
	span.SetAttributes(attribute.Int("orders.total", result.Total), attribute.Int("orders.pending", result.Pending))
	return result, nil
}

func batchAttributes(input types.ProcessInput) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("order.id", input.OrderID),
		attribute.String("user.id", input.UserID),
		attribute.Int("batch.pallets", input.PalletsToProcess),
	}
	if input.ActualTotalPallets != nil {
		attrs = append(attrs, attribute.String("batch.actual_total", input.ActualTotalPallets.String()))
	}
	return attrs
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersImported   metric.Int64Counter
	batchesProcessed metric.Int64Counter
	ordersCompleted  metric.Int64Counter
	ordersDeleted    metric.Int64Counter
	ordersRestored   metric.Int64Counter
	ordersPurged     metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersImported, _ := m.Int64Counter("orders.service.orders_imported", metric.WithDescription("Number of orders added by imports"))
	batchesProcessed, _ := m.Int64Counter("orders.service.batches_processed", metric.WithDescription("Number of label batches printed"))
	ordersCompleted, _ := m.Int64Counter("orders.service.orders_completed", metric.WithDescription("Number of orders fully processed"))
	ordersDeleted, _ := m.Int64Counter("orders.service.orders_deleted", metric.WithDescription("Number of orders soft deleted"))
	ordersRestored, _ := m.Int64Counter("orders.service.orders_restored", metric.WithDescription("Number of orders restored"))
	ordersPurged, _ := m.Int64Counter("orders.service.orders_purged", metric.WithDescription("Number of orders removed for good"))
	return serviceMetrics{
		ordersImported:   ordersImported,
		batchesProcessed: batchesProcessed,
		ordersCompleted:  ordersCompleted,
		ordersDeleted:    ordersDeleted,
		ordersRestored:   ordersRestored,
		ordersPurged:     ordersPurged,
	}
}

func (m serviceMetrics) recordImported(ctx context.Context, result *types.ImportResult) {
	if m.ordersImported != nil && result.Added > 0 {
		m.ordersImported.Add(ctx, int64(result.Added))
	}
}

func (m serviceMetrics) recordBatch(ctx context.Context, result *types.ProcessResult) {
	if m.batchesProcessed != nil {
		m.batchesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.Int("labels.count", len(result.Labels))))
	}
	if m.ordersCompleted != nil && result.Order.Processed {
		m.ordersCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("queue.id", result.Order.QueueNumber)))
	}
}

func (m serviceMetrics) record(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
