package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/memory"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/snapshot"
	app "github.com/Apurer/pallet-labels/internal/domains/orders/application"
	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

type harness struct {
	service ports.Service
	spans   *tracetest.SpanRecorder
	reader  *sdkmetric.ManualReader
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) harness {
	t.Helper()
	repo := snapshot.NewRepository(memory.NewBlobStore())
	require.NoError(t, repo.Load(context.Background()))

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	logs := &bytes.Buffer{}
	service := New(app.NewService(repo),
		WithTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer(tracerName)),
		WithMeter(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter(tracerName)),
		WithLogger(slog.New(slog.NewJSONHandler(logs, nil))),
	)
	return harness{service: service, spans: spans, reader: reader, logs: logs}
}

func (h harness) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestService_RecordsImportAndBatches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.service.ImportRows(ctx, []types.RawRow{
		{Line: 4, Values: []string{"P1", "10", "200", "5", "15/03/2024", "12", "1"}},
		{Line: 5, Values: []string{"", "10"}},
	})
	require.NoError(t, err)
	one := decimal.NewFromInt(1)
	_, err = h.service.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: &one})
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.counter(t, "orders.service.orders_imported"))
	assert.Equal(t, int64(1), h.counter(t, "orders.service.batches_processed"))
	assert.Equal(t, int64(1), h.counter(t, "orders.service.orders_completed"))
	assert.Contains(t, h.logs.String(), "import row skipped")

	ended := h.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "OrderService.ImportRows", ended[0].Name())
	assert.Equal(t, "OrderService.Process", ended[1].Name())
}

func TestService_RecordsErrorsOnSpan(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Get(context.Background(), "missing")

	require.ErrorIs(t, err, ports.ErrNotFound)
	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, h.logs.String(), "failed to load order")
}

func TestService_NilLoggerKeepsDefault(t *testing.T) {
	repo := snapshot.NewRepository(memory.NewBlobStore())
	service := New(app.NewService(repo), WithLogger(nil))
	ctx := context.Background()

	result, err := service.ImportRows(ctx, []types.RawRow{{Line: 4, Values: []string{"", "10"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Invalid)

	_, err = service.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
