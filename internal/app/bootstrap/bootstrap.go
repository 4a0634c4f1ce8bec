// Package bootstrap wires configuration into the order service for every binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/pallet-labels/internal/app/config"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/persistence/postgres"
	ordersredis "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/persistence/redis"
	orderssqlite "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/persistence/sqlite"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/snapshot"
	ordersworkflows "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/pallet-labels/internal/domains/orders/application"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/pallet-labels/internal/platform/observability"
	platformpostgres "github.com/Apurer/pallet-labels/internal/platform/postgres"
	platformredis "github.com/Apurer/pallet-labels/internal/platform/redis"
	platformsqlite "github.com/Apurer/pallet-labels/internal/platform/sqlite"
)

const shutdownTimeout = 5 * time.Second

// Observe initializes logging, tracing and metrics from the configuration.
func Observe(ctx context.Context, serviceName string, cfg config.Config, opts ...platformobservability.Option) (*platformobservability.Instruments, func(), error) {
	level, err := platformobservability.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]platformobservability.Option{
		platformobservability.WithLogLevel(level),
		platformobservability.WithEnvironment(cfg.Environment),
	}, opts...)
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return instruments, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}, nil
}

// OpenBlobStore connects the configured storage backend.
func OpenBlobStore(ctx context.Context, storage config.StorageConfig, logger *slog.Logger) (ports.BlobStore, func(), error) {
	switch storage.Backend {
	case config.BackendMemory:
		logger.Warn("memory storage configured, orders are lost on exit")
		return memory.NewBlobStore(), func() {}, nil
	case config.BackendSQLite:
		db, err := platformsqlite.Open(ctx, storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("order storage configured with sqlite", slog.String("path", storage.SQLitePath))
		return orderssqlite.NewBlobStore(db), func() { _ = db.Close() }, nil
	case config.BackendPostgres:
		db, cleanup, err := platformpostgres.Open(ctx, storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("order storage configured with postgres")
		return orderspostgres.NewBlobStore(db, orderspostgres.WithIndexer(snapshot.OrderIDs)), cleanup, nil
	case config.BackendRedis:
		client, err := platformredis.Connect(ctx, platformredis.Options{
			Addr:     storage.RedisAddr,
			Password: storage.RedisPassword,
			DB:       storage.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("order storage configured with redis", slog.String("addr", storage.RedisAddr))
		return ordersredis.NewBlobStore(client, ordersredis.DefaultPrefix), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}

// Orders holds the loaded order store and the decorated service on top of it.
type Orders struct {
	Repository *snapshot.Repository
	Service    ports.Service
}

// NewOrders opens storage, loads the persisted snapshot and builds the observed order service.
func NewOrders(ctx context.Context, cfg config.Config, instruments *platformobservability.Instruments) (*Orders, func(), error) {
	logger := instruments.Logger
	blobs, cleanup, err := OpenBlobStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := snapshot.NewRepository(blobs, snapshot.WithLogger(logger))
	if err := repo.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load orders: %w", err)
	}
	service := ordersobs.New(
		ordersapp.NewService(repo),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	return &Orders{Repository: repo, Service: service}, cleanup, nil
}

// Workflows prefers Temporal and falls back to inline execution when it is disabled or unreachable.
// Memory storage is process-local, so a worker could never see the orders; it always runs inline.
func Workflows(cfg config.Config, instruments *platformobservability.Instruments, service ports.Service) (ports.WorkflowOrchestrator, func()) {
	logger := instruments.Logger
	if cfg.Storage.Backend == config.BackendMemory {
		logger.Info("memory storage configured, running workflows inline")
		return ordersworkflows.NewInlineOrderWorkflows(service), func() {}
	}
	temporalClient, err := ConnectTemporal(cfg.Temporal, instruments, "temporal-client")
	if err != nil {
		logger.Warn("Temporal workflows unavailable, running imports inline", slog.String("error", err.Error()))
		return ordersworkflows.NewInlineOrderWorkflows(service), func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.Temporal.Namespace))
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient), temporalClient.Close
}

// ConnectTemporal dials Temporal with tracing and structured logging.
func ConnectTemporal(cfg config.TemporalConfig, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.Disabled {
		return nil, errors.New("temporal disabled via configuration")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
