package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Apurer/pallet-labels/internal/app/bootstrap"
	"github.com/Apurer/pallet-labels/internal/app/config"
	ordershandlers "github.com/Apurer/pallet-labels/internal/domains/orders/adapters/http/handlers"
)

const serviceName = "pallet-labels-api"

// Run boots the pallet labels HTTP API with observability, storage, and workflows wired.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	instruments, shutdown, err := bootstrap.Observe(ctx, serviceName, cfg)
	if err != nil {
		return err
	}
	defer shutdown()
	logger := instruments.Logger

	orders, cleanupOrders, err := bootstrap.NewOrders(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to open order storage", slog.String("backend", cfg.Storage.Backend), slog.String("error", err.Error()))
		return err
	}
	defer cleanupOrders()
	workflows, closeWorkflows := bootstrap.Workflows(cfg, instruments, orders.Service)
	defer closeWorkflows()

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := ordershandlers.NewOrderAPI(orders.Service, workflows,
		ordershandlers.WithLogger(logger),
		ordershandlers.WithImportEncoding(cfg.Import.Encoding),
	)
	router := ordershandlers.NewRouter(api, otelgin.Middleware(serviceName))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("pallet labels API listening", slog.String("addr", server.Addr), slog.String("storage", cfg.Storage.Backend))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pallet labels API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down pallet labels API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
