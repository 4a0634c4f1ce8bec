// Package worker runs the Temporal worker for order workflows.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/pallet-labels/internal/app/bootstrap"
	"github.com/Apurer/pallet-labels/internal/app/config"
	orderactivities "github.com/Apurer/pallet-labels/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/pallet-labels/internal/platform/temporal/workflows/orders"
)

const serviceName = "pallet-labels-worker"

// Run serves the order task queue until interrupted.
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
		return err
	}
	defer cleanupOrders()

	temporalClient, err := bootstrap.ConnectTemporal(cfg.Temporal, instruments, "temporal-worker")
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrdersTaskQueue, worker.Options{})
	Register(w, orderactivities.NewActivities(orders.Service))

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrdersTaskQueue), slog.String("namespace", cfg.Temporal.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Temporal worker stopped")
	return nil
}

// Register binds the order workflows and activities under their public names.
func Register(r worker.Registry, acts *orderactivities.Activities) {
	r.RegisterWorkflowWithOptions(orderworkflows.OrderImportWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderImportWorkflowName})
	r.RegisterWorkflowWithOptions(orderworkflows.RetentionPurgeWorkflow, workflow.RegisterOptions{Name: orderworkflows.RetentionPurgeWorkflowName})
	r.RegisterActivityWithOptions(acts.ImportRows, activity.RegisterOptions{Name: orderactivities.ImportRowsActivityName})
	r.RegisterActivityWithOptions(acts.PurgeDeleted, activity.RegisterOptions{Name: orderactivities.PurgeDeletedActivityName})
}
