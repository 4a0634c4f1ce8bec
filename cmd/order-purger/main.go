package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/pallet-labels/internal/app/bootstrap"
	"github.com/Apurer/pallet-labels/internal/app/config"
)

func main() {
	var (
		configPath string
		days       int
	)
	cmd := &cobra.Command{
		Use:          "order-purger",
		Short:        "Remove soft deleted orders older than the retention window",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if days > 0 {
				cfg.Retention.Days = days
			}
			instruments, shutdown, err := bootstrap.Observe(ctx, "order-purger", cfg)
			if err != nil {
				return err
			}
			defer shutdown()
			orders, cleanup, err := bootstrap.NewOrders(ctx, cfg, instruments)
			if err != nil {
				return err
			}
			defer cleanup()
			workflows, closeWorkflows := bootstrap.Workflows(cfg, instruments, orders.Service)
			defer closeWorkflows()

			cutoff := time.Now().AddDate(0, 0, -cfg.Retention.Days)
			purged, err := workflows.PurgeDeleted(ctx, cutoff)
			if err != nil {
				return err
			}
			instruments.Logger.Info("order purge completed",
				slog.Int("purged", purged),
				slog.Int("retention.days", cfg.Retention.Days),
				slog.Time("cutoff", cutoff))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	cmd.Flags().IntVar(&days, "days", 0, "override retention.days")
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("failed to purge orders: %v", err)
	}
}
