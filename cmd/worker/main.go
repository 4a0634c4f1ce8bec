package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/Apurer/pallet-labels/internal/app/worker"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "pallet-labels-worker",
		Short:        "Run the Temporal worker for order imports and retention purges",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return worker.Run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("pallet labels worker failed: %v", err)
	}
}
