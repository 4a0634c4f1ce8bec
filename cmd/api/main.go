package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/Apurer/pallet-labels/internal/app/api"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "pallet-labels-api",
		Short:        "Serve the pallet labels HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return api.Run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("pallet labels API failed: %v", err)
	}
}
