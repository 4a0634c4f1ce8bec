// Package cli implements palletctl, the operator command line for the order store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Apurer/pallet-labels/internal/app/bootstrap"
	"github.com/Apurer/pallet-labels/internal/app/config"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/pallet-labels/internal/platform/observability"
)

const serviceName = "palletctl"

type app struct {
	configPath string
	jsonOutput bool

	cfg     config.Config
	service ports.Service
	closers []func()
}

// NewRootCommand builds the palletctl command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "palletctl",
		Short:         "Manage warehouse orders and pallet labels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.importCommand(),
		a.listCommand(),
		a.labelsCommand(),
		a.processCommand(),
		a.deleteCommand(),
		a.restoreCommand(),
		a.purgeCommand(),
		a.clearCommand(),
		a.exportCommand(),
		a.queuesCommand(),
	)
	return root, a
}

// Execute runs palletctl with os.Args.
func Execute(ctx context.Context) int {
	root, a := newRoot()
	defer a.close()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) open(ctx context.Context, logOutput io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	// Service logs share the terminal with command output.
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	instruments, shutdown, err := bootstrap.Observe(ctx, serviceName, cfg,
		platformobservability.WithLogOutput(logOutput),
		platformobservability.WithoutTraceExport(),
	)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)
	orders, cleanup, err := bootstrap.NewOrders(ctx, cfg, instruments)
	if err != nil {
		a.close()
		return err
	}
	a.closers = append(a.closers, cleanup)
	a.cfg = cfg
	a.service = orders.Service
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
