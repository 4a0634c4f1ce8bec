package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/export"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/http/mapper"
	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/platform/spreadsheet"
)

func (a *app) importCommand() *cobra.Command {
	var format, encoding string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an order sheet (xlsx or csv) into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := spreadsheet.FormatFromFilename(path)
			if format != "" {
				f, err = spreadsheet.ParseFormat(format)
			}
			if err != nil {
				return err
			}
			if encoding == "" {
				encoding = a.cfg.Import.Encoding
			}
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			records, err := spreadsheet.Read(file, f, spreadsheet.ReadOptions{
				Encoding:    encoding,
				DateColumns: []int{types.ColumnDeliveryDate},
			})
			if err != nil {
				return fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			result, err := a.service.ImportRows(cmd.Context(), types.RowsFromSheet(records))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return a.printJSON(out, mapper.ImportResponse{Source: filepath.Base(path), ImportResult: *result})
			}
			fmt.Fprintf(out, "added %d, duplicates %d, invalid %d\n", result.Added, result.Duplicates, result.Invalid)
			for _, problem := range result.Problems {
				fmt.Fprintln(out, "  skipped:", problem)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "xlsx or csv (default from the file extension)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "csv encoding: utf-8 or windows-1252")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var status, queue string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders by status or queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := domain.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			var orders []*domain.Order
			if queue != "" {
				orders, err = a.service.ByQueue(cmd.Context(), queue)
			} else {
				orders, err = a.service.ByStatus(cmd.Context(), filter)
			}
			if err != nil {
				return err
			}
			return a.printOrders(cmd.OutOrStdout(), orders)
		},
	}
	cmd.Flags().StringVar(&status, "status", string(domain.StatusAll), "all, pending, processed or deleted")
	cmd.Flags().StringVar(&queue, "queue", "", "pending orders of one queue")
	return cmd
}

type batchFlags struct {
	user    string
	pallets int
	actual  string
}

func (f *batchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "operator id (required)")
	cmd.Flags().IntVarP(&f.pallets, "pallets", "p", 2, "pallets to process: 1 or 2")
	cmd.Flags().StringVar(&f.actual, "actual", "", "actual total pallets, required on the last batch")
	_ = cmd.MarkFlagRequired("user")
}

func (f *batchFlags) input(orderID string) (types.ProcessInput, error) {
	input := types.ProcessInput{OrderID: orderID, UserID: f.user, PalletsToProcess: f.pallets}
	if strings.TrimSpace(f.actual) != "" {
		actual, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(f.actual), ",", "."))
		if err != nil {
			return input, fmt.Errorf("invalid --actual %q", f.actual)
		}
		input.ActualTotalPallets = &actual
	}
	return input, nil
}

func (a *app) labelsCommand() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "labels <order-id>",
		Short: "Preview the labels the next batch would print",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input(args[0])
			if err != nil {
				return err
			}
			labels, err := a.service.PreviewLabels(cmd.Context(), input)
			if err != nil {
				return err
			}
			return a.printLabels(cmd.OutOrStdout(), labels)
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) processCommand() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "process <order-id>",
		Short: "Print a batch of labels and advance the order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input(args[0])
			if err != nil {
				return err
			}
			result, err := a.service.Process(cmd.Context(), input)
			if err != nil {
				if errors.Is(err, domain.ErrMissingActualCount) {
					return fmt.Errorf("%w (pass --actual)", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return a.printJSON(out, mapper.FromProcessResult(result))
			}
			if err := a.printLabels(out, result.Labels); err != nil {
				return err
			}
			order := result.Order
			state := "pending"
			if order.Processed {
				state = "processed"
			}
			fmt.Fprintf(out, "order %s: %s/%s pallets printed, %s\n", order.ID,
				domain.FormatPallets(order.PalletsPrinted), domain.FormatPallets(order.Pallets), state)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Soft delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := a.service.SoftDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printOrders(cmd.OutOrStdout(), []*domain.Order{order})
		},
	}
}

func (a *app) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <order-id>",
		Short: "Restore a soft deleted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := a.service.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printOrders(cmd.OutOrStdout(), []*domain.Order{order})
		},
	}
}

func (a *app) purgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <order-id>",
		Short: "Remove a deleted order for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Purge(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s purged\n", args[0])
			return nil
		},
	}
}

func (a *app) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every order from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the store without --yes")
			}
			if err := a.service.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all orders cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var status, format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write orders to an xlsx or csv file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := domain.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			f, err := spreadsheet.ParseFormat(format)
			if err != nil {
				return err
			}
			orders, err := a.service.ByStatus(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output == "" {
				output = export.Filename(filter, f, time.Now())
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := spreadsheet.Write(file, f, export.Table(orders)); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d orders written to %s\n", export.Title(filter), len(orders), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(domain.StatusAll), "all, pending, processed or deleted")
	cmd.Flags().StringVar(&format, "format", string(spreadsheet.FormatXLSX), "xlsx or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default pedidos_<status>_<date>.<format>)")
	return cmd
}

func (a *app) queuesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "Show the queue catalog with pending orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.service.Summary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return a.printJSON(out, mapper.FromSummary(summary))
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tNAME\tPENDING")
			for _, q := range summary.Queues {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", q.ID, q.Name, q.Pending)
			}
			fmt.Fprintf(tw, "\ttotal %d, processed %d, pending %d, deleted %d\t\n",
				summary.Total, summary.Processed, summary.Pending, summary.Deleted)
			return tw.Flush()
		},
	}
}

func (a *app) printOrders(w io.Writer, orders []*domain.Order) error {
	if a.jsonOutput {
		return a.printJSON(w, mapper.FromDomainOrders(orders))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUEUE\tSTORE\tDOCK\tDELIVERY\tBOXES\tPALLETS\tPRINTED\tSTATUS")
	for _, o := range orders {
		row := export.Row(o)
		status := row[8]
		if o.Deleted {
			status += " (eliminado)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4], row[5], row[6], row[7], status)
	}
	return tw.Flush()
}

func (a *app) printLabels(w io.Writer, labels []domain.Label) error {
	if a.jsonOutput {
		return a.printJSON(w, mapper.FromDomainLabels(labels))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PALLET\tORDER\tSTORE\tQUEUE\tDOCK\tDELIVERY\tUSER")
	for _, l := range labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", l.Caption(), l.OrderID, l.StoreNumber, l.QueueName, l.DockNumber, l.DeliveryDate, l.UserID)
	}
	return tw.Flush()
}
