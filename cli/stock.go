package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/parts-ledger/client"
	"github.com/warp/parts-ledger/inventory"
)

const clientTimeout = 15 * time.Second

type stockOptions struct {
	server string
	number string
	name   string
}

// NewStockCommand creates the stock command.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &stockOptions{}

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show the stock table",
		Long: `Show the stock table with the latest purchase and sale price of each part.

With --number or --name, show one part: number match first, then name.
With --server, read from a running server instead of the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStock(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "base URL of a running partsledger server")
	cmd.Flags().StringVar(&opts.number, "number", "", "part number to look up")
	cmd.Flags().StringVar(&opts.name, "name", "", "part name to look up")

	return cmd
}

func runStock(ctx context.Context, rootOpts *RootOptions, opts *stockOptions, cmd *cobra.Command) error {
	rows, err := loadStock(ctx, rootOpts, opts.server)
	if err != nil {
		return err
	}

	if opts.number != "" || opts.name != "" {
		plain := make([]inventory.StockRecord, len(rows))
		for i, r := range rows {
			plain[i] = r.StockRecord
		}
		idx := inventory.FindLoose(plain, opts.number, opts.name)
		if idx < 0 {
			return WrapExitError(ExitFailure, "lookup", &inventory.NotFoundError{PartNumber: opts.number, PartName: opts.name})
		}
		rows = rows[idx : idx+1]
	}

	return rootOpts.formatter(cmd).Print(rows, func(w io.Writer) error {
		return writeStockTable(w, rows)
	})
}

func loadStock(ctx context.Context, rootOpts *RootOptions, server string) ([]inventory.PricedStock, error) {
	if server != "" {
		rows, err := client.New(server, clientTimeout).Stock(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "fetch stock", err)
		}
		return rows, nil
	}

	ledger, closeLedger, err := rootOpts.openLedger()
	if err != nil {
		return nil, err
	}
	defer closeLedger()
	return ledger.PricedStock(ctx), nil
}

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Reconcile stock from the purchase and sale logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ledger, closeLedger, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer closeLedger()

			if _, err := ledger.Rebuild(ctx); err != nil {
				return rejected("rebuild", err)
			}
			if err := saved(ctx, ledger); err != nil {
				return err
			}
			rows := ledger.PricedStock(ctx)
			return rootOpts.formatter(cmd).Print(rows, func(w io.Writer) error {
				return writeStockTable(w, rows)
			})
		},
	}
}
