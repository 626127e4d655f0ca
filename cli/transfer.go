package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/parts-ledger/client"
	"github.com/warp/parts-ledger/inventory"
)

// Snapshot is the import/export document.
type Snapshot struct {
	Purchases []inventory.Transaction `json:"purchases" yaml:"purchases"`
	Sales     []inventory.Transaction `json:"sales" yaml:"sales"`
	Stock     []inventory.PricedStock `json:"stock,omitempty" yaml:"stock,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace both logs with the contents of a JSON snapshot",
		Long: `Replace the purchase and sale logs with those in a snapshot written by
export (a "stock" section, if present, is ignored and rebuilt).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ledger, closeLedger, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer closeLedger()

			stock := ledger.Replace(ctx, snap.Purchases, snap.Sales)
			if err := saved(ctx, ledger); err != nil {
				return err
			}
			rootOpts.Log.Info().Str("source", args[0]).Msg("snapshot imported")

			result := map[string]int{"purchases": len(snap.Purchases), "sales": len(snap.Sales), "stock": len(stock)}
			return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "imported %d purchases and %d sales; %d parts in stock\n",
					len(snap.Purchases), len(snap.Sales), len(stock))
				return err
			})
		},
	}
}

func readSnapshot(path string, stdin io.Reader) (*Snapshot, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open snapshot", err)
		}
		defer f.Close()
		r = f
	}

	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, WrapExitError(ExitCommandError, "decode snapshot", err)
	}
	return &snap, nil
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both logs and the stock table",
		Long: `Write purchases, sales and stock as a snapshot. The default text format
is JSON, so the output can be fed back to import; --format yaml is for reading.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := exportSnapshot(cmd.Context(), rootOpts, server)
			if err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			if f.Format == FormatText {
				f.Format = FormatJSON
			}
			return f.Print(snap, nil)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "base URL of a running partsledger server")

	return cmd
}

func exportSnapshot(ctx context.Context, rootOpts *RootOptions, server string) (*Snapshot, error) {
	if server != "" {
		c := client.New(server, clientTimeout)
		purchases, err := c.Purchases(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "fetch purchases", err)
		}
		sales, err := c.Sales(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "fetch sales", err)
		}
		stock, err := c.Stock(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "fetch stock", err)
		}
		return &Snapshot{Purchases: purchases, Sales: sales, Stock: stock}, nil
	}

	ledger, closeLedger, err := rootOpts.openLedger()
	if err != nil {
		return nil, err
	}
	defer closeLedger()
	return &Snapshot{
		Purchases: ledger.Purchases(ctx),
		Sales:     ledger.Sales(ctx),
		Stock:     ledger.PricedStock(ctx),
	}, nil
}
