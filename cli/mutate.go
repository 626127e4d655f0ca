package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/parts-ledger/inventory"
)

// =============================================================================
// PURCHASE / SALE
// =============================================================================

type recordOptions struct {
	in    inventory.TransactionInput
	price string
}

// NewRecordCommand creates the purchase or sale command, depending on c.
func NewRecordCommand(rootOpts *RootOptions, c inventory.Collection) *cobra.Command {
	opts := &recordOptions{}
	use, short := "purchase", "Record a purchase"
	if c == inventory.CollectionSales {
		use, short = "sale", "Record a sale of a part in stock"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(opts.price)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --price %q", opts.price), err)
			}
			in := opts.in
			in.Price = price

			ctx := cmd.Context()
			ledger, closeLedger, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer closeLedger()

			var tx inventory.Transaction
			if c == inventory.CollectionSales {
				tx, err = ledger.RecordSale(ctx, in)
			} else {
				tx, err = ledger.RecordPurchase(ctx, in)
			}
			if err != nil {
				return rejected(use, err)
			}
			if err := saved(ctx, ledger); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Print(tx, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "recorded %s: %s\n", use, describeTransaction(tx))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.in.PartName, "name", "", "part name")
	cmd.Flags().StringVar(&opts.in.PartNumber, "number", "", "part number")
	cmd.Flags().IntVarP(&opts.in.Quantity, "quantity", "q", 0, "quantity")
	cmd.Flags().StringVar(&opts.price, "price", "0", "unit price")
	cmd.Flags().StringVar(&opts.in.Date, "date", "", "date YYYY-MM-DD (default today)")

	return cmd
}

// =============================================================================
// ADJUST
// =============================================================================

// NewAdjustCommand creates the adjust command.
func NewAdjustCommand(rootOpts *RootOptions) *cobra.Command {
	var number, name, date string
	var quantity int

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Set a part's on-hand quantity",
		Long: `Book the zero-priced purchase or sale that brings a part to the given
quantity. Nothing is recorded when the part is already there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ledger, closeLedger, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer closeLedger()

			adj, err := ledger.SynthesizeAdjustment(ctx, number, name, quantity, date)
			if err != nil {
				return rejected("adjustment", err)
			}
			if err := saved(ctx, ledger); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Print(adj, func(w io.Writer) error {
				if adj == nil {
					_, err := fmt.Fprintln(w, "no adjustment needed")
					return err
				}
				_, err := fmt.Fprintf(w, "booked %s: %s\n", adj.Collection, describeTransaction(adj.Transaction))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "part number")
	cmd.Flags().StringVar(&name, "name", "", "part name")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "wanted on-hand quantity")
	cmd.Flags().StringVar(&date, "date", "", "date of the adjustment (default today)")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

// =============================================================================
// RENAME
// =============================================================================

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	var oldNumber, oldName, newNumber, newName string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Move a part's history to a new number and name",
		Long: `Rewrite every purchase and sale whose number matches --from-number or
whose name matches --from-name (case-insensitive), then reconcile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ledger, closeLedger, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer closeLedger()

			renamed, err := ledger.RenameIdentity(ctx, oldNumber, oldName, newNumber, newName)
			if err != nil {
				return rejected("rename", err)
			}
			if err := saved(ctx, ledger); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Print(renamed, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "renamed %d purchases and %d sales\n", renamed.Purchases, renamed.Sales)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&oldNumber, "from-number", "", "current part number")
	cmd.Flags().StringVar(&oldName, "from-name", "", "current part name")
	cmd.Flags().StringVar(&newNumber, "to-number", "", "new part number")
	cmd.Flags().StringVar(&newName, "to-name", "", "new part name")

	return cmd
}
