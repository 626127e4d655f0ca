/*
Package cli implements the partsledger command line.

COMMANDS:
  serve             Run the HTTP API
  stock             Show the stock table (local DB or --server)
  rebuild           Reconcile stock from the logs
  purchase, sale    Record one transaction
  adjust            Set a part's on-hand quantity
  rename            Move a part's history to a new identity
  import, export    Move both logs in or out as JSON

CONFIGURATION:
  Global flags are bound to viper keys, so every flag can also come from a
  config file (--config or ./partsledger.yaml), a .env file, or
  PARTSLEDGER_* environment variables. Flags win.
*/
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/warp/parts-ledger/config"
	"github.com/warp/parts-ledger/inventory"
	"github.com/warp/parts-ledger/logger"
	"github.com/warp/parts-ledger/store/sqlite"
)

// RootOptions holds global flags and the state PersistentPreRunE derives
// from them.
type RootOptions struct {
	ConfigFile string
	Format     string

	v *viper.Viper

	// Set before any subcommand runs.
	Config *config.Config
	Log    zerolog.Logger
}

// NewRootCommand creates the root command for the partsledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "partsledger",
		Short: "Parts inventory ledger",
		Long: `Track parts purchases and sales. Stock is derived from the two logs
and reconciled after every change, so it always matches the history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.v, opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}
			opts.Config = cfg
			opts.Log = logger.New(logger.Config{
				Env:   cfg.Env,
				Level: cfg.Log.Level,
				Out:   cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./partsledger.yaml if present)")
	flags.StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	flags.String("db", "", "SQLite database path, \":memory:\" for a throwaway ledger")
	flags.String("log-level", "", "log level (trace|debug|info|warn|error)")
	flags.String("env", "", "environment (development|production)")
	bindFlag(opts.v, config.KeyDBPath, flags.Lookup("db"))
	bindFlag(opts.v, config.KeyLogLevel, flags.Lookup("log-level"))
	bindFlag(opts.v, config.KeyEnv, flags.Lookup("env"))

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewRebuildCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts, inventory.CollectionPurchases))
	cmd.AddCommand(NewRecordCommand(opts, inventory.CollectionSales))
	cmd.AddCommand(NewAdjustCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// openLedger opens the configured database. The returned func flushes
// anything still pending and closes the store.
func (o *RootOptions) openLedger() (*inventory.Ledger, func(), error) {
	store, err := sqlite.New(o.Config.DB.Path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}
	ledger := inventory.NewLedger(store, o.Log)

	closeFn := func() {
		if len(ledger.Records().Pending()) > 0 {
			if err := ledger.Records().Flush(context.Background()); err != nil {
				o.Log.Error().Err(err).Msg("unsaved changes discarded")
			}
		}
		if err := store.Close(); err != nil {
			o.Log.Warn().Err(err).Msg("close database")
		}
	}
	return ledger, closeFn, nil
}

// saved reports a mutation whose writes the backend rejected.
func saved(ctx context.Context, ledger *inventory.Ledger) error {
	if len(ledger.Records().Pending()) == 0 {
		return nil
	}
	if err := ledger.Records().Flush(ctx); err != nil {
		return WrapExitError(ExitFailure, "changes were not saved", err)
	}
	return nil
}

// rejected maps a ledger error to an exit error.
func rejected(action string, err error) error {
	if inventory.IsClientError(err) {
		return WrapExitError(ExitFailure, action+" rejected", err)
	}
	return WrapExitError(ExitCommandError, action+" failed", err)
}

// bindFlag panics on a nil flag, which is a programming error.
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
