package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/warp/parts-ledger/inventory"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The ledger rejected the operation or changes were not saved
	ExitCommandError = 2 // Command error (bad flags, unreadable file, database not opened)
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as a text table, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes data in the configured format. text renders the human form.
func (f *OutputFormatter) Print(data any, text func(w io.Writer) error) error {
	switch f.Format {
	case FormatJSON:
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(f.Writer)
	}
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

func writeStockTable(w io.Writer, rows []inventory.PricedStock) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tQTY\tLAST UPDATED\tBUY\tSELL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.PartNumber, r.PartName, r.Quantity, r.LastUpdated,
			r.PurchasePrice.StringFixed(inventory.PricePlaces),
			r.SalePrice.StringFixed(inventory.PricePlaces))
	}
	return tw.Flush()
}

func writeTransactionTable(w io.Writer, rows []inventory.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tNUMBER\tNAME\tQTY\tPRICE\tTOTAL")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i, r.Date, r.PartNumber, r.PartName, r.Quantity,
			r.Price.StringFixed(inventory.PricePlaces),
			r.TotalPrice.StringFixed(inventory.PricePlaces))
	}
	return tw.Flush()
}

func describeTransaction(tx inventory.Transaction) string {
	return fmt.Sprintf("%s %s (%s) x%d @ %s = %s",
		tx.Date, tx.PartName, tx.PartNumber, tx.Quantity,
		tx.Price.StringFixed(inventory.PricePlaces),
		tx.TotalPrice.StringFixed(inventory.PricePlaces))
}
