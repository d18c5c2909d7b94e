package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/presentation/formatter"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the current view of the log",
		Long: `Reads the log once, applies the view options and prints the result.

Examples:
  sensormon export                         # Last 100 rows as a table
  sensormon export --hours 24 -o csv       # Last day as CSV
  sensormon export -w 0 -o summary         # Per-column statistics`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	addProjectionFlags(cmd)
	cmd.Flags().StringP("output", "o", "table",
		"Output format (table, csv, json, summary)")
	cmd.Flags().Int("precision", 3,
		"Decimal places in table and summary output")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	settings, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := formatter.GetFormatter(settings.GetString("output"), settings.GetInt("precision"))
	if err != nil {
		return err
	}

	v, err := loadView(settings)
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), v)
}
