package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/chart"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a PNG chart of the log",
		Long: `Reads the log once, applies the view options and writes a PNG chart.

Kinds:
  line          one line per column over time
  scatter       one marker per reading
  distribution  histogram of --column`,
		Args: cobra.NoArgs,
		RunE: runPlot,
	}
	addProjectionFlags(cmd)
	cmd.Flags().StringP("chart-path", "o", "chart.png",
		"Output PNG path")
	cmd.Flags().StringP("chart-kind", "k", "line",
		"Chart kind (line, scatter, distribution)")
	cmd.Flags().String("column", "",
		"Column for the distribution chart (default: last column)")
	cmd.Flags().Int("bins", constants.DefaultHistogramBins,
		"Bins for the distribution chart")
	cmd.Flags().String("title", "Sensor readings",
		"Chart title")
	return cmd
}

func runPlot(cmd *cobra.Command, args []string) error {
	settings, err := setup(cmd)
	if err != nil {
		return err
	}
	kind, err := chart.ParseKind(settings.GetString("chart-kind"))
	if err != nil {
		return err
	}
	if bins := settings.GetInt("bins"); bins <= 0 || bins > constants.MaxHistogramBins {
		return fmt.Errorf("bins must be positive and at most %d", constants.MaxHistogramBins)
	}

	v, err := loadView(settings)
	if err != nil {
		return err
	}

	sink, err := chart.NewPNGSink(expandPath(settings.GetString("chart-path")), chart.Options{
		Kind:   kind,
		Title:  settings.GetString("title"),
		Column: settings.GetString("column"),
		Bins:   settings.GetInt("bins"),
	})
	if err != nil {
		return err
	}
	if err := sink.Write(v); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows)\n", sink.Path(), v.Len())
	return nil
}
