package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/application/live"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Sample the source and append to the log",
		Long: `Runs the monitor loop only: every interval one reading of every column is taken,
stamped with the current time and appended to the CSV log. An optional camera
snapshot is saved next to each sample.

Run a viewer (serve, top, plot, export) against the same --file to look at the data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, live.ModeRecord)
		},
	}
	addSourceFlags(cmd)
	return cmd
}
