package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/application/live"
)

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Record and watch readings in the terminal",
		Long: `Similar to the Linux top command, shows the most recent readings in real time,
with a sparkline and min/avg/max for every column.

Keys:
  q, Esc      quit
  r           refresh now
  p           pause or resume
  m           toggle the Magnitude column
  t           switch layout
  +, -        grow or shrink the window
  Left/Right  page through older rows
  Up/Down     jump to the oldest rows or back to the newest
  h           help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, live.ModeTop)
		},
	}
	addSourceFlags(cmd)
	addRefreshFlags(cmd)
	addProjectionFlags(cmd)
	cmd.Flags().String("layout", "full",
		"Layout (full, minimal)")
	cmd.Flags().Int("precision", 3,
		"Decimal places shown")
	cmd.Flags().Int("max-rows", 15,
		"Rows shown in the table")
	return cmd
}
