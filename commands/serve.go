package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/application/live"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Record and serve a live web dashboard",
		Long: `Runs the monitor loop and the refresh loop together with an HTTP dashboard.

Endpoints:
  GET  /                  live chart page
  GET  /api/view          latest view as JSON
  GET  /api/status        recorder and refresh status
  GET  /api/histogram     value distribution of one column
  GET  /api/image/latest  most recent camera capture
  GET  /chart.png         chart of the latest view
  GET  /ws                websocket push of every view
  POST /api/readings      push readings into --source push`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, live.ModeServe)
		},
	}
	addSourceFlags(cmd)
	addRefreshFlags(cmd)
	addProjectionFlags(cmd)
	cmd.Flags().String("listen", ":8050",
		"Dashboard listen address")
	return cmd
}
