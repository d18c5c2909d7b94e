package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-sensor-monitor/internal/application/live"
)

// runLive builds the orchestrator for mode and runs it until interrupted
func runLive(cmd *cobra.Command, mode live.Mode, opts ...live.Option) error {
	settings, err := setup(cmd)
	if err != nil {
		return err
	}
	config, err := liveConfig(settings)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orchestrator, err := live.NewOrchestrator(ctx, config, mode, opts...)
	if err != nil {
		return err
	}
	if mode != live.ModeTop {
		announce(cmd, mode, config)
	}
	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func announce(cmd *cobra.Command, mode live.Mode, config *live.Config) {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Recording %s from %s to %s every %s\n",
		strings.Join(config.Columns, ", "), config.Source, config.LogPath, config.MonitorInterval)
	if mode == live.ModeServe {
		fmt.Fprintf(out, "Dashboard on %s\n", dashboardURL(config.Listen))
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop")
}

func dashboardURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}
