package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

const (
	defaultLogFile  = "~/.go-sensor-monitor/logs/app.log"
	defaultDataFile = "~/.go-sensor-monitor/data.csv"
	defaultImageDir = "~/.go-sensor-monitor/images"

	// ConfigFileName is looked up in the working directory when --config is not given
	ConfigFileName = ".sensormon.yaml"
)

var rootCmd = NewRootCommand()

// NewRootCommand builds the sensormon command tree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensormon [command]",
		Short: "Live sensor monitor",
		Long: `sensormon samples a set of sensor readings on a fixed cadence, appends them to a
CSV log and keeps a live view of the most recent rows.

The recorder and the viewers only share the log file, so a viewer can be started,
stopped or replaced while recording continues.

Examples:
  sensormon record --source serial --port /dev/ttyACM0    # Record from an Arduino
  sensormon serve --source push --listen :8050            # Web dashboard with HTTP ingest
  sensormon top --window 50 --magnitude                   # Terminal dashboard
  sensormon plot --kind distribution --column Accelerometer_Z -o dist.png
  sensormon export --hours 1 -o csv > last-hour.csv`,
		SilenceUsage: true,
	}

	// Global configuration
	cmd.PersistentFlags().String("config", "",
		fmt.Sprintf("Config file (default %s in the working directory)", ConfigFileName))
	cmd.PersistentFlags().Bool("debug", false,
		"Enable debug mode")
	cmd.PersistentFlags().StringP("file", "f", defaultDataFile,
		"CSV log file path")
	cmd.PersistentFlags().StringSlice("columns", constants.DefaultColumns(),
		"Value columns, or a preset (accelerometer, magnetometer, climate)")
	cmd.PersistentFlags().String("timezone", "Local",
		"Timezone used to stamp and read samples (e.g., UTC, Europe/London)")

	cmd.AddCommand(
		newRecordCmd(),
		newServeCmd(),
		newTopCmd(),
		newPlotCmd(),
		newExportCmd(),
	)
	return cmd
}

// Execute runs the command named by os.Args
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the config file, binds the flags of cmd over it and starts logging
func setup(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	logLevel := "info"
	if v.GetBool("debug") {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:   logLevel,
		File:    logFile,
		Console: v.GetBool("debug"),
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := util.InitializeTimeProvider(v.GetString("timezone")); err != nil {
		return nil, err
	}
	if path := v.ConfigFileUsed(); path != "" {
		util.LogInfo("Loaded config file", util.F("path", path))
	}
	return v, nil
}

// Helper functions

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
