package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-sensor-monitor/internal/application/live"
	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
)

// EnvPrefix prefixes environment overrides, e.g. SENSORMON_SOURCE=serial
const EnvPrefix = "SENSORMON"

var columnPresets = map[string][]string{
	"accelerometer": constants.AccelerometerColumns,
	"magnetometer":  constants.MagnetometerColumns,
	"climate":       constants.ClimateColumns,
}

// loadSettings layers flags over environment over the config file over flag defaults.
// Config file keys are the long flag names.
func loadSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := v.GetString("config")
	path := ConfigFileName
	if explicit != "" {
		path = expandPath(explicit)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit == "" && errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return v, nil
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", source.KindSimulated,
		"Sample source (sim, serial, ws, push)")
	cmd.Flags().String("port", "",
		"Serial port for --source serial (e.g., /dev/ttyACM0, COM3)")
	cmd.Flags().Int("baud", source.DefaultBaudRate,
		"Serial baud rate")
	cmd.Flags().String("relay", "",
		"Websocket relay URL for --source ws")
	cmd.Flags().Int64("seed", 0,
		"Random seed for --source sim (0 = time based)")
	cmd.Flags().Duration("interval", constants.DefaultMonitorInterval,
		"Sampling interval")
	cmd.Flags().String("camera", "",
		"Snapshot URL of a camera to capture alongside every sample")
	cmd.Flags().String("image-dir", defaultImageDir,
		"Directory for captured images")
	cmd.Flags().Bool("rotate", true,
		"Rotate captured images 90 degrees clockwise")
}

func addRefreshFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("refresh", constants.DefaultRefreshInterval,
		"View refresh interval")
	cmd.Flags().Int("ease-steps", constants.DefaultEaseSteps,
		"Frames per eased transition (1 = no easing)")
	cmd.Flags().Duration("ease-delay", constants.DefaultEaseStepDelay,
		"Delay between eased frames")
	cmd.Flags().Bool("watch", false,
		"Also refresh whenever the log file is written")
	cmd.Flags().String("chart-path", "",
		"Keep a PNG chart of the current view at this path")
	cmd.Flags().String("chart-kind", "line",
		"Chart kind (line, scatter, distribution)")
	cmd.Flags().String("title", "Sensor Monitor",
		"Dashboard and chart title")
}

func addProjectionFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("window", "w", constants.DefaultWindow,
		"Number of most recent rows in the view")
	cmd.Flags().Bool("paged", false,
		"Show --window rows starting at --offset instead of the newest rows")
	cmd.Flags().Int("offset", 0,
		"First row shown with --paged")
	cmd.Flags().Float64("hours", 0,
		"Only keep rows within this many hours of the newest row (0 = all)")
	cmd.Flags().BoolP("magnitude", "m", false,
		"Add a Magnitude column over all value columns")
	cmd.Flags().StringSlice("select", nil,
		"Only show these columns")
}

// resolveColumns expands a preset name and trims the entries
func resolveColumns(values []string) []string {
	if len(values) == 1 {
		if preset, ok := columnPresets[strings.ToLower(strings.TrimSpace(values[0]))]; ok {
			return append([]string(nil), preset...)
		}
	}
	columns := make([]string, 0, len(values))
	for _, c := range values {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	return columns
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// liveConfig maps the settings onto a validated live.Config. Keys a command
// does not define read as zero and take the live defaults.
func liveConfig(v *viper.Viper) (*live.Config, error) {
	config := &live.Config{
		LogPath: expandPath(v.GetString("file")),
		Columns: resolveColumns(v.GetStringSlice("columns")),

		Source:     v.GetString("source"),
		SerialPort: v.GetString("port"),
		BaudRate:   v.GetInt("baud"),
		RelayURL:   v.GetString("relay"),
		Seed:       v.GetInt64("seed"),

		MonitorInterval: v.GetDuration("interval"),
		RefreshInterval: v.GetDuration("refresh"),

		Window:    v.GetInt("window"),
		Paged:     v.GetBool("paged"),
		Offset:    v.GetInt("offset"),
		TimeBox:   hoursToDuration(v.GetFloat64("hours")),
		Magnitude: v.GetBool("magnitude"),
		Select:    v.GetStringSlice("select"),

		EaseSteps:     v.GetInt("ease-steps"),
		EaseStepDelay: v.GetDuration("ease-delay"),

		CameraURL:   v.GetString("camera"),
		ImageDir:    v.GetString("image-dir"),
		RotateImage: v.GetBool("rotate"),

		Listen:    v.GetString("listen"),
		ChartPath: v.GetString("chart-path"),
		ChartKind: v.GetString("chart-kind"),

		Title:     v.GetString("title"),
		Layout:    v.GetString("layout"),
		Precision: v.GetInt("precision"),
		MaxRows:   v.GetInt("max-rows"),
		Timezone:  v.GetString("timezone"),
		Watch:     v.GetBool("watch"),
	}
	if v.GetFloat64("hours") < 0 {
		return nil, fmt.Errorf("hours must not be negative")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
