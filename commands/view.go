package commands

import (
	"github.com/spf13/viper"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/data/appendlog"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// loadView reads the whole log once and projects it with the command's settings
func loadView(settings *viper.Viper) (model.View, error) {
	config, err := liveConfig(settings)
	if err != nil {
		return model.View{}, err
	}

	result, err := appendlog.NewReader(config.LogPath, config.Columns).Load()
	if err != nil {
		return model.View{}, err
	}
	if result.DroppedRows > 0 || result.MissingCells > 0 {
		util.LogWarn("Log contains unreadable data",
			util.F("path", config.LogPath),
			util.F("dropped_rows", result.DroppedRows),
			util.F("missing_cells", result.MissingCells))
	}
	return view.Build(result.Samples, config.Columns, config.Projection()), nil
}
