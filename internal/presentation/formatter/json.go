package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, v model.View) error {
	data, err := sonic.ConfigStd.MarshalIndent(NewViewDocument(v), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
